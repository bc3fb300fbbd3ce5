package rules

import (
	"fmt"
	"go/ast"
	"log/slog"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

type dedupeKey struct {
	ruleID string
	path   string
	line   int
	column int
}

// Analyze runs every enabled rule over the unit in exactly one traversal
// of its syntax tree. Findings identical in (rule, file, line, column)
// are deduplicated. A unit that failed to parse yields no findings and a
// per-file error; a rule that panics on a node is skipped for that node
// and the remaining rules continue.
func Analyze(unit *model.SourceUnit, reg *Registry) ([]model.Finding, *model.FileError) {
	if !unit.Parsed() {
		msg := "no syntax tree"
		if unit.ParseErr != nil {
			msg = unit.ParseErr.Error()
		}
		return nil, &model.FileError{Path: unit.Path, Stage: "parse", Err: msg}
	}

	active := reg.Active()
	ctx := newContext(unit)
	seen := make(map[dedupeKey]bool)
	var findings []model.Finding

	ast.Inspect(unit.File, func(n ast.Node) bool {
		if n == nil {
			ctx.stack = ctx.stack[:len(ctx.stack)-1]
			return true
		}
		ctx.stack = append(ctx.stack, n)
		for _, rule := range active {
			for _, f := range matchNode(rule, n, ctx) {
				k := dedupeKey{f.RuleID, f.FilePath, f.Line, f.Column}
				if seen[k] {
					continue
				}
				seen[k] = true
				findings = append(findings, f)
			}
		}
		return true
	})

	return findings, nil
}

// matchNode isolates a single rule application so one misbehaving
// matcher cannot take down the traversal.
func matchNode(rule Rule, n ast.Node, ctx *Context) (out []model.Finding) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("rule failed on node, skipping",
				"rule", rule.ID(),
				"path", ctx.Unit.Path,
				"error", fmt.Sprint(r))
			out = nil
		}
	}()
	return rule.Match(n, ctx)
}
