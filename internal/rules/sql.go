package rules

import (
	"fmt"
	"go/ast"
	"strings"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// Method-name suffixes that execute SQL. A trailing Context is stripped
// before matching so ExecContext and QueryRowContext are covered.
var execSuffixes = []string{"Exec", "Execute", "Query", "QueryRow", "Queryx", "QueryRowx"}

func isExecCall(name string) bool {
	name = strings.TrimSuffix(name, "Context")
	for _, suf := range execSuffixes {
		if strings.HasSuffix(name, suf) {
			return true
		}
	}
	return false
}

// concatQueryRule flags execution-style calls whose argument is a string
// assembled by concatenation or Sprintf instead of being passed as
// parameters.
type concatQueryRule struct{}

func (concatQueryRule) ID() string               { return "sql.concat-query" }
func (concatQueryRule) Category() model.Category { return model.CategorySQL }
func (concatQueryRule) Severity() model.Severity { return model.SeverityHigh }

func (r concatQueryRule) Match(n ast.Node, ctx *Context) []model.Finding {
	call, ok := n.(*ast.CallExpr)
	if !ok {
		return nil
	}
	_, name := calleeParts(call)
	if !isExecCall(name) {
		return nil
	}
	for _, arg := range call.Args {
		if isStringConcat(arg) {
			sev, conf := model.SeverityMedium, 0.8
			if looksExternalInput(exprIdents(arg)) {
				sev, conf = model.SeverityHigh, 0.9
			}
			msg := fmt.Sprintf("possible SQL injection: argument to %s built by string concatenation", name)
			return []model.Finding{ctx.NewFinding(r, call, sev, conf, msg)}
		}
		if sp, ok := sprintfCall(arg); ok {
			sev, conf := model.SeverityMedium, 0.8
			if looksExternalInput(exprIdents(sp)) {
				sev, conf = model.SeverityHigh, 0.9
			}
			msg := fmt.Sprintf("possible SQL injection: argument to %s built with fmt.Sprintf", name)
			return []model.Finding{ctx.NewFinding(r, call, sev, conf, msg)}
		}
	}
	return nil
}

var sqlKeywords = []string{"select ", "insert ", "update ", "delete ", "drop ", "create ", "alter "}

func looksLikeSQL(parts []string) bool {
	for _, p := range parts {
		low := strings.ToLower(p)
		for _, kw := range sqlKeywords {
			if strings.Contains(low, kw) {
				return true
			}
		}
	}
	return false
}

// stringBuildRule flags SQL statements assembled by concatenation into a
// variable, ahead of whatever call eventually runs them.
type stringBuildRule struct{}

func (stringBuildRule) ID() string               { return "sql.string-build" }
func (stringBuildRule) Category() model.Category { return model.CategorySQL }
func (stringBuildRule) Severity() model.Severity { return model.SeverityMedium }

func (r stringBuildRule) Match(n ast.Node, ctx *Context) []model.Finding {
	var rhs []ast.Expr
	switch v := n.(type) {
	case *ast.AssignStmt:
		rhs = v.Rhs
	case *ast.ValueSpec:
		rhs = v.Values
	default:
		return nil
	}
	for _, e := range rhs {
		if !isStringConcat(e) || !looksLikeSQL(litStrings(e)) {
			continue
		}
		conf := 0.6
		sev := model.SeverityMedium
		if looksExternalInput(exprIdents(e)) {
			conf = 0.75
		}
		msg := "SQL statement assembled by string concatenation; use parameterized queries"
		return []model.Finding{ctx.NewFinding(r, n, sev, conf, msg)}
	}
	return nil
}
