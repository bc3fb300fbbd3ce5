package rules

import (
	"fmt"
	"go/ast"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// ORM builder methods that accept raw SQL fragments. Kept disjoint from
// the exec suffixes so one call site never fires both the sql and orm
// rules.
var ormMethods = map[string]bool{
	"Raw":    true,
	"Where":  true,
	"Having": true,
	"Order":  true,
	"Group":  true,
	"Joins":  true,
}

// rawORMRule mirrors the SQL concatenation rule at ORM call sites:
// query-builder methods handed concatenated or Sprintf-built fragments.
type rawORMRule struct{}

func (rawORMRule) ID() string               { return "orm.raw-query" }
func (rawORMRule) Category() model.Category { return model.CategoryORM }
func (rawORMRule) Severity() model.Severity { return model.SeverityHigh }

func (r rawORMRule) Match(n ast.Node, ctx *Context) []model.Finding {
	call, ok := n.(*ast.CallExpr)
	if !ok {
		return nil
	}
	_, name := calleeParts(call)
	if !ormMethods[name] {
		return nil
	}
	for _, arg := range call.Args {
		var idents []string
		switch {
		case isStringConcat(arg):
			idents = exprIdents(arg)
		default:
			sp, ok := sprintfCall(arg)
			if !ok {
				continue
			}
			idents = exprIdents(sp)
		}
		sev, conf := model.SeverityMedium, 0.7
		if looksExternalInput(idents) {
			sev, conf = model.SeverityHigh, 0.85
		}
		msg := fmt.Sprintf("raw SQL fragment passed to ORM method %s; use bound parameters", name)
		return []model.Finding{ctx.NewFinding(r, call, sev, conf, msg)}
	}
	return nil
}
