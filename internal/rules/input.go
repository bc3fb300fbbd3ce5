package rules

import (
	"fmt"
	"go/ast"
	"strings"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// exec-style primitives by (receiver, method). Receiver matching is by
// package ident name, which holds for the conventional import names.
var execPrimitives = map[[2]string]bool{
	{"exec", "Command"}:        true,
	{"exec", "CommandContext"}: true,
	{"syscall", "Exec"}:        true,
	{"os", "StartProcess"}:     true,
}

var validationMarkers = []string{"validate", "sanitize", "sanitise", "escape", "clean", "check"}

// dynamicExecRule flags shell-execution primitives fed non-literal
// arguments with no identifiable validation call earlier in the same
// function. Static invocations are reported at INFO for visibility.
type dynamicExecRule struct{}

func (dynamicExecRule) ID() string               { return "input.dynamic-exec" }
func (dynamicExecRule) Category() model.Category { return model.CategoryInput }
func (dynamicExecRule) Severity() model.Severity { return model.SeverityHigh }

func (r dynamicExecRule) Match(n ast.Node, ctx *Context) []model.Finding {
	call, ok := n.(*ast.CallExpr)
	if !ok {
		return nil
	}
	recv, name := calleeParts(call)
	if !execPrimitives[[2]string{recv, name}] {
		return nil
	}

	if allLiteral(call.Args) {
		msg := fmt.Sprintf("shell execution via %s.%s with static arguments", recv, name)
		return []model.Finding{ctx.NewFinding(r, call, model.SeverityInfo, 0.4, msg)}
	}
	if validatedBefore(ctx, call) {
		return nil
	}
	msg := fmt.Sprintf("dynamic shell execution via %s.%s without prior input validation", recv, name)
	return []model.Finding{ctx.NewFinding(r, call, model.SeverityHigh, 0.8, msg)}
}

func allLiteral(args []ast.Expr) bool {
	for _, a := range args {
		if _, ok := stringLit(a); !ok {
			return false
		}
	}
	return len(args) > 0
}

// validatedBefore scans the enclosing function for a call whose name
// suggests validation or sanitization, positioned before the exec call.
func validatedBefore(ctx *Context, call *ast.CallExpr) bool {
	fn := ctx.EnclosingFunc()
	if fn == nil || fn.Body == nil {
		return false
	}
	found := false
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		if found || n == nil {
			return false
		}
		if n.Pos() >= call.Pos() {
			return false
		}
		c, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		_, name := calleeParts(c)
		low := strings.ToLower(name)
		for _, marker := range validationMarkers {
			if strings.Contains(low, marker) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}
