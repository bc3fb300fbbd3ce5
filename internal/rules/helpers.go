package rules

import (
	"go/ast"
	"go/token"
	"strconv"
	"strings"
)

// calleeParts splits a call's callee into a receiver hint and the method
// name. db.Query(...) yields ("db", "Query"); bare eval(...) yields
// ("", "eval"); chained calls keep the innermost selector as the hint.
func calleeParts(call *ast.CallExpr) (recv, name string) {
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		return "", fn.Name
	case *ast.SelectorExpr:
		switch x := fn.X.(type) {
		case *ast.Ident:
			return x.Name, fn.Sel.Name
		case *ast.SelectorExpr:
			return x.Sel.Name, fn.Sel.Name
		case *ast.CallExpr:
			_, inner := calleeParts(x)
			return inner, fn.Sel.Name
		}
		return "", fn.Sel.Name
	}
	return "", ""
}

// isStringConcat reports whether e is a + expression with at least one
// string literal operand somewhere in the chain.
func isStringConcat(e ast.Expr) bool {
	be, ok := e.(*ast.BinaryExpr)
	if !ok || be.Op != token.ADD {
		return false
	}
	return hasStringLit(be)
}

func hasStringLit(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.BasicLit:
		return v.Kind == token.STRING
	case *ast.BinaryExpr:
		return hasStringLit(v.X) || hasStringLit(v.Y)
	case *ast.ParenExpr:
		return hasStringLit(v.X)
	}
	return false
}

// exprIdents collects the identifier and selector names participating in
// an expression, used to judge whether concatenated operands look like
// external input.
func exprIdents(e ast.Expr) []string {
	var names []string
	var walk func(ast.Expr)
	walk = func(x ast.Expr) {
		switch v := x.(type) {
		case *ast.Ident:
			names = append(names, v.Name)
		case *ast.SelectorExpr:
			names = append(names, v.Sel.Name)
			walk(v.X)
		case *ast.BinaryExpr:
			walk(v.X)
			walk(v.Y)
		case *ast.ParenExpr:
			walk(v.X)
		case *ast.CallExpr:
			if _, n := calleeParts(v); n != "" {
				names = append(names, n)
			}
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.IndexExpr:
			walk(v.X)
			walk(v.Index)
		}
	}
	walk(e)
	return names
}

var externalInputMarkers = []string{"user", "input", "request", "param", "args", "form"}

// looksExternalInput reports whether any of the names suggests data that
// crossed a trust boundary. Pure name heuristic, no data-flow tracking.
func looksExternalInput(names []string) bool {
	for _, n := range names {
		low := strings.ToLower(n)
		for _, marker := range externalInputMarkers {
			if strings.Contains(low, marker) {
				return true
			}
		}
	}
	return false
}

// sprintfCall returns the call if e is a Sprintf invocation with a
// format string containing at least one verb.
func sprintfCall(e ast.Expr) (*ast.CallExpr, bool) {
	call, ok := e.(*ast.CallExpr)
	if !ok {
		return nil, false
	}
	_, name := calleeParts(call)
	if name != "Sprintf" || len(call.Args) < 2 {
		return nil, false
	}
	format, ok := stringLit(call.Args[0])
	if !ok || !strings.Contains(format, "%") {
		return nil, false
	}
	return call, true
}

// stringLit unquotes e if it is a string literal.
func stringLit(e ast.Expr) (string, bool) {
	lit, ok := e.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return s, true
}

// litStrings collects the string literal fragments of a concat chain.
func litStrings(e ast.Expr) []string {
	var parts []string
	var walk func(ast.Expr)
	walk = func(x ast.Expr) {
		switch v := x.(type) {
		case *ast.BasicLit:
			if s, ok := stringLit(v); ok {
				parts = append(parts, s)
			}
		case *ast.BinaryExpr:
			walk(v.X)
			walk(v.Y)
		case *ast.ParenExpr:
			walk(v.X)
		}
	}
	walk(e)
	return parts
}

// parent returns the n-th enclosing node of the current one; parent(1)
// is the immediate parent.
func (c *Context) parent(n int) ast.Node {
	idx := len(c.stack) - 1 - n
	if idx < 0 {
		return nil
	}
	return c.stack[idx]
}

// inDeclContext reports whether the current node sits somewhere rules
// should never flag string literals: import specs and struct tags.
func (c *Context) inDeclContext() bool {
	for i := 1; ; i++ {
		p := c.parent(i)
		if p == nil {
			return false
		}
		switch p.(type) {
		case *ast.ImportSpec, *ast.Field:
			return true
		case *ast.BlockStmt, *ast.FuncDecl:
			return false
		}
	}
}
