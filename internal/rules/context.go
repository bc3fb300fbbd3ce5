package rules

import (
	"bytes"
	"go/ast"
	"go/token"
	"strings"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

const maxSnippetLen = 160

// Context carries the per-unit lexical state the dispatcher maintains
// during its single traversal: the unit under analysis and the stack of
// enclosing nodes. Rules read it, never mutate it.
type Context struct {
	Unit  *model.SourceUnit
	stack []ast.Node
	lines [][]byte
}

func newContext(unit *model.SourceUnit) *Context {
	return &Context{Unit: unit}
}

// Position resolves a node to its line and column within the unit.
func (c *Context) Position(n ast.Node) token.Position {
	return c.Unit.FileSet.Position(n.Pos())
}

// EnclosingFunc returns the innermost function declaration containing
// the current node, or nil at file scope.
func (c *Context) EnclosingFunc() *ast.FuncDecl {
	for i := len(c.stack) - 1; i >= 0; i-- {
		if fn, ok := c.stack[i].(*ast.FuncDecl); ok {
			return fn
		}
	}
	return nil
}

// Snippet returns the trimmed source line a node starts on.
func (c *Context) Snippet(n ast.Node) string {
	if c.lines == nil {
		c.lines = bytes.Split(c.Unit.Content, []byte("\n"))
	}
	line := c.Position(n).Line
	if line < 1 || line > len(c.lines) {
		return ""
	}
	s := strings.TrimSpace(string(c.lines[line-1]))
	if len(s) > maxSnippetLen {
		s = s[:maxSnippetLen] + "..."
	}
	return s
}

// NewFinding builds a finding for rule r at node n. Severity and
// confidence come from the caller because several rules emit more than
// one severity tier.
func (c *Context) NewFinding(r Rule, n ast.Node, sev model.Severity, conf float64, msg string) model.Finding {
	pos := c.Position(n)
	return model.Finding{
		RuleID:     r.ID(),
		Category:   r.Category(),
		Severity:   sev,
		FilePath:   c.Unit.Path,
		Line:       pos.Line,
		Column:     pos.Column,
		Snippet:    c.Snippet(n),
		Message:    msg,
		Confidence: conf,
	}
}
