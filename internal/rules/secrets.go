package rules

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// secretKeyword maps a target identifier to the severity its keyword
// carries, or ok=false when the name does not look credential-like.
func secretKeyword(name string) (model.Severity, bool) {
	low := strings.ToLower(name)
	for _, kw := range []string{"password", "passwd", "pwd", "secret", "api_key", "apikey"} {
		if strings.Contains(low, kw) {
			return model.SeverityHigh, true
		}
	}
	if strings.Contains(low, "token") || strings.Contains(low, "credential") {
		return model.SeverityMedium, true
	}
	return "", false
}

// namedCredentialRule flags string literals bound to identifiers whose
// name matches a credential keyword: assignments, var declarations and
// struct literal fields.
type namedCredentialRule struct{}

func (namedCredentialRule) ID() string               { return "secrets.named-credential" }
func (namedCredentialRule) Category() model.Category { return model.CategorySecrets }
func (namedCredentialRule) Severity() model.Severity { return model.SeverityHigh }

func (r namedCredentialRule) Match(n ast.Node, ctx *Context) []model.Finding {
	for _, b := range secretBindings(n) {
		sev, ok := secretKeyword(b.name)
		if !ok {
			continue
		}
		val, ok := stringLit(b.value)
		if !ok || val == "" {
			continue
		}
		msg := fmt.Sprintf("hardcoded credential assigned to %q", b.name)
		return []model.Finding{ctx.NewFinding(r, n, sev, 0.85, msg)}
	}
	return nil
}

type binding struct {
	name  string
	value ast.Expr
}

// secretBindings extracts (target name, value expression) pairs from the
// node forms that bind a name to a value.
func secretBindings(n ast.Node) []binding {
	switch v := n.(type) {
	case *ast.AssignStmt:
		var out []binding
		for i, lhs := range v.Lhs {
			if i >= len(v.Rhs) {
				break
			}
			switch t := lhs.(type) {
			case *ast.Ident:
				out = append(out, binding{t.Name, v.Rhs[i]})
			case *ast.SelectorExpr:
				out = append(out, binding{t.Sel.Name, v.Rhs[i]})
			}
		}
		return out
	case *ast.ValueSpec:
		var out []binding
		for i, name := range v.Names {
			if i >= len(v.Values) {
				break
			}
			out = append(out, binding{name.Name, v.Values[i]})
		}
		return out
	case *ast.KeyValueExpr:
		switch key := v.Key.(type) {
		case *ast.Ident:
			return []binding{{key.Name, v.Value}}
		case *ast.BasicLit:
			if s, ok := stringLit(key); ok {
				return []binding{{s, v.Value}}
			}
		}
	}
	return nil
}

const longLiteralThreshold = 20

// longLiteralRule is the low-confidence companion to the name heuristic:
// any long, URL-free string literal with mixed letter and digit classes
// might be a leaked credential. Literals already claimed by a
// credential-named binding are left to namedCredentialRule so one secret
// yields one finding.
type longLiteralRule struct{}

func (longLiteralRule) ID() string               { return "secrets.long-literal" }
func (longLiteralRule) Category() model.Category { return model.CategorySecrets }
func (longLiteralRule) Severity() model.Severity { return model.SeverityLow }

func (r longLiteralRule) Match(n ast.Node, ctx *Context) []model.Finding {
	lit, ok := n.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return nil
	}
	val, ok := stringLit(lit)
	if !ok {
		return nil
	}
	if len(val) <= longLiteralThreshold || !secretShaped(val) {
		return nil
	}
	if ctx.inDeclContext() || r.claimedByName(ctx) {
		return nil
	}
	msg := "long opaque string literal may be a hardcoded secret"
	return []model.Finding{ctx.NewFinding(r, lit, model.SeverityLow, 0.3, msg)}
}

// claimedByName walks outward looking for a credential-named binding
// that owns this literal.
func (longLiteralRule) claimedByName(ctx *Context) bool {
	for i := 1; ; i++ {
		p := ctx.parent(i)
		if p == nil {
			return false
		}
		for _, b := range secretBindings(p) {
			if _, ok := secretKeyword(b.name); ok {
				return true
			}
		}
		switch p.(type) {
		case *ast.BlockStmt, *ast.FuncDecl:
			return false
		}
	}
}

// secretShaped filters out prose and URLs: a secret-looking literal has
// no spaces, no URL scheme and mixes letters with digits.
func secretShaped(s string) bool {
	if strings.ContainsAny(s, " \t\n") {
		return false
	}
	if strings.Contains(s, "://") {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}
	return hasLetter && hasDigit
}
