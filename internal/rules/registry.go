package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"go/ast"
	"sort"
	"strings"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// Rule is one detection rule: a stateless predicate over a syntax node
// plus the lexical context the dispatcher carries. Implementations never
// hold mutable state, which is what makes parallel application safe.
type Rule interface {
	ID() string
	Category() model.Category
	Severity() model.Severity
	Match(node ast.Node, ctx *Context) []model.Finding
}

// Registry holds the closed set of registered rules and tracks which
// categories are enabled. Registration happens once at construction;
// after that the registry is read-only and safe for concurrent use.
type Registry struct {
	rules   []Rule
	enabled map[model.Category]bool
}

func NewRegistry() *Registry {
	return &Registry{enabled: make(map[model.Category]bool)}
}

// Register adds a rule. Later Enable calls decide whether it runs.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Enable turns on the given categories. Calling with no arguments
// enables every category.
func (r *Registry) Enable(cats ...model.Category) {
	if len(cats) == 0 {
		cats = model.Categories()
	}
	for _, c := range cats {
		r.enabled[c] = true
	}
}

// Enabled reports whether rules in category c run.
func (r *Registry) Enabled(c model.Category) bool {
	return r.enabled[c]
}

// Active returns the rules whose category is enabled, in registration
// order.
func (r *Registry) Active() []Rule {
	var out []Rule
	for _, rule := range r.rules {
		if r.enabled[rule.Category()] {
			out = append(out, rule)
		}
	}
	return out
}

// ActiveSignature derives an opaque token from the sorted ids of the
// enabled rules. It is part of every cache key, so changing the enabled
// set misses cleanly instead of returning stale findings.
func (r *Registry) ActiveSignature() string {
	ids := make([]string, 0, len(r.rules))
	for _, rule := range r.Active() {
		ids = append(ids, rule.ID())
	}
	sort.Strings(ids)
	sum := sha256.Sum256([]byte(strings.Join(ids, ",")))
	return hex.EncodeToString(sum[:])
}
