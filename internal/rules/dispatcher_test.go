package rules

import (
	"go/ast"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepserish-bk/db-security-scanner/internal/loader"
	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// analyzeSrc parses src as one file and runs the registry over it,
// failing the test if the source does not parse.
func analyzeSrc(t *testing.T, reg *Registry, src string) []model.Finding {
	t.Helper()
	unit := loader.FromBytes("main.go", []byte(src))
	require.True(t, unit.Parsed(), "test source must parse: %v", unit.ParseErr)
	findings, ferr := Analyze(unit, reg)
	require.Nil(t, ferr)
	return findings
}

// byRule filters findings down to a single rule so assertions stay
// precise when several rules legitimately fire on one source.
func byRule(findings []model.Finding, id string) []model.Finding {
	var out []model.Finding
	for _, f := range findings {
		if f.RuleID == id {
			out = append(out, f)
		}
	}
	return out
}

func TestAnalyzeParseFailure(t *testing.T) {
	unit := loader.FromBytes("broken.go", []byte("package main\n\nfunc {\n"))
	findings, ferr := Analyze(unit, Default())

	require.NotNil(t, ferr)
	assert.Equal(t, "broken.go", ferr.Path)
	assert.Equal(t, "parse", ferr.Stage)
	assert.NotEmpty(t, ferr.Err)
	assert.Empty(t, findings)
}

// noisyRule emits the same finding twice for the file node to exercise
// dispatcher-level deduplication.
type noisyRule struct{}

func (noisyRule) ID() string               { return "test.noisy" }
func (noisyRule) Category() model.Category { return model.CategorySQL }
func (noisyRule) Severity() model.Severity { return model.SeverityLow }

func (r noisyRule) Match(n ast.Node, ctx *Context) []model.Finding {
	if _, ok := n.(*ast.File); !ok {
		return nil
	}
	f := ctx.NewFinding(r, n, model.SeverityLow, 0.5, "duplicate probe")
	return []model.Finding{f, f}
}

func TestAnalyzeDeduplicatesIdenticalFindings(t *testing.T) {
	reg := NewRegistry()
	reg.Register(noisyRule{})
	reg.Enable()

	findings := analyzeSrc(t, reg, "package main\n")
	require.Len(t, findings, 1)
	assert.Equal(t, "test.noisy", findings[0].RuleID)
}

// panicRule blows up on every call expression so the dispatcher's
// per-rule recovery is observable.
type panicRule struct{}

func (panicRule) ID() string               { return "test.panic" }
func (panicRule) Category() model.Category { return model.CategorySQL }
func (panicRule) Severity() model.Severity { return model.SeverityHigh }

func (panicRule) Match(n ast.Node, ctx *Context) []model.Finding {
	if _, ok := n.(*ast.CallExpr); ok {
		panic("boom")
	}
	return nil
}

func TestAnalyzeRecoversFromPanickingRule(t *testing.T) {
	reg := NewRegistry()
	reg.Register(panicRule{})
	reg.Register(concatQueryRule{})
	reg.Enable()

	src := `package main

func lookup(db querier, userID string) {
	db.Query("SELECT name FROM users WHERE id=" + userID)
}
`
	findings := analyzeSrc(t, reg, src)
	require.Len(t, findings, 1)
	assert.Equal(t, "sql.concat-query", findings[0].RuleID)
}

func TestAnalyzeDeterministic(t *testing.T) {
	src := `package main

func report(db querier, userFilter string) {
	q := "SELECT id FROM jobs WHERE " + userFilter
	db.Query(q + " ORDER BY id")
}
`
	first := analyzeSrc(t, Default(), src)
	require.NotEmpty(t, first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, analyzeSrc(t, Default(), src))
	}
}
