package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

func TestConcatQueryExternalInput(t *testing.T) {
	src := `package main

func lookup(db querier, userID string) {
	db.Query("SELECT * FROM t WHERE id=" + userID)
}
`
	findings := analyzeSrc(t, Default(), src)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, "sql.concat-query", f.RuleID)
	assert.Equal(t, model.CategorySQL, f.Category)
	assert.Equal(t, model.SeverityHigh, f.Severity)
	assert.Equal(t, 4, f.Line)
	assert.InDelta(t, 0.9, f.Confidence, 1e-9)
	assert.Contains(t, f.Message, "string concatenation")
	assert.Contains(t, f.Snippet, "db.Query")
}

func TestConcatQueryVariants(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		want     int
		severity model.Severity
		substr   string
	}{
		{
			name: "local variable concat",
			src: `package main

func touch(db querier, key string) {
	db.Exec("UPDATE t SET v=1 WHERE k=" + key)
}
`,
			want:     1,
			severity: model.SeverityMedium,
			substr:   "string concatenation",
		},
		{
			name: "sprintf with request input",
			src: `package main

import "fmt"

func lookup(db querier, requestID int) {
	db.QueryRow(fmt.Sprintf("SELECT name FROM users WHERE id = %d", requestID))
}
`,
			want:     1,
			severity: model.SeverityHigh,
			substr:   "fmt.Sprintf",
		},
		{
			name: "context variant",
			src: `package main

import "context"

func purge(ctx context.Context, db querier, sid string) {
	db.ExecContext(ctx, "DELETE FROM sessions WHERE sid=" + sid)
}
`,
			want:     1,
			severity: model.SeverityMedium,
			substr:   "string concatenation",
		},
		{
			name: "parameterized query is clean",
			src: `package main

func lookup(db querier, userID string) {
	db.Query("SELECT * FROM t WHERE id = ?", userID)
}
`,
			want: 0,
		},
		{
			name: "sprintf without verbs is clean",
			src: `package main

import "fmt"

func ping(db querier) {
	db.Query(fmt.Sprintf("SELECT 1"))
}
`,
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := byRule(analyzeSrc(t, Default(), tt.src), "sql.concat-query")
			require.Len(t, findings, tt.want)
			if tt.want > 0 {
				assert.Equal(t, tt.severity, findings[0].Severity)
				assert.Contains(t, findings[0].Message, tt.substr)
			}
		})
	}
}

func TestStringBuildAssembledStatement(t *testing.T) {
	src := `package main

func buildQuery(table, userFilter string) string {
	q := "SELECT id, name FROM " + table + " WHERE " + userFilter
	return q
}
`
	findings := analyzeSrc(t, Default(), src)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, "sql.string-build", f.RuleID)
	assert.Equal(t, model.SeverityMedium, f.Severity)
	assert.Equal(t, 4, f.Line)
	assert.InDelta(t, 0.75, f.Confidence, 1e-9)
	assert.Contains(t, f.Message, "parameterized")
}

func TestStringBuildIgnoresNonSQL(t *testing.T) {
	src := `package main

func greet(name string) string {
	msg := "hello " + name
	return msg
}
`
	assert.Empty(t, analyzeSrc(t, Default(), src))
}
