package rules

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

func TestEngineKeywords(t *testing.T) {
	tests := []struct {
		name     string
		literal  string
		rule     string
		severity model.Severity
	}{
		{"postgres copy from", "COPY audit FROM '/etc/passwd'", "db.postgres", model.SeverityHigh},
		{"postgres superuser", "user=postgres dbname=app", "db.postgres", model.SeverityMedium},
		{"postgres default port", "10.0.0.12:5432", "db.postgres", model.SeverityLow},
		{"mysql load data infile", "LOAD DATA INFILE '/var/lib/mysql-files/in.csv' INTO TABLE t", "db.mysql", model.SeverityHigh},
		{"mysql root account", "user=root&parseTime=true", "db.mysql", model.SeverityMedium},
		{"mssql xp_cmdshell", "EXEC xp_cmdshell 'dir'", "db.mssql", model.SeverityHigh},
		{"mssql sa account", "server=db;user id=sa;password=x1", "db.mssql", model.SeverityMedium},
		{"mongodb eval", "db.eval('return 1')", "db.mongodb", model.SeverityHigh},
		{"mongodb where clause", "{$where: 'this.a > 1'}", "db.mongodb", model.SeverityMedium},
		{"mongodb default port", "mongodb://db.internal:27017/events", "db.mongodb", model.SeverityLow},
		{"sqlite temp path", "/tmp/app-cache.db", "db.sqlite", model.SeverityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fmt.Sprintf("package main\n\nvar probe = %q\n", tt.literal)
			findings := byRule(analyzeSrc(t, Default(), src), tt.rule)
			require.Len(t, findings, 1)

			f := findings[0]
			assert.Equal(t, tt.severity, f.Severity)
			assert.Equal(t, model.CategoryDBSpecific, f.Category)
			assert.Equal(t, 3, f.Line)
		})
	}
}

func TestEngineWorstMatchWins(t *testing.T) {
	src := "package main\n\nvar probe = \"COPY t FROM stdin -- :5432\"\n"
	findings := byRule(analyzeSrc(t, Default(), src), "db.postgres")
	require.Len(t, findings, 1)
	assert.Equal(t, model.SeverityHigh, findings[0].Severity)
}

func TestEngineIgnoresImportPaths(t *testing.T) {
	src := `package main

import _ "example.com/driver/xp_cmdshell"
`
	assert.Empty(t, analyzeSrc(t, Default(), src))
}

func TestEngineCleanLiteral(t *testing.T) {
	src := "package main\n\nvar probe = \"orders by region, newest first\"\n"
	assert.Empty(t, analyzeSrc(t, Default(), src))
}
