package rules

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// enginePattern is one keyword rule for a specific database engine.
// Patterns are ordered most severe first; a literal reports only its
// worst match.
type enginePattern struct {
	severity   model.Severity
	confidence float64
	message    string
	match      func(low string) bool
}

func containsAll(subs ...string) func(string) bool {
	return func(low string) bool {
		for _, s := range subs {
			if !strings.Contains(low, s) {
				return false
			}
		}
		return true
	}
}

func containsAny(subs ...string) func(string) bool {
	return func(low string) bool {
		for _, s := range subs {
			if strings.Contains(low, s) {
				return true
			}
		}
		return false
	}
}

// engineRule applies one engine's keyword table to string literals.
type engineRule struct {
	id       string
	patterns []enginePattern
}

func (r *engineRule) ID() string               { return r.id }
func (r *engineRule) Category() model.Category { return model.CategoryDBSpecific }
func (r *engineRule) Severity() model.Severity { return r.patterns[0].severity }

func (r *engineRule) Match(n ast.Node, ctx *Context) []model.Finding {
	lit, ok := n.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return nil
	}
	val, ok := stringLit(lit)
	if !ok || ctx.inDeclContext() {
		return nil
	}
	low := strings.ToLower(val)
	for _, p := range r.patterns {
		if p.match(low) {
			return []model.Finding{ctx.NewFinding(r, lit, p.severity, p.confidence, p.message)}
		}
	}
	return nil
}

func engineRules() []Rule {
	return []Rule{
		&engineRule{id: "db.postgres", patterns: []enginePattern{
			{model.SeverityHigh, 0.8, "postgres bulk COPY FROM can read arbitrary server files", containsAll("copy ", " from ")},
			{model.SeverityMedium, 0.6, "postgres superuser account referenced", containsAny("user=postgres", "://postgres:", "user postgres")},
			{model.SeverityLow, 0.5, "postgres default port 5432 referenced", containsAny(":5432")},
		}},
		&engineRule{id: "db.mysql", patterns: []enginePattern{
			{model.SeverityHigh, 0.8, "mysql LOAD DATA INFILE can read arbitrary server files", containsAll("load data", "infile")},
			{model.SeverityMedium, 0.6, "mysql root account referenced", containsAny("user=root", "://root:", "root@")},
			{model.SeverityLow, 0.5, "mysql default port 3306 referenced", containsAny(":3306")},
		}},
		&engineRule{id: "db.mssql", patterns: []enginePattern{
			{model.SeverityHigh, 0.85, "sql server xp_cmdshell enables OS command execution", containsAny("xp_cmdshell")},
			{model.SeverityMedium, 0.6, "sql server sa account referenced", containsAny("user id=sa;", "uid=sa;", "://sa:")},
			{model.SeverityLow, 0.5, "sql server default port 1433 referenced", containsAny(":1433")},
		}},
		&engineRule{id: "db.mongodb", patterns: []enginePattern{
			{model.SeverityHigh, 0.8, "mongodb server-side javascript evaluation", containsAny("db.eval", "$eval")},
			{model.SeverityMedium, 0.7, "mongodb $where runs javascript per document", containsAny("$where")},
			{model.SeverityLow, 0.5, "mongodb default port 27017 referenced", containsAny(":27017")},
		}},
		&engineRule{id: "db.sqlite", patterns: []enginePattern{
			{model.SeverityMedium, 0.7, "sqlite database file in a world-writable temp directory", tempDBPath},
		}},
	}
}

// tempDBPath matches database file paths placed under a temp directory.
func tempDBPath(low string) bool {
	if !strings.Contains(low, "/tmp/") && !strings.HasPrefix(low, "/var/tmp/") {
		return false
	}
	for _, suf := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(low, suf) {
			return true
		}
	}
	return false
}
