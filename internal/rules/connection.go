package rules

import (
	"go/ast"
	"regexp"
	"strings"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

var connectSuffixes = []string{"Open", "Connect", "Dial"}

func isConnectCall(name string) bool {
	name = strings.TrimSuffix(name, "Context")
	for _, suf := range connectSuffixes {
		if strings.HasSuffix(name, suf) {
			return true
		}
	}
	return false
}

var (
	emptyPasswordKV = regexp.MustCompile(`(?i)password\s*=\s*(?:$|[;&\s])`)
	defaultPorts    = []string{":3306", ":5432", ":1433", ":27017", ":6379"}
)

// insecureDSNRule inspects string literals handed to connect-style calls
// for insecure defaults: disabled TLS, empty credentials, well-known
// default ports, in-memory databases.
type insecureDSNRule struct{}

func (insecureDSNRule) ID() string               { return "connection.insecure-dsn" }
func (insecureDSNRule) Category() model.Category { return model.CategoryConnection }
func (insecureDSNRule) Severity() model.Severity { return model.SeverityHigh }

func (r insecureDSNRule) Match(n ast.Node, ctx *Context) []model.Finding {
	call, ok := n.(*ast.CallExpr)
	if !ok {
		return nil
	}
	_, name := calleeParts(call)
	if !isConnectCall(name) {
		return nil
	}
	for _, arg := range call.Args {
		dsn, ok := stringLit(arg)
		if !ok {
			continue
		}
		if sev, conf, msg, found := inspectDSN(dsn); found {
			return []model.Finding{ctx.NewFinding(r, call, sev, conf, msg)}
		}
	}
	return nil
}

// inspectDSN classifies the worst defect in a connection string.
// Ordered by severity so only the most serious one is reported.
func inspectDSN(dsn string) (model.Severity, float64, string, bool) {
	low := strings.ToLower(dsn)

	switch {
	case strings.Contains(low, "sslmode=disable"),
		strings.Contains(low, "tls=false"),
		strings.Contains(low, "ssl=false"):
		return model.SeverityHigh, 0.9, "connection string disables transport encryption", true
	}

	if strings.Contains(low, ":@") ||
		strings.Contains(low, `password=""`) ||
		strings.Contains(low, "password=''") ||
		emptyPasswordKV.MatchString(dsn) ||
		bareUserMySQL(low) {
		return model.SeverityMedium, 0.8, "connection string carries an empty password", true
	}

	for _, port := range defaultPorts {
		if strings.Contains(low, port) {
			return model.SeverityLow, 0.5, "connection string uses a well-known default port", true
		}
	}

	if strings.Contains(low, ":memory:") {
		return model.SeverityLow, 0.6, "in-memory database, data is lost on process exit", true
	}

	return "", 0, "", false
}

// bareUserMySQL detects the user@tcp(...) DSN form with no password
// between user and host.
func bareUserMySQL(low string) bool {
	at := strings.Index(low, "@tcp(")
	if at <= 0 {
		return false
	}
	return !strings.Contains(low[:at], ":")
}
