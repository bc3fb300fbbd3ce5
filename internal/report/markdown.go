package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// Markdown renders a report suitable for commit comments and wikis:
// summary table, per-file finding sections, error appendix.
type Markdown struct{}

func (Markdown) Render(w io.Writer, res *model.ScanResult) error {
	var b strings.Builder

	// Title
	b.WriteString("# Database Security Scan Report\n\n")
	b.WriteString(fmt.Sprintf("**Generated:** %s  \n", time.Now().Format("January 2, 2006 15:04:05 MST")))
	b.WriteString(fmt.Sprintf("**Run:** `%s`  \n", res.RunID))
	b.WriteString(fmt.Sprintf("**Files scanned:** %d  \n\n", res.FilesScanned))

	// Executive Summary
	b.WriteString("## Summary\n\n")
	b.WriteString(fmt.Sprintf("A total of %d finding(s) were recorded across %d file(s), with %d file error(s).\n\n",
		res.Summary.Total, res.FilesScanned, len(res.Errors)))

	b.WriteString("| Severity | Count |\n")
	b.WriteString("|---|---|\n")
	for _, sev := range model.Severities() {
		b.WriteString(fmt.Sprintf("| %s | %d |\n", sev, res.Summary.Count(sev)))
	}
	b.WriteString("\n")

	// Findings grouped by file
	if res.Summary.Total > 0 {
		b.WriteString("## Findings\n\n")
		for _, group := range groupByFile(res.Findings) {
			b.WriteString(fmt.Sprintf("### `%s`\n\n", group.Path))
			b.WriteString("| Line | Severity | Rule | Message |\n")
			b.WriteString("|---|---|---|---|\n")
			for _, f := range group.Findings {
				msg := strings.ReplaceAll(truncate(f.Message, 100), "|", "\\|")
				b.WriteString(fmt.Sprintf("| %d:%d | %s | `%s` | %s |\n",
					f.Line, f.Column, f.Severity, f.RuleID, msg))
			}
			b.WriteString("\n")
		}
	}

	// Error appendix
	if len(res.Errors) > 0 {
		b.WriteString("## Appendix: File Errors\n\n")
		for _, e := range res.Errors {
			b.WriteString(fmt.Sprintf("- `%s` (%s): %s\n", e.Path, e.Stage, e.Err))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("Scan completed in %s with %d worker(s), cache %d/%d hit/miss.\n",
		res.Duration.Round(time.Millisecond), res.Workers, res.CacheHits, res.CacheMisses))

	_, err := io.WriteString(w, b.String())
	return err
}
