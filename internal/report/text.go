package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// Lipgloss styles per severity level.
var (
	styleHigh    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleMedium  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	styleLow     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	styleInfo    = lipgloss.NewStyle().Faint(true)
	styleFile    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	styleSnippet = lipgloss.NewStyle().Faint(true)
)

// Text renders a severity-colored terminal report. With Color false the
// same layout is emitted without escape sequences, for pipes and files.
type Text struct {
	Color bool
}

func (t *Text) severityLabel(sev model.Severity) string {
	label := fmt.Sprintf("[%-6s]", sev)
	if !t.Color {
		return label
	}
	switch sev {
	case model.SeverityHigh:
		return styleHigh.Render(label)
	case model.SeverityMedium:
		return styleMedium.Render(label)
	case model.SeverityLow:
		return styleLow.Render(label)
	case model.SeverityInfo:
		return styleInfo.Render(label)
	}
	return label
}

func (t *Text) Render(w io.Writer, res *model.ScanResult) error {
	var b strings.Builder

	if res.Summary.Total == 0 {
		b.WriteString("No findings.\n")
	}

	for _, group := range groupByFile(res.Findings) {
		path := group.Path
		if t.Color {
			path = styleFile.Render(path)
		}
		b.WriteString(path + "\n")
		for _, f := range group.Findings {
			b.WriteString(fmt.Sprintf("  %s %d:%d  %s (%s, confidence %.2f)\n",
				t.severityLabel(f.Severity), f.Line, f.Column, f.Message, f.RuleID, f.Confidence))
			if f.Snippet != "" {
				snippet := "    " + truncate(f.Snippet, 120)
				if t.Color {
					snippet = styleSnippet.Render(snippet)
				}
				b.WriteString(snippet + "\n")
			}
		}
		b.WriteString("\n")
	}

	for _, e := range res.Errors {
		b.WriteString(fmt.Sprintf("  error: %s (%s): %s\n", e.Path, e.Stage, e.Err))
	}
	if len(res.Errors) > 0 {
		b.WriteString("\n")
	}

	var parts []string
	for _, sev := range model.Severities() {
		if c := res.Summary.Count(sev); c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, strings.ToLower(string(sev))))
		}
	}
	summary := fmt.Sprintf("%d finding(s) in %d file(s)", res.Summary.Total, res.FilesScanned)
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	b.WriteString(summary + "\n")
	b.WriteString(fmt.Sprintf("scanned in %s, cache %d hit(s) / %d miss(es)\n",
		res.Duration.Round(time.Millisecond), res.CacheHits, res.CacheMisses))

	_, err := io.WriteString(w, b.String())
	return err
}
