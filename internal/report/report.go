package report

import (
	"fmt"
	"io"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// Renderer turns one scan result into an output format. Renderers are
// stateless; the same instance may serve many results.
type Renderer interface {
	Render(w io.Writer, res *model.ScanResult) error
}

// For returns the renderer for a format name. colored only affects the
// text renderer.
func For(format string, colored bool) (Renderer, error) {
	switch format {
	case "text", "":
		return &Text{Color: colored}, nil
	case "json":
		return &JSON{}, nil
	case "markdown", "md":
		return &Markdown{}, nil
	case "html":
		return &HTML{}, nil
	case "pdf":
		return &PDF{}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// Formats lists the accepted --format values.
func Formats() []string {
	return []string{"text", "json", "markdown", "html", "pdf"}
}

// byFile groups findings per file, preserving their canonical order.
type fileGroup struct {
	Path     string
	Findings []model.Finding
}

func groupByFile(findings []model.Finding) []fileGroup {
	var groups []fileGroup
	for _, f := range findings {
		if n := len(groups); n == 0 || groups[n-1].Path != f.FilePath {
			groups = append(groups, fileGroup{Path: f.FilePath})
		}
		g := &groups[len(groups)-1]
		g.Findings = append(g.Findings, f)
	}
	return groups
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
