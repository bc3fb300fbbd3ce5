package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/signintech/gopdf"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// Candidate TTF locations, tried in order. DBSEC_PDF_FONT overrides.
var fontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"C:\\Windows\\Fonts\\arial.ttf",
}

func findFont() (string, error) {
	if p := os.Getenv("DBSEC_PDF_FONT"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("DBSEC_PDF_FONT %q not readable", p)
	}
	for _, p := range fontPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no usable TTF font found; set DBSEC_PDF_FONT")
}

// PDF renders the scan result as an A4 document. It needs a TTF font on
// the host since PDF output embeds the glyphs it uses.
type PDF struct{}

const (
	pdfMarginX   = 40.0
	pdfMarginY   = 40.0
	pdfLineStep  = 14.0
	pdfPageLimit = 800.0
)

type pdfWriter struct {
	doc *gopdf.GoPdf
	y   float64
}

func (p *pdfWriter) line(size float64, text string) error {
	if p.y > pdfPageLimit {
		p.doc.AddPage()
		p.y = pdfMarginY
	}
	if err := p.doc.SetFontSize(size); err != nil {
		return err
	}
	p.doc.SetXY(pdfMarginX, p.y)
	if err := p.doc.Cell(nil, text); err != nil {
		return err
	}
	p.y += pdfLineStep * (size / 11.0)
	return nil
}

func (p *pdfWriter) gap(h float64) {
	p.y += h
}

func (PDF) Render(w io.Writer, res *model.ScanResult) error {
	fontPath, err := findFont()
	if err != nil {
		return err
	}

	doc := &gopdf.GoPdf{}
	doc.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	doc.AddPage()
	if err := doc.AddTTFFont("body", fontPath); err != nil {
		return fmt.Errorf("loading font: %w", err)
	}
	if err := doc.SetFont("body", "", 11); err != nil {
		return fmt.Errorf("selecting font: %w", err)
	}

	pw := &pdfWriter{doc: doc, y: pdfMarginY}

	if err := pw.line(16, "Database Security Scan Report"); err != nil {
		return err
	}
	pw.gap(4)
	meta := fmt.Sprintf("Generated %s · run %s · %d file(s) in %s",
		time.Now().Format("2006-01-02 15:04"), res.RunID, res.FilesScanned,
		res.Duration.Round(time.Millisecond))
	if err := pw.line(9, meta); err != nil {
		return err
	}
	pw.gap(10)

	if err := pw.line(13, "Summary"); err != nil {
		return err
	}
	for _, sev := range model.Severities() {
		if err := pw.line(11, fmt.Sprintf("  %-8s %d", sev, res.Summary.Count(sev))); err != nil {
			return err
		}
	}
	pw.gap(10)

	if res.Summary.Total > 0 {
		if err := pw.line(13, "Findings"); err != nil {
			return err
		}
		for _, group := range groupByFile(res.Findings) {
			pw.gap(4)
			if err := pw.line(11, group.Path); err != nil {
				return err
			}
			for _, f := range group.Findings {
				row := fmt.Sprintf("  %d:%d  [%s]  %s (%s)", f.Line, f.Column, f.Severity,
					truncate(f.Message, 90), f.RuleID)
				if err := pw.line(9, row); err != nil {
					return err
				}
			}
		}
	}

	if len(res.Errors) > 0 {
		pw.gap(10)
		if err := pw.line(13, "File Errors"); err != nil {
			return err
		}
		for _, e := range res.Errors {
			if err := pw.line(9, fmt.Sprintf("  %s (%s): %s", e.Path, e.Stage, truncate(e.Err, 80))); err != nil {
				return err
			}
		}
	}

	_, err = doc.WriteTo(w)
	return err
}
