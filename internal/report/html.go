package report

import (
	"html/template"
	"io"
	"time"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// HTML renders a self-contained page with no external assets.
type HTML struct{}

var htmlTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Database Security Scan Report</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem auto; max-width: 60rem; color: #1c2733; }
h1 { border-bottom: 2px solid #e3e8ee; padding-bottom: .4rem; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #e3e8ee; }
code { background: #f4f6f8; padding: .1rem .3rem; border-radius: 3px; font-size: .9em; }
.badge { display: inline-block; padding: .1rem .5rem; border-radius: 3px; color: #fff; font-size: .8em; font-weight: 600; }
.badge.HIGH { background: #c0392b; }
.badge.MEDIUM { background: #d68910; }
.badge.LOW { background: #2471a3; }
.badge.INFO { background: #7f8c8d; }
.meta { color: #5d6d7e; font-size: .9em; }
.errors { background: #fdf2f2; border: 1px solid #f5c6cb; padding: .6rem 1rem; border-radius: 4px; }
</style>
</head>
<body>
<h1>Database Security Scan Report</h1>
<p class="meta">Generated {{.Generated}} · run <code>{{.Result.RunID}}</code> · {{.Result.FilesScanned}} file(s) in {{.Duration}}</p>

<h2>Summary</h2>
<table>
<tr><th>Severity</th><th>Count</th></tr>
{{range .Severities}}<tr><td><span class="badge {{.Sev}}">{{.Sev}}</span></td><td>{{.Count}}</td></tr>
{{end}}</table>

{{if .Groups}}<h2>Findings</h2>
{{range .Groups}}<h3><code>{{.Path}}</code></h3>
<table>
<tr><th>Location</th><th>Severity</th><th>Rule</th><th>Message</th><th>Confidence</th></tr>
{{range .Findings}}<tr>
<td>{{.Line}}:{{.Column}}</td>
<td><span class="badge {{.Severity}}">{{.Severity}}</span></td>
<td><code>{{.RuleID}}</code></td>
<td>{{.Message}}</td>
<td>{{printf "%.2f" .Confidence}}</td>
</tr>
{{end}}</table>
{{end}}{{else}}<p>No findings.</p>
{{end}}
{{if .Result.Errors}}<h2>File Errors</h2>
<div class="errors"><ul>
{{range .Result.Errors}}<li><code>{{.Path}}</code> ({{.Stage}}): {{.Err}}</li>
{{end}}</ul></div>
{{end}}</body>
</html>
`))

type htmlData struct {
	Result     *model.ScanResult
	Generated  string
	Duration   string
	Groups     []fileGroup
	Severities []severityCount
}

type severityCount struct {
	Sev   model.Severity
	Count int
}

func (HTML) Render(w io.Writer, res *model.ScanResult) error {
	data := htmlData{
		Result:    res,
		Generated: time.Now().Format("2006-01-02 15:04:05 MST"),
		Duration:  res.Duration.Round(time.Millisecond).String(),
		Groups:    groupByFile(res.Findings),
	}
	for _, sev := range model.Severities() {
		data.Severities = append(data.Severities, severityCount{sev, res.Summary.Count(sev)})
	}
	return htmlTmpl.Execute(w, data)
}
