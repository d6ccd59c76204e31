package diagfmt

import (
	"html/template"
	"io"
	"strings"

	"buildlens/internal/report"
)

var htmlFuncs = template.FuncMap{
	"join": strings.Join,
	"diffClass": func(line string) string {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
			return "hdr"
		case strings.HasPrefix(line, "+"):
			return "add"
		case strings.HasPrefix(line, "-"):
			return "del"
		}
		return "ctx"
	},
	"lines": func(s string) []string { return strings.Split(strings.TrimSuffix(s, "\n"), "\n") },
}

var htmlTemplate = template.Must(template.New("report").Funcs(htmlFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem; color: #1f2328; }
h1 { border-bottom: 2px solid #d0d7de; padding-bottom: .3rem; }
h2 { margin-top: 2rem; border-bottom: 1px solid #d0d7de; }
table { border-collapse: collapse; margin: .5rem 0; }
th, td { border: 1px solid #d0d7de; padding: .25rem .6rem; text-align: left; vertical-align: top; }
th { background: #f6f8fa; }
.status { font-weight: bold; }
.error { color: #cf222e; font-weight: bold; }
.warning { color: #9a6700; font-weight: bold; }
.note { color: #0969da; }
.issue { margin: .6rem 0 .6rem 1rem; }
.msg { white-space: pre-wrap; font-family: ui-monospace, Menlo, monospace; margin: .2rem 0; }
.fix { color: #1a7f37; }
.suggestion { color: #57606a; }
pre.diff { background: #f6f8fa; padding: .5rem; overflow-x: auto; }
pre.diff .add { color: #1a7f37; }
pre.diff .del { color: #cf222e; }
pre.diff .hdr { color: #8250df; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="status">Status: {{.Status}}</p>
{{- if .Sources}}
<ul class="sources">
{{- range .Sources}}
<li>{{.Name}}{{if .Error}}: <span class="error">{{.Error}}</span>{{else}} ({{.Bytes}} bytes, {{.Issues}} issues){{end}}</li>
{{- end}}
</ul>
{{- end}}

<h2>Summary</h2>
<p>Found {{.Totals.Issues}} issues: {{.Totals.Errors}} errors, {{.Totals.Warnings}} warnings, {{.Totals.Notes}} notes in {{.Totals.Files}} files ({{.Totals.Unlocated}} unlocated).</p>
<table>
<tr><th>Severity</th><th>Count</th></tr>
{{- range .BySeverity}}
<tr><td class="{{.Name}}">{{.Name}}</td><td>{{.Count}}</td></tr>
{{- end}}
</table>

<h2>Issues by category</h2>
{{- if .ByCategory}}
<table>
<tr><th>Category</th><th>Count</th></tr>
{{- range .ByCategory}}
<tr><td>{{.Name}}</td><td>{{.Count}}</td></tr>
{{- end}}
</table>
{{- else}}
<p>(none)</p>
{{- end}}

<h2>Issues by file</h2>
{{- range .Files}}
<h3 id="file-{{.Path}}">{{.Path}} ({{len .Issues}} issues, {{.Errors}} errors)</h3>
{{- range .Issues}}{{template "issue" .}}{{end}}
{{- else}}
<p>(none)</p>
{{- end}}

<h2>Unlocated issues</h2>
{{- range .Unlocated}}{{template "issue" .}}{{else}}
<p>(none)</p>
{{- end}}

<h2>Related issues</h2>
{{- if .Groups}}
<table>
<tr><th>Group</th><th>Kind</th><th>Members</th></tr>
{{- range .Groups}}
<tr><td>{{.ID}}</td><td>{{.Kind}}</td><td>{{join .Members ", "}}</td></tr>
{{- end}}
</table>
{{- else}}
<p>(none)</p>
{{- end}}

<h2>Fixes</h2>
{{- if not .Remediation.Ran}}
<p>Automatic remediation was not run.</p>
{{- else if not .Batches}}
<p>No automatic edits were possible.</p>
{{- else}}
<p>{{.Totals.Edits}} edits {{if .Remediation.Written}}applied{{else}}proposed{{end}} in {{len .Batches}} files.</p>
<table>
<tr><th>Issue</th><th>File</th><th>Lines</th><th>Category</th><th>Rationale</th></tr>
{{- range $b := .Batches}}{{range .Edits}}
<tr><td>{{.IssueID}}</td><td>{{$b.Path}}</td><td>{{.Start}}{{if ne .End .Start}}-{{.End}}{{end}}</td><td>{{.Category}}</td><td>{{.Rationale}}</td></tr>
{{- end}}{{end}}
</table>
{{- range .Batches}}
<pre class="diff">{{range lines .Diff}}<span class="{{diffClass .}}">{{.}}</span>
{{end}}</pre>
{{- end}}
{{- end}}

<h2>Recommended next steps</h2>
<ol>
{{- range .NextSteps}}
<li>{{.}}</li>
{{- end}}
</ol>
{{- with .Timings}}

<h2>Timings</h2>
<table>
<tr><th>Stage</th><th>ms</th><th>Note</th></tr>
{{- range .Phases}}
<tr><td>{{.Name}}</td><td>{{printf "%.2f" .DurationMS}}</td><td>{{.Note}}</td></tr>
{{- end}}
<tr><td>total</td><td>{{printf "%.2f" .TotalMS}}</td><td></td></tr>
</table>
{{- end}}
</body>
</html>
{{define "issue"}}
<div class="issue" id="{{.ID}}">
<div><strong>[{{.ID}}]</strong> {{.Location}} <span class="{{.Severity}}">{{.Severity}}</span> {{.Category}}</div>
<div class="msg">{{.Message}}</div>
{{- if .Fix}}
<div class="fix">Fix: {{.Fix}}</div>
{{- else}}
<div class="suggestion">Suggestion: {{.Suggestion}}{{if .Reason}} ({{.Reason}}){{end}}</div>
{{- end}}
{{- if .Groups}}
<div class="groups">Groups: {{join .Groups ", "}}</div>
{{- end}}
</div>
{{- end}}
`))

// HTML writes a self-contained HTML document for r. All report text is escaped.
func HTML(out io.Writer, r *report.AnalysisReport) error {
	return htmlTemplate.Execute(out, r)
}
