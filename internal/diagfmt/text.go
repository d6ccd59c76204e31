package diagfmt

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"

	"buildlens/internal/report"
)

const (
	ruleWidth           = 80
	defaultMessageWidth = 72
)

type textWriter struct {
	buf   bytes.Buffer
	opts  TextOpts
	sev   map[string]*color.Color
	title *color.Color
}

func newTextWriter(opts TextOpts) *textWriter {
	if opts.MessageWidth <= 0 {
		opts.MessageWidth = defaultMessageWidth
	}
	tw := &textWriter{
		opts: opts,
		sev: map[string]*color.Color{
			"error":   color.New(color.FgRed, color.Bold),
			"warning": color.New(color.FgYellow, color.Bold),
			"note":    color.New(color.FgCyan),
		},
		title: color.New(color.Bold),
	}
	for _, c := range tw.sev {
		tw.toggle(c)
	}
	tw.toggle(tw.title)
	return tw
}

func (w *textWriter) toggle(c *color.Color) {
	if w.opts.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
}

func (w *textWriter) printf(format string, args ...any) {
	fmt.Fprintf(&w.buf, format, args...)
}

func (w *textWriter) section(name string) {
	w.printf("\n%s\n%s\n", w.title.Sprint(name), strings.Repeat("-", runewidth.StringWidth(name)))
}

func (w *textWriter) severity(s string) string {
	if c, ok := w.sev[s]; ok {
		return c.Sprint(s)
	}
	return s
}

func (w *textWriter) table(header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(&w.buf)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	for _, r := range rows {
		t.AppendRow(r)
	}
	t.Render()
}

// cell shortens the first line of msg to the configured display width.
func (w *textWriter) cell(msg string) string {
	first, _, multi := strings.Cut(msg, "\n")
	if multi {
		first += " …"
	}
	return runewidth.Truncate(first, w.opts.MessageWidth, "…")
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}

// Text writes the plain-text rendering of r.
func Text(out io.Writer, r *report.AnalysisReport, opts TextOpts) error {
	w := newTextWriter(opts)

	rule := strings.Repeat("=", ruleWidth)
	w.printf("%s\n%s\n%s\n", rule, w.title.Sprint(r.Title), rule)
	w.printf("Status: %s\n", r.Status)
	if len(r.Sources) > 0 {
		w.printf("Analyzed the following logs:\n")
		for _, s := range r.Sources {
			if s.Error != "" {
				w.printf("  - %s: %s\n", s.Name, s.Error)
				continue
			}
			w.printf("  - %s (%d bytes, %d issues)\n", s.Name, s.Bytes, s.Issues)
		}
	}

	w.section("SUMMARY")
	w.printf("Found %d issues: %d errors, %d warnings, %d notes in %d files (%d unlocated).\n",
		r.Totals.Issues, r.Totals.Errors, r.Totals.Warnings, r.Totals.Notes, r.Totals.Files, r.Totals.Unlocated)
	rows := make([]table.Row, 0, len(r.BySeverity))
	for _, c := range r.BySeverity {
		rows = append(rows, table.Row{c.Name, c.Count})
	}
	w.table(table.Row{"Severity", "Count"}, rows)

	w.section("ISSUES BY CATEGORY")
	if len(r.ByCategory) == 0 {
		w.printf("(none)\n")
	} else {
		rows = rows[:0]
		for _, c := range r.ByCategory {
			rows = append(rows, table.Row{c.Name, c.Count})
		}
		w.table(table.Row{"Category", "Count"}, rows)
	}

	w.section("ISSUES BY FILE")
	if len(r.Files) == 0 {
		w.printf("(none)\n")
	}
	for _, f := range r.Files {
		w.printf("\nFILE: %s (%d issues, %d errors)\n", f.Path, len(f.Issues), f.Errors)
		rows = rows[:0]
		for _, e := range f.Issues {
			rows = append(rows, table.Row{e.ID, e.Line, e.Severity, e.Category, w.cell(e.Message)})
		}
		w.table(table.Row{"ID", "Line", "Severity", "Category", "Message"}, rows)
		for _, e := range f.Issues {
			w.issue(e)
		}
	}

	w.section("UNLOCATED ISSUES")
	if len(r.Unlocated) == 0 {
		w.printf("(none)\n")
	}
	for _, e := range r.Unlocated {
		w.issue(e)
	}

	w.section("RELATED ISSUES")
	if len(r.Groups) == 0 {
		w.printf("(none)\n")
	}
	for _, g := range r.Groups {
		w.printf("  %s (%s, %d issues): %s\n", g.ID, g.Kind, len(g.Members), strings.Join(g.Members, ", "))
	}

	w.section("FIXES")
	w.fixes(r)

	w.section("RECOMMENDED NEXT STEPS")
	for i, s := range r.NextSteps {
		w.printf("  %d. %s\n", i+1, s)
	}

	if r.Timings != nil {
		w.section("TIMINGS")
		rows = rows[:0]
		for _, p := range r.Timings.Phases {
			rows = append(rows, table.Row{p.Name, strconv.FormatFloat(p.DurationMS, 'f', 2, 64), p.Note})
		}
		rows = append(rows, table.Row{"total", strconv.FormatFloat(r.Timings.TotalMS, 'f', 2, 64), ""})
		w.table(table.Row{"Stage", "ms", "Note"}, rows)
	}

	_, err := out.Write(w.buf.Bytes())
	return err
}

func (w *textWriter) issue(e report.IssueEntry) {
	w.printf("  [%s] %s %s %s\n", e.ID, e.Location(), w.severity(e.Severity), e.Category)
	w.printf("%s\n", indent(e.Message, "    "))
	switch {
	case e.Fix != "":
		w.printf("    FIX: %s\n", e.Fix)
	case e.Reason != "":
		w.printf("    SUGGESTION: %s (%s)\n", e.Suggestion, e.Reason)
	default:
		w.printf("    SUGGESTION: %s\n", e.Suggestion)
	}
	if len(e.Groups) > 0 {
		w.printf("    GROUPS: %s\n", strings.Join(e.Groups, ", "))
	}
}

func (w *textWriter) fixes(r *report.AnalysisReport) {
	switch {
	case !r.Remediation.Ran:
		w.printf("Automatic remediation was not run.\n")
		return
	case len(r.Batches) == 0:
		w.printf("No automatic edits were possible.\n")
		return
	}
	state := "proposed"
	if r.Remediation.Written {
		state = "applied"
	}
	w.printf("%d edits %s in %d files.\n", r.Totals.Edits, state, len(r.Batches))

	var rows []table.Row
	for _, b := range r.Batches {
		for _, e := range b.Edits {
			lines := strconv.Itoa(e.Start)
			if e.End != e.Start {
				lines += "-" + strconv.Itoa(e.End)
			}
			rows = append(rows, table.Row{e.IssueID, b.Path, lines, e.Category, w.cell(e.Rationale)})
		}
	}
	w.table(table.Row{"Issue", "File", "Lines", "Category", "Rationale"}, rows)
	for _, b := range r.Batches {
		w.printf("\n%s", b.Diff)
	}
}
