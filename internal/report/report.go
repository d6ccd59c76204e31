// Package report folds the results of one analysis run into an immutable
// AnalysisReport. Every renderer in diagfmt reads the same value.
package report

import (
	"fmt"
	"sort"

	"buildlens/internal/classify"
	"buildlens/internal/correlate"
	"buildlens/internal/diag"
	"buildlens/internal/fix"
	"buildlens/internal/observ"
	"buildlens/internal/parser"
)

// SchemaVersion is bumped whenever the record layout changes.
const SchemaVersion = 1

// DefaultTitle heads every rendering unless configured otherwise.
const DefaultTitle = "BUILD ERROR ANALYSIS REPORT"

// Status is the overall outcome of a run.
type Status string

const (
	StatusNoIssues    Status = "success-no-issues"
	StatusIssuesFound Status = "success-issues-found"
	StatusUnreadable  Status = "failure-unreadable-input"
)

// Input is everything Build folds. Nothing in it is modified.
type Input struct {
	Title   string
	Sources []parser.SourceResult
	// Issues are classified, sorted and carry IDs.
	Issues []diag.Issue
	Groups []correlate.Group
	// Fixes is nil when remediation did not run.
	Fixes *fix.Result
	// Written tells whether the edit batches were written back.
	Written bool
	// Timings is included only when requested; it makes output non-deterministic.
	Timings *observ.Report
}

// AnalysisReport is the snapshot of one run. It contains no maps so that
// every encoding of it is deterministic.
type AnalysisReport struct {
	SchemaVersion int             `json:"schema_version" msgpack:"schema_version"`
	Title         string          `json:"title" msgpack:"title"`
	Status        Status          `json:"status" msgpack:"status"`
	Totals        Totals          `json:"totals" msgpack:"totals"`
	BySeverity    []Count         `json:"by_severity" msgpack:"by_severity"`
	ByCategory    []Count         `json:"by_category" msgpack:"by_category"`
	Sources       []SourceEntry   `json:"sources" msgpack:"sources"`
	Files         []FileEntry     `json:"files" msgpack:"files"`
	Unlocated     []IssueEntry    `json:"unlocated" msgpack:"unlocated"`
	Groups        []GroupEntry    `json:"groups" msgpack:"groups"`
	Batches       []BatchEntry    `json:"batches" msgpack:"batches"`
	NextSteps     []string        `json:"next_steps" msgpack:"next_steps"`
	Timings       *observ.Report  `json:"timings,omitempty" msgpack:"timings,omitempty"`
	Remediation   RemediationInfo `json:"remediation" msgpack:"remediation"`
}

// Totals are the headline numbers.
type Totals struct {
	Issues      int `json:"issues" msgpack:"issues"`
	Errors      int `json:"errors" msgpack:"errors"`
	Warnings    int `json:"warnings" msgpack:"warnings"`
	Notes       int `json:"notes" msgpack:"notes"`
	Files       int `json:"files" msgpack:"files"`
	Unlocated   int `json:"unlocated" msgpack:"unlocated"`
	Groups      int `json:"groups" msgpack:"groups"`
	Edits       int `json:"edits" msgpack:"edits"`
	Suggestions int `json:"suggestions" msgpack:"suggestions"`
}

// Count is one row of a breakdown table.
type Count struct {
	Name  string `json:"name" msgpack:"name"`
	Count int    `json:"count" msgpack:"count"`
}

// RemediationInfo tells whether and how fixes were computed.
type RemediationInfo struct {
	Ran     bool `json:"ran" msgpack:"ran"`
	Written bool `json:"written" msgpack:"written"`
}

// SourceEntry summarizes one log source.
type SourceEntry struct {
	Name              string `json:"name" msgpack:"name"`
	Bytes             int    `json:"bytes" msgpack:"bytes"`
	Issues            int    `json:"issues" msgpack:"issues"`
	LooksLikeBuildLog bool   `json:"looks_like_build_log" msgpack:"looks_like_build_log"`
	Error             string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// IssueEntry is one issue with its resolution.
type IssueEntry struct {
	ID       string          `json:"id" msgpack:"id"`
	File     string          `json:"file,omitempty" msgpack:"file,omitempty"`
	Line     int             `json:"line,omitempty" msgpack:"line,omitempty"`
	Column   int             `json:"column,omitempty" msgpack:"column,omitempty"`
	Severity string          `json:"severity" msgpack:"severity"`
	Shape    string          `json:"shape" msgpack:"shape"`
	Category string          `json:"category" msgpack:"category"`
	Message  string          `json:"message" msgpack:"message"`
	Snippets []string        `json:"snippets,omitempty" msgpack:"snippets,omitempty"`
	Params   classify.Params `json:"params" msgpack:"params"`
	Source   string          `json:"source" msgpack:"source"`
	Groups   []string        `json:"groups,omitempty" msgpack:"groups,omitempty"`
	// Fix is the description of the applied edit; empty when Suggestion is set.
	Fix        string `json:"fix,omitempty" msgpack:"fix,omitempty"`
	Suggestion string `json:"suggestion,omitempty" msgpack:"suggestion,omitempty"`
	Reason     string `json:"reason,omitempty" msgpack:"reason,omitempty"`
}

// Location returns "file:line:col" or "-" for unlocated issues.
func (e IssueEntry) Location() string {
	if e.File == "" {
		return "-"
	}
	return fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column)
}

// Resolution returns the fix description or, failing that, the suggestion.
func (e IssueEntry) Resolution() string {
	if e.Fix != "" {
		return e.Fix
	}
	return e.Suggestion
}

// FileEntry is the issues of one file sorted by line.
type FileEntry struct {
	Path   string       `json:"path" msgpack:"path"`
	Errors int          `json:"errors" msgpack:"errors"`
	Issues []IssueEntry `json:"issues" msgpack:"issues"`
}

// GroupEntry mirrors correlate.Group.
type GroupEntry struct {
	ID       string   `json:"id" msgpack:"id"`
	Kind     string   `json:"kind" msgpack:"kind"`
	File     string   `json:"file,omitempty" msgpack:"file,omitempty"`
	Category string   `json:"category,omitempty" msgpack:"category,omitempty"`
	Members  []string `json:"members" msgpack:"members"`
}

// EditEntry is one applied edit operation.
type EditEntry struct {
	IssueID   string `json:"issue_id" msgpack:"issue_id"`
	Category  string `json:"category" msgpack:"category"`
	Start     int    `json:"start" msgpack:"start"`
	End       int    `json:"end" msgpack:"end"`
	Rationale string `json:"rationale" msgpack:"rationale"`
}

// BatchEntry is the edits made to one file.
type BatchEntry struct {
	File  string      `json:"file" msgpack:"file"`
	Path  string      `json:"path" msgpack:"path"`
	Edits []EditEntry `json:"edits" msgpack:"edits"`
	Diff  string      `json:"diff" msgpack:"diff"`
}

// SelectStatus picks the run status from the parser view.
// No readable source at all, including no source, is a failure.
func SelectStatus(sources []parser.SourceResult, issues int) Status {
	readable := 0
	for _, s := range sources {
		if s.Err == nil {
			readable++
		}
	}
	switch {
	case readable == 0:
		return StatusUnreadable
	case issues == 0:
		return StatusNoIssues
	}
	return StatusIssuesFound
}

// Build folds in into a report.
func Build(in Input) *AnalysisReport {
	r := &AnalysisReport{
		SchemaVersion: SchemaVersion,
		Title:         in.Title,
		Status:        SelectStatus(in.Sources, len(in.Issues)),
		Timings:       in.Timings,
		Remediation:   RemediationInfo{Ran: in.Fixes != nil, Written: in.Fixes != nil && in.Written},
	}
	if r.Title == "" {
		r.Title = DefaultTitle
	}

	r.Sources = sourceEntries(in.Sources)
	r.Groups = groupEntries(in.Groups)
	membership := correlate.Membership(in.Groups)

	fixes := map[string]string{}
	suggestions := map[string]fix.Suggestion{}
	if in.Fixes != nil {
		fixes = in.Fixes.Fixes()
		for _, s := range in.Fixes.Suggestions {
			suggestions[s.IssueID] = s
		}
		r.Batches = batchEntries(in.Fixes.Batches)
	}

	var sevCounts [3]int
	var catCounts [diag.CategoryCount]int
	byFile := map[string]*FileEntry{}
	for _, is := range in.Issues {
		e := issueEntry(is, membership[is.ID], fixes, suggestions)
		sevCounts[is.Severity]++
		catCounts[is.Category]++
		if e.Fix != "" {
			r.Totals.Edits++
		} else {
			r.Totals.Suggestions++
		}
		if !is.Located() {
			r.Unlocated = append(r.Unlocated, e)
			continue
		}
		fe, ok := byFile[is.Loc.File]
		if !ok {
			fe = &FileEntry{Path: is.Loc.File}
			byFile[is.Loc.File] = fe
		}
		if is.Severity == diag.SevError {
			fe.Errors++
		}
		fe.Issues = append(fe.Issues, e)
	}

	r.Files = make([]FileEntry, 0, len(byFile))
	for _, fe := range byFile {
		sort.SliceStable(fe.Issues, func(i, j int) bool {
			a, b := fe.Issues[i], fe.Issues[j]
			if a.Line != b.Line {
				return a.Line < b.Line
			}
			if a.Column != b.Column {
				return a.Column < b.Column
			}
			return a.ID < b.ID
		})
		r.Files = append(r.Files, *fe)
	}
	sort.Slice(r.Files, func(i, j int) bool { return r.Files[i].Path < r.Files[j].Path })

	for _, sev := range diag.Severities() {
		r.BySeverity = append(r.BySeverity, Count{Name: sev.String(), Count: sevCounts[sev]})
	}
	for _, c := range diag.Categories() {
		if catCounts[c] > 0 {
			r.ByCategory = append(r.ByCategory, Count{Name: c.String(), Count: catCounts[c]})
		}
	}
	// по убыванию количества, при равенстве порядок таксономии
	sort.SliceStable(r.ByCategory, func(i, j int) bool { return r.ByCategory[i].Count > r.ByCategory[j].Count })

	r.Totals.Issues = len(in.Issues)
	r.Totals.Errors = sevCounts[diag.SevError]
	r.Totals.Warnings = sevCounts[diag.SevWarning]
	r.Totals.Notes = sevCounts[diag.SevNote]
	r.Totals.Files = len(r.Files)
	r.Totals.Unlocated = len(r.Unlocated)
	r.Totals.Groups = len(r.Groups)

	r.NextSteps = nextSteps(r)
	return r
}

func issueEntry(is diag.Issue, groups []string, fixes map[string]string, suggestions map[string]fix.Suggestion) IssueEntry {
	params := classify.Extract(is.Category, is.Message)
	e := IssueEntry{
		ID:       is.ID,
		File:     is.Loc.File,
		Line:     is.Loc.Line,
		Column:   is.Loc.Column,
		Severity: is.Severity.String(),
		Shape:    is.Shape.String(),
		Category: is.Category.String(),
		Message:  is.Message,
		Snippets: is.Snippets,
		Params:   params,
		Source:   is.Source,
		Groups:   groups,
	}
	if desc, ok := fixes[is.ID]; ok {
		e.Fix = desc
		return e
	}
	if s, ok := suggestions[is.ID]; ok {
		e.Suggestion = s.Text
		e.Reason = string(s.Reason)
		return e
	}
	e.Suggestion = classify.Suggest(is.Category, params)
	return e
}

func sourceEntries(sources []parser.SourceResult) []SourceEntry {
	out := make([]SourceEntry, len(sources))
	for i, s := range sources {
		out[i] = SourceEntry{
			Name:              s.Name,
			Bytes:             s.Bytes,
			Issues:            s.Issues,
			LooksLikeBuildLog: s.LooksLikeBuildLog,
		}
		if s.Err != nil {
			out[i].Error = s.Err.Error()
		}
	}
	return out
}

func groupEntries(groups []correlate.Group) []GroupEntry {
	out := make([]GroupEntry, len(groups))
	for i, g := range groups {
		out[i] = GroupEntry{ID: g.ID, Kind: g.Kind.String(), Members: g.Members}
		switch g.Kind {
		case correlate.KindProximity:
			out[i].File = g.File
		case correlate.KindCategory:
			out[i].Category = g.Category.String()
		}
	}
	return out
}

func batchEntries(batches []fix.EditBatch) []BatchEntry {
	out := make([]BatchEntry, len(batches))
	for i, b := range batches {
		be := BatchEntry{File: b.File, Path: b.Path, Diff: b.Diff}
		// отчёт читается сверху вниз, правки идут по возрастанию строк
		for j := len(b.Edits) - 1; j >= 0; j-- {
			op := b.Edits[j]
			be.Edits = append(be.Edits, EditEntry{
				IssueID:   op.IssueID,
				Category:  op.Category.String(),
				Start:     op.Range.Start,
				End:       op.Range.End,
				Rationale: op.Rationale,
			})
		}
		out[i] = be
	}
	return out
}
