// Package correlate groups issues that probably share a root cause.
// Groups reference issues by ID and never change them.
package correlate

import (
	"fmt"
	"sort"

	"buildlens/internal/diag"
)

// DefaultWindow is the largest line gap that keeps two issues in one proximity group.
const DefaultWindow = 5

// Kind tells how a group was formed.
type Kind uint8

const (
	// KindProximity groups issues of one file that sit close together.
	KindProximity Kind = iota
	// KindCategory groups every issue of a category across the run.
	KindCategory
)

func (k Kind) String() string {
	switch k {
	case KindProximity:
		return "proximity"
	case KindCategory:
		return "category"
	}
	return "unknown"
}

// Group is a weak association of issues.
type Group struct {
	ID       string
	Kind     Kind
	File     string        // proximity groups only
	Category diag.Category // category groups only
	Members  []string      // issue IDs in canonical issue order
}

// Options configures Correlate.
type Options struct {
	Window int // <= 0 means DefaultWindow
}

// Correlate builds proximity groups (sorted by file, then first line)
// followed by category groups (in category order). issues must carry IDs.
func Correlate(issues []diag.Issue, opts Options) []Group {
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	groups := proximity(issues, window)
	return append(groups, byCategory(issues)...)
}

func proximity(issues []diag.Issue, window int) []Group {
	byFile := make(map[string][]diag.Issue)
	for _, is := range issues {
		if is.Located() {
			byFile[is.Loc.File] = append(byFile[is.Loc.File], is)
		}
	}
	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	var out []Group
	for _, file := range files {
		list := byFile[file]
		sort.SliceStable(list, func(i, j int) bool { return diag.Less(list[i], list[j]) })

		var cur []diag.Issue
		flush := func() {
			if len(cur) > 1 {
				out = append(out, Group{
					ID:      fmt.Sprintf("file:%s:%d", file, cur[0].Loc.Line),
					Kind:    KindProximity,
					File:    file,
					Members: ids(cur),
				})
			}
			cur = nil
		}
		for _, is := range list {
			if len(cur) > 0 && is.Loc.Line-cur[len(cur)-1].Loc.Line > window {
				flush()
			}
			cur = append(cur, is)
		}
		flush()
	}
	return out
}

func byCategory(issues []diag.Issue) []Group {
	var members [diag.CategoryCount][]diag.Issue
	for _, is := range issues {
		if int(is.Category) >= diag.CategoryCount {
			continue
		}
		members[is.Category] = append(members[is.Category], is)
	}

	var out []Group
	for _, c := range diag.Categories() {
		list := members[c]
		if len(list) < 2 {
			continue
		}
		sort.SliceStable(list, func(i, j int) bool { return diag.Less(list[i], list[j]) })
		out = append(out, Group{
			ID:       "category:" + c.String(),
			Kind:     KindCategory,
			Category: c,
			Members:  ids(list),
		})
	}
	return out
}

func ids(list []diag.Issue) []string {
	out := make([]string, len(list))
	for i, is := range list {
		out[i] = is.ID
	}
	return out
}

// Membership maps issue IDs to the IDs of the groups containing them.
func Membership(groups []Group) map[string][]string {
	m := make(map[string][]string)
	for _, g := range groups {
		for _, id := range g.Members {
			m[id] = append(m[id], g.ID)
		}
	}
	return m
}
