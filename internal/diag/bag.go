package diag

import (
	"fmt"
	"sort"
)

// Bag accumulates issues for one run.
type Bag struct {
	items []Issue
}

func NewBag(capacity int) *Bag {
	return &Bag{items: make([]Issue, 0, capacity)}
}

// Add appends an issue.
func (b *Bag) Add(is Issue) {
	b.items = append(b.items, is)
}

// Merge appends every issue of other, keeping other's order.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns a read-only view of the issues.
// ВАЖНО: не модифицируйте возвращаемый срез, он указывает на внутренний массив Bag.
func (b *Bag) Items() []Issue {
	return b.items
}

// HasErrors reports whether at least one issue is an error.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// Dedup drops issues whose (file, line, column, message) was already seen.
// The first occurrence wins, so callers merge sources in input order.
func (b *Bag) Dedup() {
	seen := make(map[Key]struct{}, len(b.items))
	kept := b.items[:0]
	for _, is := range b.items {
		k := is.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, is)
	}
	// не держим хвост старого массива
	clear(b.items[len(kept):])
	b.items = kept
}

// Sort orders issues by file, line, column, severity (desc), message.
// Unlocated issues sort after located ones.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		return Less(b.items[i], b.items[j])
	})
}

// Less is the canonical issue order used by every report.
func Less(a, b Issue) bool {
	if a.Located() != b.Located() {
		return a.Located()
	}
	if a.Loc.File != b.Loc.File {
		return a.Loc.File < b.Loc.File
	}
	if a.Loc.Line != b.Loc.Line {
		return a.Loc.Line < b.Loc.Line
	}
	if a.Loc.Column != b.Loc.Column {
		return a.Loc.Column < b.Loc.Column
	}
	if a.Severity != b.Severity {
		return a.Severity > b.Severity
	}
	return a.Message < b.Message
}

// AssignIDs numbers issues in their current order ("I0001", "I0002", ...).
// Call after Sort so identifiers are stable across runs.
func (b *Bag) AssignIDs() {
	for i := range b.items {
		b.items[i].ID = fmt.Sprintf("I%04d", i+1)
	}
}
