package fix

import (
	"fmt"

	"buildlens/internal/diag"
)

// LineRange is an inclusive 1-based range of original lines.
type LineRange struct {
	Start int `json:"start" msgpack:"start"`
	End   int `json:"end" msgpack:"end"`
}

// Overlaps reports whether r and o share at least one line.
func (r LineRange) Overlaps(o LineRange) bool {
	return r.Start <= o.End && o.Start <= r.End
}

func (r LineRange) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// EditOperation replaces the lines of Range with NewText.
// OldText is the exact text of those lines in the snapshot, joined by "\n";
// an insertion after line L replaces L with L plus the new line.
type EditOperation struct {
	File      string
	Range     LineRange
	OldText   string
	NewText   string
	Rationale string
	IssueID   string
	Category  diag.Category
}

// EditBatch is every edit for one file, in descending line order.
type EditBatch struct {
	File   string // path as reported by the log
	Path   string // path inside the source tree
	Edits  []EditOperation
	Before []byte
	After  []byte
	Diff   string // unified diff from Before to After
}

// Reason explains why an issue got a suggestion instead of an edit.
type Reason string

const (
	ReasonUnsupported Reason = "unsupported category"
	ReasonDisabled    Reason = "category disabled"
	ReasonNoLocation  Reason = "issue has no source location"
	ReasonNotFound    Reason = "file not found"
	ReasonUnreadable  Reason = "file unreadable"
	ReasonNotWritable Reason = "file cannot be rewritten safely"
	ReasonOutOfRange  Reason = "line out of range"
	ReasonConflict    Reason = "edit conflict"
	ReasonClaimed     Reason = "line already claimed"
	ReasonNoMatch     Reason = "no pattern match"
	ReasonSatisfied   Reason = "already satisfied"
)

// Suggestion is the advice recorded for an issue that was not edited.
type Suggestion struct {
	IssueID  string
	Category diag.Category
	Text     string
	Reason   Reason
}

// Result is the outcome of one remediation pass.
type Result struct {
	Batches     []EditBatch  // sorted by Path
	Suggestions []Suggestion // in input issue order
}

// Applied returns the number of edit operations over all batches.
func (r *Result) Applied() int {
	n := 0
	for _, b := range r.Batches {
		n += len(b.Edits)
	}
	return n
}

// Fixes maps issue IDs to the rationale of the edit made for them.
func (r *Result) Fixes() map[string]string {
	out := make(map[string]string)
	for _, b := range r.Batches {
		for _, e := range b.Edits {
			out[e.IssueID] = e.Rationale
		}
	}
	return out
}
