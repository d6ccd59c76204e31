package testkit

import (
	"bytes"
	"fmt"

	"fortio.org/safecast"
	"github.com/sourcegraph/go-diff/diff"

	"buildlens/internal/fix"
	"buildlens/internal/source"
)

// CheckBatchInvariants runs the edit-safety checks on one batch:
// 1) edits are in range, strictly descending and pairwise disjoint
// 2) applying the edits to Before reproduces After exactly
// 3) Diff parses as a unified diff whose hunks account for the line delta
func CheckBatchInvariants(b fix.EditBatch) error {
	before, err := source.NewFile(b.Path, b.Before)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", b.Path, err)
	}

	// 1) disjoint ranges
	if err := fix.CheckBatch(before.LineCount(), b.Edits); err != nil {
		return err
	}
	for i := range b.Edits {
		for j := i + 1; j < len(b.Edits); j++ {
			if b.Edits[i].Range.Overlaps(b.Edits[j].Range) {
				return fmt.Errorf("edits %d and %d overlap: %s / %s", i, j, b.Edits[i].Range, b.Edits[j].Range)
			}
		}
	}

	// 2) replay
	lines, err := fix.Apply(before.Lines, b.Edits)
	if err != nil {
		return err
	}
	if got := before.Render(lines); !bytes.Equal(got, b.After) {
		return fmt.Errorf("replaying edits of %s does not reproduce After", b.Path)
	}

	// 3) diff shape
	fd, err := diff.ParseFileDiff([]byte(b.Diff))
	if err != nil {
		return fmt.Errorf("parse diff of %s: %w", b.Path, err)
	}
	if len(fd.Hunks) == 0 {
		return fmt.Errorf("diff of %s has no hunks", b.Path)
	}
	delta := 0
	var prevEnd int32
	for _, h := range fd.Hunks {
		if h.OrigStartLine <= prevEnd {
			return fmt.Errorf("diff of %s: hunk at %d overlaps previous hunk", b.Path, h.OrigStartLine)
		}
		prevEnd = h.OrigStartLine + h.OrigLines - 1
		delta += int(h.NewLines - h.OrigLines)
	}
	total, err := safecast.Conv[int32](before.LineCount())
	if err != nil {
		return fmt.Errorf("line count overflow: %w", err)
	}
	if prevEnd > total {
		return fmt.Errorf("diff of %s ends beyond the file: %d > %d", b.Path, prevEnd, total)
	}
	if want := len(lines) - before.LineCount(); delta != want {
		return fmt.Errorf("diff of %s changes %d lines, edits change %d", b.Path, delta, want)
	}
	return nil
}
