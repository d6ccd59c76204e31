package fix

import (
	"fmt"
	"slices"
	"strings"

	"buildlens/internal/diag"
)

// Apply returns a copy of lines with ops applied. ops must be sorted by
// descending line and must not overlap; every op's OldText has to match the
// lines it replaces.
func Apply(lines []string, ops []EditOperation) ([]string, error) {
	if err := CheckBatch(len(lines), ops); err != nil {
		return nil, err
	}
	working := slices.Clone(lines)
	for _, op := range ops {
		got := strings.Join(working[op.Range.Start-1:op.Range.End], "\n")
		if got != op.OldText {
			return nil, fmt.Errorf("%s:%s: existing text does not match expected content: %w",
				op.File, op.Range, diag.ErrEditConflict)
		}
		working = slices.Replace(working, op.Range.Start-1, op.Range.End, strings.Split(op.NewText, "\n")...)
	}
	return working, nil
}

// CheckBatch verifies that ops are in range, in descending order and pairwise disjoint.
func CheckBatch(lineCount int, ops []EditOperation) error {
	for i, op := range ops {
		if op.Range.Start < 1 || op.Range.End < op.Range.Start || op.Range.End > lineCount {
			return fmt.Errorf("%s:%s: edit span out of range: %w", op.File, op.Range, diag.ErrEditConflict)
		}
		if i == 0 {
			continue
		}
		prev := ops[i-1].Range
		if op.Range.Overlaps(prev) {
			return fmt.Errorf("%s:%s: overlaps %s: %w", op.File, op.Range, prev, diag.ErrEditConflict)
		}
		if op.Range.Start > prev.Start {
			return fmt.Errorf("%s:%s: edits not in descending order: %w", op.File, op.Range, diag.ErrEditConflict)
		}
	}
	return nil
}
