package fix

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
	"github.com/sourcegraph/go-diff/diff"
)

const diffContext = 3

// UnifiedDiff renders ops against lines as a unified diff of path.
// ops may be in any order; they must not overlap.
func UnifiedDiff(path string, lines []string, ops []EditOperation) (string, error) {
	if len(ops) == 0 {
		return "", nil
	}
	asc := slices.Clone(ops)
	slices.SortFunc(asc, func(a, b EditOperation) int { return a.Range.Start - b.Range.Start })

	// hunks whose context windows touch are merged
	var clusters [][]EditOperation
	for _, op := range asc {
		if n := len(clusters); n > 0 {
			last := clusters[n-1][len(clusters[n-1])-1]
			if op.Range.Start-last.Range.End-1 <= 2*diffContext {
				clusters[n-1] = append(clusters[n-1], op)
				continue
			}
		}
		clusters = append(clusters, []EditOperation{op})
	}

	fd := &diff.FileDiff{OrigName: "a/" + path, NewName: "b/" + path}
	delta := 0
	for _, cl := range clusters {
		h, d, err := hunk(lines, cl, delta)
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		fd.Hunks = append(fd.Hunks, h)
		delta += d
	}

	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// hunk builds one hunk for a cluster of ascending ops; delta is the line
// shift introduced by earlier hunks. It returns the shift this hunk adds.
func hunk(lines []string, ops []EditOperation, delta int) (*diff.Hunk, int, error) {
	start := max(1, ops[0].Range.Start-diffContext)
	end := min(len(lines), ops[len(ops)-1].Range.End+diffContext)

	var body strings.Builder
	added := 0
	next := 0
	for n := start; n <= end; n++ {
		if next < len(ops) && n == ops[next].Range.Start {
			op := ops[next]
			writeChange(&body, lines[op.Range.Start-1:op.Range.End], strings.Split(op.NewText, "\n"))
			added += strings.Count(op.NewText, "\n") + 1 - (op.Range.End - op.Range.Start + 1)
			n = op.Range.End
			next++
			continue
		}
		body.WriteString(" " + lines[n-1] + "\n")
	}

	origLines := end - start + 1
	origStart, err := safecast.Conv[int32](start)
	if err != nil {
		return nil, 0, err
	}
	origCount, err := safecast.Conv[int32](origLines)
	if err != nil {
		return nil, 0, err
	}
	newStart, err := safecast.Conv[int32](start + delta)
	if err != nil {
		return nil, 0, err
	}
	newCount, err := safecast.Conv[int32](origLines + added)
	if err != nil {
		return nil, 0, err
	}
	return &diff.Hunk{
		OrigStartLine: origStart,
		OrigLines:     origCount,
		NewStartLine:  newStart,
		NewLines:      newCount,
		Body:          []byte(body.String()),
	}, added, nil
}

// writeChange writes old -> repl, keeping their common leading and trailing
// lines as context.
func writeChange(body *strings.Builder, old, repl []string) {
	pre := 0
	for pre < len(old) && pre < len(repl) && old[pre] == repl[pre] {
		pre++
	}
	post := 0
	for post < len(old)-pre && post < len(repl)-pre && old[len(old)-1-post] == repl[len(repl)-1-post] {
		post++
	}
	for _, l := range old[:pre] {
		body.WriteString(" " + l + "\n")
	}
	for _, l := range old[pre : len(old)-post] {
		body.WriteString("-" + l + "\n")
	}
	for _, l := range repl[pre : len(repl)-post] {
		body.WriteString("+" + l + "\n")
	}
	for _, l := range old[len(old)-post:] {
		body.WriteString(" " + l + "\n")
	}
}
