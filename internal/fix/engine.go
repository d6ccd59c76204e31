package fix

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"buildlens/internal/classify"
	"buildlens/internal/diag"
	"buildlens/internal/source"
	"buildlens/internal/trace"
)

// DefaultLookaround is how far from the reported line a declaration is searched.
const DefaultLookaround = 10

// Options configures a remediation pass.
type Options struct {
	// Categories limits remediation to these categories; nil means every supported one.
	Categories []diag.Category
	Lookaround int
	// RequireExcerpt refuses to edit issues the compiler did not echo a source line for.
	RequireExcerpt bool
	Jobs           int
	// OnFile, if set, is called from worker goroutines after each file.
	OnFile func(path string, edits int)
}

func (o Options) enabled(cat diag.Category) bool {
	if o.Categories == nil {
		return true
	}
	for _, c := range o.Categories {
		if c == cat {
			return true
		}
	}
	return false
}

type state uint8

const (
	stateScanning state = iota
	stateMatching
	stateEditing
	stateDone
)

func (s state) String() string {
	switch s {
	case stateScanning:
		return "scanning"
	case stateMatching:
		return "matching"
	case stateEditing:
		return "editing"
	case stateDone:
		return "done"
	}
	return "unknown"
}

type pending struct {
	index int // position in the input slice
	issue diag.Issue
}

type fileJob struct {
	path   string // tree path
	file   string // log path of the first issue
	issues []pending
}

type fileOutcome struct {
	batch       *EditBatch
	suggestions []indexedSuggestion
}

type indexedSuggestion struct {
	index int
	Suggestion
}

// Remediate computes edit batches for the issues that have an automatic fix
// and suggestions for all the others. Nothing is written: batches carry the
// updated content in memory. issues must already carry IDs and categories.
func Remediate(ctx context.Context, issues []diag.Issue, tree *source.Tree, opts Options) (*Result, error) {
	if opts.Lookaround <= 0 {
		opts.Lookaround = DefaultLookaround
	}

	var suggestions []indexedSuggestion
	jobsByPath := make(map[string]*fileJob)
	var order []string

	for i, is := range issues {
		reason := Reason("")
		switch {
		case !Supported(is.Category):
			reason = ReasonUnsupported
		case !opts.enabled(is.Category):
			reason = ReasonDisabled
		case !is.Located():
			reason = ReasonNoLocation
		case tree == nil:
			reason = ReasonNotFound
		}
		if reason != "" {
			suggestions = append(suggestions, suggest(i, is, reason))
			continue
		}
		rel, err := tree.Locate(is.Loc.File)
		if err != nil {
			suggestions = append(suggestions, suggest(i, is, ReasonNotFound))
			continue
		}
		job, ok := jobsByPath[rel]
		if !ok {
			job = &fileJob{path: rel, file: is.Loc.File}
			jobsByPath[rel] = job
			order = append(order, rel)
		}
		job.issues = append(job.issues, pending{index: i, issue: is})
	}
	sort.Strings(order)

	outcomes, err := runJobs(ctx, tree, order, jobsByPath, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, out := range outcomes {
		if out.batch != nil {
			res.Batches = append(res.Batches, *out.batch)
		}
		suggestions = append(suggestions, out.suggestions...)
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].index < suggestions[j].index
	})
	res.Suggestions = make([]Suggestion, len(suggestions))
	for i, s := range suggestions {
		res.Suggestions[i] = s.Suggestion
	}
	return res, nil
}

func runJobs(ctx context.Context, tree *source.Tree, order []string, jobs map[string]*fileJob, opts Options) ([]fileOutcome, error) {
	outcomes := make([]fileOutcome, len(order))
	if len(order) == 0 {
		return outcomes, nil
	}
	limit := opts.Jobs
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	tracer := trace.FromContext(ctx)
	parent := trace.ParentID(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(limit, len(order)))
	for i, path := range order {
		job := jobs[path]
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			span := trace.Begin(tracer, trace.ScopeUnit, "file:"+job.path, parent)
			// каждый файл обрабатывается ровно одной горутиной
			outcomes[i] = remediateFile(tracer, span.ID(), tree, job, opts)
			edits := 0
			if b := outcomes[i].batch; b != nil {
				edits = len(b.Edits)
			}
			span.With("edits", strconv.Itoa(edits)).
				With("suggestions", strconv.Itoa(len(outcomes[i].suggestions))).
				End("")
			if opts.OnFile != nil {
				opts.OnFile(job.path, edits)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func suggest(index int, is diag.Issue, reason Reason) indexedSuggestion {
	return indexedSuggestion{index: index, Suggestion: Suggestion{
		IssueID:  is.ID,
		Category: is.Category,
		Text:     classify.Suggest(is.Category, classify.Extract(is.Category, is.Message)),
		Reason:   reason,
	}}
}

func remediateFile(tracer trace.Tracer, spanID uint64, tree *source.Tree, job *fileJob, opts Options) fileOutcome {
	var out fileOutcome
	fail := func(reason Reason) fileOutcome {
		for _, p := range job.issues {
			out.suggestions = append(out.suggestions, suggest(p.index, p.issue, reason))
		}
		return out
	}
	transition := func(from, to state, detail string) {
		trace.Point(tracer, trace.ScopeStep, from.String()+"->"+to.String(), detail, spanID)
	}

	file, err := tree.Load(job.path)
	switch {
	case errors.Is(err, source.ErrNotUTF8):
		return fail(ReasonNotWritable)
	case err != nil:
		return fail(ReasonUnreadable)
	case file.Flags&source.FileMixedEndings != 0:
		return fail(ReasonNotWritable)
	}

	fs := &fileState{file: file, lookaround: opts.Lookaround}

	issues := append([]pending(nil), job.issues...)
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i].issue, issues[j].issue
		if a.Loc.Line != b.Loc.Line {
			return a.Loc.Line > b.Loc.Line
		}
		if a.Loc.Column != b.Loc.Column {
			return a.Loc.Column > b.Loc.Column
		}
		return issues[i].index < issues[j].index
	})

	var ops []EditOperation
	owners := make(map[string]pending)
	claimed := make(map[int]bool)

	cur := stateScanning
	for _, p := range issues {
		is := p.issue
		transition(cur, stateMatching, is.ID)
		cur = stateMatching

		reason := checkExcerpt(file, is, opts.RequireExcerpt)
		var op EditOperation
		if reason == "" {
			op, err = handlers[is.Category](fs, is, classify.Extract(is.Category, is.Message))
			reason = reasonFor(err)
		}
		if reason == "" {
			for n := op.Range.Start; n <= op.Range.End; n++ {
				if claimed[n] {
					reason = ReasonClaimed
					break
				}
			}
		}
		if reason != "" {
			out.suggestions = append(out.suggestions, suggest(p.index, is, reason))
			continue
		}

		transition(cur, stateEditing, is.ID+" line "+op.Range.String())
		cur = stateEditing
		for n := op.Range.Start; n <= op.Range.End; n++ {
			claimed[n] = true
		}
		op.File = job.path
		op.IssueID = is.ID
		op.Category = is.Category
		fs.commit(op)
		ops = append(ops, op)
		owners[is.ID] = p
	}
	transition(cur, stateDone, strconv.Itoa(len(ops))+" edits")

	if len(ops) == 0 {
		return out
	}

	sort.SliceStable(ops, func(i, j int) bool { return ops[i].Range.Start > ops[j].Range.Start })
	batch, err := buildBatch(file, job, ops)
	if err != nil {
		for _, op := range ops {
			p := owners[op.IssueID]
			out.suggestions = append(out.suggestions, suggest(p.index, p.issue, ReasonConflict))
		}
		return out
	}
	out.batch = batch
	return out
}

// checkExcerpt verifies that the reported line still reads what the compiler printed.
func checkExcerpt(file *source.File, is diag.Issue, required bool) Reason {
	if is.Excerpt == "" {
		if required {
			return ReasonConflict
		}
		return ""
	}
	line, ok := file.Line(is.Loc.Line)
	if !ok {
		return ReasonOutOfRange
	}
	if strings.TrimSpace(line) != strings.TrimSpace(is.Excerpt) {
		return ReasonConflict
	}
	return ""
}

func reasonFor(err error) Reason {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errSatisfied):
		return ReasonSatisfied
	case errors.Is(err, errOutOfRange):
		return ReasonOutOfRange
	case errors.Is(err, diag.ErrEditConflict):
		return ReasonConflict
	}
	return ReasonNoMatch
}

func buildBatch(file *source.File, job *fileJob, ops []EditOperation) (*EditBatch, error) {
	lines, err := Apply(file.Lines, ops)
	if err != nil {
		return nil, err
	}
	before := file.Render(file.Lines)
	diffText, err := UnifiedDiff(job.path, file.Lines, ops)
	if err != nil {
		return nil, fmt.Errorf("diff %s: %w", job.path, err)
	}
	return &EditBatch{
		File:   job.file,
		Path:   job.path,
		Edits:  ops,
		Before: before,
		After:  file.Render(lines),
		Diff:   diffText,
	}, nil
}
