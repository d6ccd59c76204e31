// Package driver runs one analysis: parse, classify, correlate, remediate
// and fold the results into a report.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"buildlens/internal/classify"
	"buildlens/internal/config"
	"buildlens/internal/correlate"
	"buildlens/internal/diag"
	"buildlens/internal/fix"
	"buildlens/internal/observ"
	"buildlens/internal/parser"
	"buildlens/internal/progress"
	"buildlens/internal/report"
	"buildlens/internal/source"
	"buildlens/internal/trace"
)

// ErrNoDiskRoot is returned when write-back is requested for a tree that
// does not live on disk.
var ErrNoDiskRoot = errors.New("write-back needs an on-disk source root")

// Options configures Analyze.
type Options struct {
	Config config.Config

	// Root is the source tree used for remediation; empty without FS disables it.
	Root string
	// FS overrides os.DirFS(Root), e.g. for tests. Root is then only used to
	// relativize absolute log paths.
	FS fs.FS
	// Write stores the edited files under Root once remediation is done.
	Write bool

	// Progress receives stage and unit events; nil drops them.
	Progress progress.Sink
}

// Result is everything one run produced.
type Result struct {
	Parse  *parser.Result
	Issues []diag.Issue
	Groups []correlate.Group
	// Fixes is nil when remediation did not run.
	Fixes  *fix.Result
	Report *report.AnalysisReport
	// WriteErrs lists the files that could not be written back.
	WriteErrs []error
}

// Analyze runs the whole pipeline over sources. The only error it returns
// is ctx cancellation or an invalid option; unreadable sources and files
// are recorded in the result.
func Analyze(ctx context.Context, sources []parser.Source, opts Options) (*Result, error) {
	cfg := opts.Config
	norm, err := cfg.Normalizer()
	if err != nil {
		return nil, err
	}
	cats, err := cfg.Categories()
	if err != nil {
		return nil, err
	}
	if opts.Write && opts.FS != nil {
		return nil, ErrNoDiskRoot
	}
	sink := opts.Progress
	if sink == nil {
		sink = progress.Discard
	}

	tracer := trace.FromContext(ctx)
	runSpan := trace.Begin(tracer, trace.ScopeRun, "run", trace.ParentID(ctx))
	ctx = trace.WithSpan(ctx, runSpan)
	r := &runner{ctx: ctx, tracer: tracer, parent: runSpan.ID(), timer: observ.NewTimer(), sink: sink}
	res := &Result{}

	err = r.stage(progress.StageParse, func(ctx context.Context) (int, string, error) {
		parsed, err := parser.ParseSources(ctx, sources, parser.Options{
			Normalizer: norm,
			Jobs:       cfg.Run.Jobs,
			OnSource: func(sr parser.SourceResult) {
				evt := progress.Event{Unit: sr.Name, Stage: progress.StageParse, Status: progress.StatusDone, Count: sr.Issues}
				if sr.Err != nil {
					evt.Status, evt.Err = progress.StatusError, sr.Err
				}
				sink.OnEvent(evt)
			},
		})
		if err != nil {
			return 0, "", err
		}
		res.Parse = parsed
		return len(parsed.Issues), fmt.Sprintf("sources=%d readable=%d", len(sources), parsed.Readable()), nil
	})
	if err != nil {
		runSpan.End(err.Error())
		return nil, err
	}

	err = r.stage(progress.StageClassify, func(context.Context) (int, string, error) {
		bag := diag.NewBag(len(res.Parse.Issues))
		for _, is := range classify.ClassifyAll(res.Parse.Issues) {
			bag.Add(is)
		}
		bag.Sort()
		bag.AssignIDs()
		res.Issues = bag.Items()
		return len(res.Issues), "", nil
	})
	if err != nil {
		runSpan.End(err.Error())
		return nil, err
	}

	err = r.stage(progress.StageCorrelate, func(context.Context) (int, string, error) {
		res.Groups = correlate.Correlate(res.Issues, correlate.Options{Window: cfg.Correlate.ProximityWindow})
		return len(res.Groups), "", nil
	})
	if err != nil {
		runSpan.End(err.Error())
		return nil, err
	}

	if (opts.Root == "" && opts.FS == nil) || !cfg.Remediation.Enabled {
		r.skip(progress.StageRemediate)
	} else {
		tree, err := openTree(opts, cfg)
		if err != nil {
			runSpan.End(err.Error())
			return nil, err
		}
		err = r.stage(progress.StageRemediate, func(ctx context.Context) (int, string, error) {
			fixes, err := fix.Remediate(ctx, res.Issues, tree, fix.Options{
				Categories:     cats,
				Lookaround:     cfg.Remediation.Lookaround,
				RequireExcerpt: cfg.Remediation.RequireExcerpt,
				Jobs:           cfg.Run.Jobs,
				OnFile: func(path string, edits int) {
					sink.OnEvent(progress.Event{Unit: path, Stage: progress.StageRemediate, Status: progress.StatusDone, Count: edits})
				},
			})
			if err != nil {
				return 0, "", err
			}
			res.Fixes = fixes
			if opts.Write {
				res.WriteErrs = WriteBatches(opts.Root, fixes.Batches)
			}
			return fixes.Applied(), fmt.Sprintf("files=%d suggestions=%d", len(fixes.Batches), len(fixes.Suggestions)), nil
		})
		if err != nil {
			runSpan.End(err.Error())
			return nil, err
		}
	}

	var timings *observ.Report
	if cfg.Report.Timings {
		rep := r.timer.Report()
		timings = &rep
	}
	_ = r.stage(progress.StageReport, func(context.Context) (int, string, error) {
		res.Report = report.Build(report.Input{
			Title:   cfg.Report.Title,
			Sources: res.Parse.Sources,
			Issues:  res.Issues,
			Groups:  res.Groups,
			Fixes:   res.Fixes,
			Written: opts.Write && res.Fixes != nil && len(res.WriteErrs) == 0,
			Timings: timings,
		})
		return len(res.Issues), "", nil
	})

	runSpan.With("status", string(res.Report.Status)).
		With("issues", strconv.Itoa(len(res.Issues))).
		End("")
	return res, nil
}

func openTree(opts Options, cfg config.Config) (*source.Tree, error) {
	fsys := opts.FS
	root := opts.Root
	if fsys == nil {
		abs, err := filepath.Abs(opts.Root)
		if err != nil {
			return nil, fmt.Errorf("resolve source root: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("source root: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("source root %s: not a directory", abs)
		}
		fsys = os.DirFS(abs)
		root = filepath.ToSlash(abs)
	}
	return source.NewTree(fsys, root, cfg.Remediation.ExcludeDirs), nil
}

// runner owns the per-run timer, tracer and progress sink.
type runner struct {
	ctx    context.Context
	tracer trace.Tracer
	parent uint64
	timer  *observ.Timer
	sink   progress.Sink
}

// stage runs fn as one pipeline stage. fn returns the stage count and a
// timing note. Cancellation is checked before the stage starts.
func (r *runner) stage(st progress.Stage, fn func(ctx context.Context) (int, string, error)) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	span := trace.Begin(r.tracer, trace.ScopeStage, string(st), r.parent)
	stop := r.timer.Start(string(st))
	r.sink.OnEvent(progress.Event{Stage: st, Status: progress.StatusWorking})
	started := time.Now()

	count, note, err := fn(trace.WithSpan(r.ctx, span))

	stop(note)
	evt := progress.Event{Stage: st, Status: progress.StatusDone, Count: count, Elapsed: time.Since(started)}
	if err != nil {
		evt.Status, evt.Err = progress.StatusError, err
		span.End(err.Error())
	} else {
		span.With("count", strconv.Itoa(count)).End(note)
	}
	r.sink.OnEvent(evt)
	return err
}

func (r *runner) skip(st progress.Stage) {
	trace.Point(r.tracer, trace.ScopeStage, string(st), "skipped", r.parent)
	r.sink.OnEvent(progress.Event{Stage: st, Status: progress.StatusSkipped})
}
