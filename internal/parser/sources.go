package parser

import (
	"context"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"buildlens/internal/diag"
	"buildlens/internal/source"
	"buildlens/internal/trace"
)

// Source is one log blob. Open is called once, from a worker goroutine.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// TextSource wraps in-memory log text.
func TextSource(name, text string) Source {
	return Source{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(text)), nil
	}}
}

// FileSource reads a log file from disk.
func FileSource(path string) Source {
	return Source{Name: path, Open: func() (io.ReadCloser, error) {
		// #nosec G304 -- path is provided by the caller
		return os.Open(path)
	}}
}

// SourceResult summarizes what one source contributed.
type SourceResult struct {
	Name              string
	Bytes             int
	Issues            int // issues found in this source before cross-source dedup
	LooksLikeBuildLog bool
	Err               error // *diag.IOError when the source could not be read
}

// Result is the merged parser output.
type Result struct {
	Issues  []diag.Issue // deduplicated, first source wins, in input order
	Sources []SourceResult
}

// Readable reports how many sources could be read.
func (r *Result) Readable() int {
	n := 0
	for _, s := range r.Sources {
		if s.Err == nil {
			n++
		}
	}
	return n
}

// Options configures ParseSources.
type Options struct {
	Normalizer *source.PathNormalizer
	Jobs       int
	// OnSource, if set, is called from worker goroutines after each source.
	OnSource func(SourceResult)
}

// ParseSources reads and parses every source concurrently and merges the
// results in input order. A source that cannot be read is recorded in its
// SourceResult and does not stop the others. The returned error is non-nil
// only when ctx is cancelled.
func ParseSources(ctx context.Context, sources []Source, opts Options) (*Result, error) {
	res := &Result{Sources: make([]SourceResult, len(sources))}
	if len(sources) == 0 {
		return res, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	tracer := trace.FromContext(ctx)
	parent := trace.ParentID(ctx)

	// индексы уникальны для каждой горутины, мьютекс не нужен
	bags := make([]*diag.Bag, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(sources)))
	for i, src := range sources {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			span := trace.Begin(tracer, trace.ScopeUnit, "source:"+src.Name, parent)
			sr, bag := parseOne(src, opts.Normalizer)
			span.With("bytes", strconv.Itoa(sr.Bytes)).
				With("issues", strconv.Itoa(sr.Issues))
			if sr.Err != nil {
				span.End(sr.Err.Error())
			} else {
				span.End("")
			}

			res.Sources[i] = sr
			bags[i] = bag
			if opts.OnSource != nil {
				opts.OnSource(sr)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := diag.NewBag(0)
	for _, b := range bags {
		merged.Merge(b)
	}
	merged.Dedup()
	res.Issues = merged.Items()
	return res, nil
}

func parseOne(src Source, norm *source.PathNormalizer) (SourceResult, *diag.Bag) {
	sr := SourceResult{Name: src.Name}
	raw, err := readAll(src)
	if err != nil {
		sr.Err = &diag.IOError{Source: src.Name, Err: err}
		return sr, nil
	}
	sr.Bytes = len(raw)

	text := source.DecodeLog(raw)
	sr.LooksLikeBuildLog = LooksLikeBuildLog(text)
	bag := Parse(text, src.Name, norm)
	sr.Issues = bag.Len()
	return sr, bag
}

func readAll(src Source) ([]byte, error) {
	if src.Open == nil {
		return nil, os.ErrInvalid
	}
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
