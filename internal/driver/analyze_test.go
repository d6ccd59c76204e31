package driver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"buildlens/internal/config"
	"buildlens/internal/diag"
	"buildlens/internal/diagfmt"
	"buildlens/internal/fix"
	"buildlens/internal/parser"
	"buildlens/internal/progress"
	"buildlens/internal/report"
	"buildlens/internal/testkit"
)

const buildLog = `CompileSwift normal arm64 Sources/App/Net.swift
Sources/App/Net.swift:4:11: error: No such module 'Networking'
Sources/App/Run.swift:3:13: error: expected '}' at end of brace statement
Sources/App/Run.swift:2:13: error: cannot find 'b' in scope
ld: framework not found Charts
** BUILD FAILED **
`

// linkLog repeats one diagnostic of buildLog; dedup keeps the first.
const linkLog = `Sources/App/Net.swift:4:11: error: No such module 'Networking'
`

var sourceFiles = map[string]string{
	"Sources/App/Net.swift": "import Foundation\nimport UIKit\n\nlet api = Client()\n",
	"Sources/App/Run.swift": "func run() {\n    let a = b\n    print(a)\n",
}

func logs() []parser.Source {
	return []parser.Source{
		parser.TextSource("build.log", buildLog),
		parser.TextSource("link.log", linkLog),
	}
}

func mapFS() fstest.MapFS {
	fsys := fstest.MapFS{}
	for p, c := range sourceFiles {
		fsys[p] = &fstest.MapFile{Data: []byte(c)}
	}
	return fsys
}

type recorder struct {
	mu     sync.Mutex
	events []progress.Event
}

func (r *recorder) OnEvent(evt progress.Event) {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

func (r *recorder) stageStatus(st progress.Stage) progress.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last progress.Status
	for _, e := range r.events {
		if e.Stage == st && e.Unit == "" {
			last = e.Status
		}
	}
	return last
}

func analyze(t *testing.T, opts Options) *Result {
	t.Helper()
	res, err := Analyze(context.Background(), logs(), opts)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return res
}

func TestAnalyzeEndToEnd(t *testing.T) {
	rec := &recorder{}
	res := analyze(t, Options{Config: config.Default(), FS: mapFS(), Progress: rec})

	r := res.Report
	if r.Status != report.StatusIssuesFound {
		t.Fatalf("status = %s", r.Status)
	}
	if r.Totals.Issues != 5 {
		t.Fatalf("issues = %d, want 5 (dedup across logs): %+v", r.Totals.Issues, res.Issues)
	}
	for i, is := range res.Issues {
		if is.ID == "" || (i > 0 && diag.Less(is, res.Issues[i-1])) {
			t.Fatalf("issues not sorted with IDs: %+v", res.Issues)
		}
	}
	if res.Fixes == nil || len(res.Fixes.Batches) != 2 {
		t.Fatalf("expected batches for both files, got %+v", res.Fixes)
	}
	for _, b := range res.Fixes.Batches {
		if err := testkit.CheckBatchInvariants(b); err != nil {
			t.Errorf("%s: %v", b.Path, err)
		}
	}
	if !strings.Contains(string(res.Fixes.Batches[0].After), "import UIKit\nimport Networking\n") {
		t.Errorf("import not inserted:\n%s", res.Fixes.Batches[0].After)
	}
	if res.Fixes.Applied()+len(res.Fixes.Suggestions) != len(res.Issues) {
		t.Errorf("every issue needs exactly one fix or suggestion")
	}
	if r.Remediation.Written {
		t.Errorf("nothing was written")
	}

	for _, st := range progress.Stages() {
		if got := rec.stageStatus(st); got != progress.StatusDone {
			t.Errorf("stage %s ended as %q", st, got)
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	var prev []byte
	for _, jobs := range []int{1, 8, 1} {
		cfg := config.Default()
		cfg.Run.Jobs = jobs
		res := analyze(t, Options{Config: cfg, FS: mapFS()})
		data, err := diagfmt.Encode(res.Report, diagfmt.FormatJSON, diagfmt.TextOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if prev != nil && !bytes.Equal(prev, data) {
			t.Fatalf("jobs=%d changed the record", jobs)
		}
		prev = data
	}
}

func TestAnalyzeWithoutRoot(t *testing.T) {
	rec := &recorder{}
	res := analyze(t, Options{Config: config.Default(), Progress: rec})
	if res.Fixes != nil || res.Report.Remediation.Ran {
		t.Fatalf("remediation must not run without a tree")
	}
	if got := rec.stageStatus(progress.StageRemediate); got != progress.StatusSkipped {
		t.Fatalf("remediate stage = %q", got)
	}
	for _, f := range res.Report.Files {
		for _, e := range f.Issues {
			if e.Suggestion == "" {
				t.Errorf("%s has no suggestion", e.ID)
			}
		}
	}
}

func TestAnalyzeDisabledCategory(t *testing.T) {
	cfg := config.Default()
	cfg.Remediation.Categories = []string{diag.CatUnbalancedBlockDelimiter.String()}
	res := analyze(t, Options{Config: cfg, FS: mapFS()})
	if len(res.Fixes.Batches) != 1 || res.Fixes.Batches[0].Path != "Sources/App/Run.swift" {
		t.Fatalf("only the delimiter fix should run: %+v", res.Fixes.Batches)
	}
	found := false
	for _, s := range res.Fixes.Suggestions {
		if s.Category == diag.CatMissingModuleImport {
			found = s.Reason == fix.ReasonDisabled
		}
	}
	if !found {
		t.Fatalf("import issue should be suggested as disabled: %+v", res.Fixes.Suggestions)
	}
}

func TestAnalyzeUnreadableSources(t *testing.T) {
	broken := parser.Source{Name: "gone.log", Open: func() (io.ReadCloser, error) {
		return nil, os.ErrNotExist
	}}
	res, err := Analyze(context.Background(), []parser.Source{broken}, Options{Config: config.Default()})
	if err != nil {
		t.Fatalf("unreadable sources must not abort the run: %v", err)
	}
	if res.Report.Status != report.StatusUnreadable {
		t.Fatalf("status = %s", res.Report.Status)
	}
	if !errors.Is(res.Parse.Sources[0].Err, diag.ErrIO) {
		t.Fatalf("source error = %v", res.Parse.Sources[0].Err)
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Analyze(ctx, logs(), Options{Config: config.Default()}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestAnalyzeRejectsWriteToFS(t *testing.T) {
	_, err := Analyze(context.Background(), logs(), Options{Config: config.Default(), FS: mapFS(), Write: true})
	if !errors.Is(err, ErrNoDiskRoot) {
		t.Fatalf("err = %v", err)
	}
}

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for p, c := range sourceFiles {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(c), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestAnalyzeWritesBack(t *testing.T) {
	root := writeTree(t)
	res := analyze(t, Options{Config: config.Default(), Root: root, Write: true})
	if len(res.WriteErrs) != 0 {
		t.Fatalf("write errors: %v", res.WriteErrs)
	}
	if !res.Report.Remediation.Written {
		t.Fatalf("report should say the edits were applied")
	}
	for _, b := range res.Fixes.Batches {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(b.Path)))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(data, b.After) {
			t.Errorf("%s on disk differs from the batch", b.Path)
		}
	}
	entries, err := os.ReadDir(filepath.Join(root, "Sources", "App"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestWriteBatchesRefusesChangedFiles(t *testing.T) {
	root := writeTree(t)
	res := analyze(t, Options{Config: config.Default(), Root: root})
	target := filepath.Join(root, "Sources", "App", "Net.swift")
	if err := os.WriteFile(target, []byte("// edited meanwhile\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	errs := WriteBatches(root, res.Fixes.Batches)
	if len(errs) != 1 || !errors.Is(errs[0], diag.ErrEditConflict) {
		t.Fatalf("errs = %v", errs)
	}
	data, _ := os.ReadFile(target)
	if string(data) != "// edited meanwhile\n" {
		t.Fatalf("changed file was overwritten")
	}
}

func TestAnalyzeTimingsOnRequest(t *testing.T) {
	cfg := config.Default()
	if res := analyze(t, Options{Config: cfg}); res.Report.Timings != nil {
		t.Fatalf("timings must be opt-in")
	}
	cfg.Report.Timings = true
	res := analyze(t, Options{Config: cfg})
	if res.Report.Timings == nil || len(res.Report.Timings.Phases) < 3 {
		t.Fatalf("timings = %+v", res.Report.Timings)
	}
}
