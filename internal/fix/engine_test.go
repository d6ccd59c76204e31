package fix

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"buildlens/internal/diag"
	"buildlens/internal/source"
)

func treeOf(files map[string]string) *source.Tree {
	fsys := fstest.MapFS{}
	for p, content := range files {
		fsys[p] = &fstest.MapFile{Data: []byte(content)}
	}
	return source.NewTree(fsys, "", nil)
}

func located(id, file string, line int, cat diag.Category, msg string) diag.Issue {
	return diag.Issue{
		ID:       id,
		Loc:      diag.Location{File: file, Line: line, Column: 1},
		Severity: diag.SevError,
		Message:  msg,
		Category: cat,
	}
}

func run(t *testing.T, tree *source.Tree, opts Options, issues ...diag.Issue) *Result {
	t.Helper()
	res, err := Remediate(context.Background(), issues, tree, opts)
	if err != nil {
		t.Fatalf("Remediate: %v", err)
	}
	return res
}

func afterLines(t *testing.T, b EditBatch) []string {
	t.Helper()
	return strings.Split(strings.TrimSuffix(string(b.After), "\n"), "\n")
}

func TestBlockDelimiterInsertedAfterReportedLine(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 39; i++ {
		fmt.Fprintf(&sb, "// line %d\n", i)
	}
	sb.WriteString("func run() {\n")
	sb.WriteString("    let a = 1\n")
	sb.WriteString("    print(a)\n")
	tree := treeOf(map[string]string{"App/Run.swift": sb.String()})

	res := run(t, tree, Options{},
		located("I0001", "App/Run.swift", 42, diag.CatUnbalancedBlockDelimiter, "expected '}' at end of brace statement"))
	if len(res.Batches) != 1 {
		t.Fatalf("expected 1 batch, got %d (suggestions %+v)", len(res.Batches), res.Suggestions)
	}
	lines := afterLines(t, res.Batches[0])
	if len(lines) != 43 {
		t.Fatalf("expected 43 lines, got %d", len(lines))
	}
	if lines[42] != "    }" {
		t.Fatalf("line 43 = %q, want %q", lines[42], "    }")
	}
	if bal := braceBalance(lines); bal != 0 {
		t.Fatalf("brace balance after fix = %d", bal)
	}
	op := res.Batches[0].Edits[0]
	if op.Range != (LineRange{Start: 42, End: 42}) || op.IssueID != "I0001" {
		t.Fatalf("unexpected op %+v", op)
	}
}

func TestBlockDelimiterStopsAtZeroDeficit(t *testing.T) {
	src := "func a() {\n    one()\n\nfunc b() {\n    two()\n}\n"
	tree := treeOf(map[string]string{"A.swift": src})

	res := run(t, tree, Options{},
		located("I0001", "A.swift", 2, diag.CatUnbalancedBlockDelimiter, "expected '}'"),
		located("I0002", "A.swift", 5, diag.CatUnbalancedBlockDelimiter, "expected '}'"),
	)
	if len(res.Batches) != 1 || len(res.Batches[0].Edits) != 1 {
		t.Fatalf("expected exactly one edit, got %+v", res.Batches)
	}
	if res.Batches[0].Edits[0].IssueID != "I0002" {
		t.Fatalf("the lower issue should be edited first, got %s", res.Batches[0].Edits[0].IssueID)
	}
	if len(res.Suggestions) != 1 || res.Suggestions[0].Reason != ReasonSatisfied {
		t.Fatalf("expected one satisfied suggestion, got %+v", res.Suggestions)
	}
}

func TestBraceBalanceIgnoresStringsAndComments(t *testing.T) {
	tests := []struct {
		lines []string
		want  int
	}{
		{[]string{"func f() {", "}"}, 0},
		{[]string{"let s = \"{\"", "func f() {"}, 1},
		{[]string{"// {", "/* { */ func f() {"}, 1},
		{[]string{"/* outer /* inner } */ still comment } */"}, 0},
		{[]string{`let q = "\"{"`, "}"}, -1},
		{[]string{`let m = """`, "{ {", `"""`, "{"}, 1},
	}
	for _, tt := range tests {
		if got := braceBalance(tt.lines); got != tt.want {
			t.Errorf("braceBalance(%q) = %d, want %d", tt.lines, got, tt.want)
		}
	}
}

func TestMissingImportAfterLastImport(t *testing.T) {
	src := "// Header\nimport Foundation\nimport UIKit\n\nlet c = Networking.Client()\n"
	tree := treeOf(map[string]string{"App/View.swift": src})

	res := run(t, tree, Options{},
		located("I0001", "App/View.swift", 5, diag.CatMissingModuleImport, "No such module 'Networking'"))
	if len(res.Batches) != 1 {
		t.Fatalf("expected 1 batch, got %+v", res.Suggestions)
	}
	lines := afterLines(t, res.Batches[0])
	if lines[3] != "import Networking" {
		t.Fatalf("line 4 = %q", lines[3])
	}
	if lines[4] != "" || lines[5] != "let c = Networking.Client()" {
		t.Fatalf("lines below did not shift by one: %q", lines[4:])
	}
	d := res.Batches[0].Diff
	for _, want := range []string{"--- a/App/View.swift", "+++ b/App/View.swift", "@@ -1,5 +1,6 @@", "+import Networking\n", " import UIKit\n"} {
		if !strings.Contains(d, want) {
			t.Errorf("diff missing %q:\n%s", want, d)
		}
	}
}

func TestMissingImportWithoutImports(t *testing.T) {
	src := "// Copyright\n\nstruct A {}\n"
	tree := treeOf(map[string]string{"A.swift": src})
	res := run(t, tree, Options{},
		located("I0001", "A.swift", 3, diag.CatMissingModuleImport, "No such module 'Core'"))
	if len(res.Batches) != 1 {
		t.Fatalf("expected a batch, got %+v", res.Suggestions)
	}
	want := "// Copyright\n\nimport Core\nstruct A {}\n"
	if got := string(res.Batches[0].After); got != want {
		t.Fatalf("After = %q, want %q", got, want)
	}
}

func TestMissingImportAlreadyPresent(t *testing.T) {
	tree := treeOf(map[string]string{"A.swift": "import Core\nlet x = 1\n"})
	res := run(t, tree, Options{},
		located("I0001", "A.swift", 2, diag.CatMissingModuleImport, "No such module 'Core'"))
	if len(res.Batches) != 0 {
		t.Fatalf("expected no batch, got %+v", res.Batches)
	}
	if len(res.Suggestions) != 1 || res.Suggestions[0].Reason != ReasonSatisfied {
		t.Fatalf("unexpected suggestions %+v", res.Suggestions)
	}
}

func TestUninitializedFieldGetsDefault(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("struct Counter {\n")
	for i := 2; i <= 9; i++ {
		fmt.Fprintf(&sb, "    // %d\n", i)
	}
	sb.WriteString("count: Int\n")
	sb.WriteString("    init() {\n")
	sb.WriteString("    }\n")
	sb.WriteString("}\n")
	tree := treeOf(map[string]string{"Counter.swift": sb.String()})

	res := run(t, tree, Options{},
		located("I0001", "Counter.swift", 12, diag.CatUninitializedRequiredField, "return from initializer without initializing all stored properties; property 'count' not initialized"))
	if len(res.Batches) != 1 {
		t.Fatalf("expected a batch, got %+v", res.Suggestions)
	}
	lines := afterLines(t, res.Batches[0])
	if lines[9] != "count: Int = 0" {
		t.Fatalf("line 10 = %q", lines[9])
	}
}

func TestUninitializedFieldKeepsComment(t *testing.T) {
	src := "final class Model {\n    private var name: String? // shown in UI\n    init() {}\n}\n"
	tree := treeOf(map[string]string{"Model.swift": src})
	res := run(t, tree, Options{},
		located("I0001", "Model.swift", 3, diag.CatUninitializedRequiredField, "property 'self.name' not initialized"))
	if len(res.Batches) != 1 {
		t.Fatalf("expected a batch, got %+v", res.Suggestions)
	}
	if got := afterLines(t, res.Batches[0])[1]; got != "    private var name: String? = nil // shown in UI" {
		t.Fatalf("line 2 = %q", got)
	}
}

func TestUninitializedFieldNoEdit(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		reason Reason
	}{
		{"initialized", "var count: Int = 1\ninit() {}\n", ReasonSatisfied},
		{"unknown type", "var count: Widget\ninit() {}\n", ReasonNoMatch},
		{"outside lookaround", "var count: Int\n" + strings.Repeat("\n", 20) + "init() {}\n", ReasonNoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := treeOf(map[string]string{"F.swift": tt.src})
			line := strings.Count(tt.src, "\n")
			res := run(t, tree, Options{},
				located("I0001", "F.swift", line, diag.CatUninitializedRequiredField, "property 'count' not initialized"))
			if len(res.Batches) != 0 {
				t.Fatalf("expected no edit, got %+v", res.Batches[0].Edits)
			}
			if len(res.Suggestions) != 1 || res.Suggestions[0].Reason != tt.reason {
				t.Fatalf("suggestions = %+v, want reason %q", res.Suggestions, tt.reason)
			}
		})
	}
}

func TestDefaultValue(t *testing.T) {
	tests := map[string]string{
		"String":          `""`,
		"Character":       `""`,
		"Int":             "0",
		"UInt8":           "0",
		"Double":          "0",
		"Bool":            "false",
		"[String]":        "[]",
		"Set<Int>":        "[]",
		"[String: Int]":   "[:]",
		"[[Int]: String]": "[:]",
		"Dictionary<K,V>": "[:]",
		"URL?":            "nil",
		"Optional<Int>":   "nil",
	}
	for typ, want := range tests {
		got, ok := defaultValue(typ)
		if !ok || got != want {
			t.Errorf("defaultValue(%q) = %q, %v; want %q", typ, got, ok, want)
		}
	}
	if _, ok := defaultValue("Widget"); ok {
		t.Errorf("unknown type must not get a default")
	}
}

func TestVisibilityQualifierRemoved(t *testing.T) {
	src := "fileprivate struct Box {}\n\npublic extension Box {\n    func open() {}\n}\n"
	tree := treeOf(map[string]string{"Box.swift": src})
	res := run(t, tree, Options{},
		located("I0001", "Box.swift", 3, diag.CatVisibilityConflict, "extension of fileprivate struct 'Box' cannot be declared public"))
	if len(res.Batches) != 1 {
		t.Fatalf("expected a batch, got %+v", res.Suggestions)
	}
	if got := afterLines(t, res.Batches[0])[2]; got != "extension Box {" {
		t.Fatalf("line 3 = %q", got)
	}
}

func TestConcurrencyAttributeOnImport(t *testing.T) {
	src := "import Foundation\n    import Legacy\n\nlet x = Legacy.value\n"
	tree := treeOf(map[string]string{"C.swift": src})
	res := run(t, tree, Options{},
		located("I0001", "C.swift", 4, diag.CatConcurrencyAnnotationRequired, "add '@preconcurrency' to suppress 'Sendable'-related warnings from module 'Legacy'"))
	if len(res.Batches) != 1 {
		t.Fatalf("expected a batch, got %+v", res.Suggestions)
	}
	if got := afterLines(t, res.Batches[0])[1]; got != "    @preconcurrency import Legacy" {
		t.Fatalf("line 2 = %q", got)
	}

	tree = treeOf(map[string]string{"C.swift": "@preconcurrency import Legacy\n"})
	res = run(t, tree, Options{},
		located("I0001", "C.swift", 1, diag.CatConcurrencyAnnotationRequired, "add '@preconcurrency' to suppress 'Sendable'-related warnings from module 'Legacy'"))
	if len(res.Batches) != 0 || res.Suggestions[0].Reason != ReasonSatisfied {
		t.Fatalf("already prefixed import must not change: %+v", res)
	}
}

func TestProtocolConformanceOnlySuggests(t *testing.T) {
	tree := treeOf(map[string]string{"P.swift": "struct Foo: Hashable {}\n"})
	res := run(t, tree, Options{},
		located("I0001", "P.swift", 1, diag.CatProtocolConformance, "type 'Foo' does not conform to protocol 'Hashable'"))
	if len(res.Batches) != 0 {
		t.Fatalf("protocol conformance must never be edited")
	}
	if len(res.Suggestions) != 1 {
		t.Fatalf("expected exactly one suggestion, got %d", len(res.Suggestions))
	}
	s := res.Suggestions[0]
	if s.Reason != ReasonUnsupported || !strings.Contains(s.Text, "Hashable") {
		t.Fatalf("unexpected suggestion %+v", s)
	}
}

func TestClaimedLineBecomesSuggestion(t *testing.T) {
	src := "internal struct X {}\n\npublic extension X {\n    func f() {\n    }\n"
	tree := treeOf(map[string]string{"X.swift": src})

	vis := located("I0001", "X.swift", 3, diag.CatVisibilityConflict, "extension of internal struct 'X' cannot be declared public")
	brace := located("I0002", "X.swift", 3, diag.CatUnbalancedBlockDelimiter, "expected '}' in extension")
	brace.Loc.Column = 20

	res := run(t, tree, Options{}, vis, brace)
	if len(res.Batches) != 1 || len(res.Batches[0].Edits) != 1 {
		t.Fatalf("expected a single edit, got %+v", res.Batches)
	}
	if res.Batches[0].Edits[0].IssueID != "I0002" {
		t.Fatalf("the higher column is evaluated first, got %s", res.Batches[0].Edits[0].IssueID)
	}
	if len(res.Suggestions) != 1 || res.Suggestions[0].IssueID != "I0001" || res.Suggestions[0].Reason != ReasonClaimed {
		t.Fatalf("unexpected suggestions %+v", res.Suggestions)
	}
}

func TestExcerptGuard(t *testing.T) {
	tree := treeOf(map[string]string{"A.swift": "import Foundation\nlet x = Core.y\n"})
	is := located("I0001", "A.swift", 2, diag.CatMissingModuleImport, "No such module 'Core'")

	is.Excerpt = "let x = Other.y"
	res := run(t, tree, Options{}, is)
	if len(res.Batches) != 0 || res.Suggestions[0].Reason != ReasonConflict {
		t.Fatalf("mismatching excerpt must be a conflict: %+v", res)
	}

	is.Excerpt = "  let x = Core.y  "
	res = run(t, tree, Options{}, is)
	if len(res.Batches) != 1 {
		t.Fatalf("matching excerpt should allow the edit: %+v", res.Suggestions)
	}

	is.Excerpt = ""
	res = run(t, tree, Options{RequireExcerpt: true}, is)
	if len(res.Batches) != 0 || res.Suggestions[0].Reason != ReasonConflict {
		t.Fatalf("missing excerpt must be a conflict when required: %+v", res)
	}
}

func TestSuggestionReasons(t *testing.T) {
	tree := treeOf(map[string]string{"A.swift": "let x = 1\n"})
	unlocated := diag.Issue{ID: "I0003", Category: diag.CatMissingModuleImport, Message: "No such module 'Core'"}

	res := run(t, tree, Options{Categories: []diag.Category{diag.CatVisibilityConflict}},
		located("I0001", "Missing.swift", 1, diag.CatVisibilityConflict, "extension of internal struct 'X' cannot be declared public"),
		located("I0002", "A.swift", 1, diag.CatMissingModuleImport, "No such module 'Core'"),
		unlocated,
		located("I0004", "A.swift", 9, diag.CatVisibilityConflict, "extension of internal struct 'X' cannot be declared public"),
	)
	want := []Reason{ReasonNotFound, ReasonDisabled, ReasonDisabled, ReasonOutOfRange}
	if len(res.Suggestions) != len(want) {
		t.Fatalf("expected %d suggestions, got %+v", len(want), res.Suggestions)
	}
	for i, r := range want {
		if res.Suggestions[i].Reason != r {
			t.Errorf("suggestion %d (%s): reason %q, want %q", i, res.Suggestions[i].IssueID, res.Suggestions[i].Reason, r)
		}
	}

	res = run(t, tree, Options{}, unlocated)
	if res.Suggestions[0].Reason != ReasonNoLocation {
		t.Fatalf("unlocated issue: reason %q", res.Suggestions[0].Reason)
	}
}

func TestLineEndingsAndBOMPreserved(t *testing.T) {
	src := "\uFEFFimport A\r\nlet x = 1\r\n"
	tree := treeOf(map[string]string{"A.swift": src})
	res := run(t, tree, Options{},
		located("I0001", "A.swift", 2, diag.CatMissingModuleImport, "No such module 'B'"))
	if len(res.Batches) != 1 {
		t.Fatalf("expected a batch, got %+v", res.Suggestions)
	}
	b := res.Batches[0]
	if string(b.Before) != src {
		t.Fatalf("Before = %q", b.Before)
	}
	if want := "\uFEFFimport A\r\nimport B\r\nlet x = 1\r\n"; string(b.After) != want {
		t.Fatalf("After = %q, want %q", b.After, want)
	}
}

func TestMixedLineEndingsNotRewritten(t *testing.T) {
	tree := treeOf(map[string]string{"A.swift": "import A\r\nlet x = 1\n"})
	res := run(t, tree, Options{},
		located("I0001", "A.swift", 2, diag.CatMissingModuleImport, "No such module 'B'"))
	if len(res.Batches) != 0 || res.Suggestions[0].Reason != ReasonNotWritable {
		t.Fatalf("mixed endings must not be rewritten: %+v", res)
	}
}

func TestRemediateOrderIndependent(t *testing.T) {
	src := "import Foundation\n\nfileprivate struct S {}\npublic extension S {\n    var n: Int\n    init() {\n        run {\n    }\n}\n"
	files := map[string]string{"S.swift": src, "T.swift": "let t = Core.x\n"}
	issues := []diag.Issue{
		located("I0001", "S.swift", 4, diag.CatVisibilityConflict, "extension of fileprivate struct 'S' cannot be declared public"),
		located("I0002", "S.swift", 6, diag.CatUninitializedRequiredField, "property 'n' not initialized"),
		located("I0003", "S.swift", 7, diag.CatUnbalancedBlockDelimiter, "expected '}'"),
		located("I0004", "T.swift", 1, diag.CatMissingModuleImport, "No such module 'Core'"),
		located("I0005", "S.swift", 1, diag.CatProtocolConformance, "type 'S' does not conform to protocol 'P'"),
	}
	reversed := make([]diag.Issue, len(issues))
	for i, is := range issues {
		reversed[len(issues)-1-i] = is
	}

	a := run(t, treeOf(files), Options{Jobs: 1}, issues...)
	b := run(t, treeOf(files), Options{Jobs: 4}, reversed...)
	if len(a.Batches) != 2 || len(b.Batches) != 2 {
		t.Fatalf("expected 2 batches, got %d and %d", len(a.Batches), len(b.Batches))
	}
	for i := range a.Batches {
		if string(a.Batches[i].After) != string(b.Batches[i].After) || a.Batches[i].Diff != b.Batches[i].Diff {
			t.Fatalf("batch %s differs between input orders", a.Batches[i].Path)
		}
	}
	if a.Applied() != 4 {
		t.Fatalf("expected 4 edits, got %d", a.Applied())
	}
	fixes := a.Fixes()
	if fixes["I0002"] != "Initialized 'n' with 0" {
		t.Fatalf("unexpected rationale %q", fixes["I0002"])
	}
}

func TestApplyRejectsBadBatches(t *testing.T) {
	lines := []string{"a", "b", "c"}
	tests := []struct {
		name string
		ops  []EditOperation
	}{
		{"overlap", []EditOperation{
			{Range: LineRange{2, 3}, OldText: "b\nc", NewText: "x"},
			{Range: LineRange{2, 2}, OldText: "b", NewText: "y"},
		}},
		{"ascending", []EditOperation{
			{Range: LineRange{1, 1}, OldText: "a", NewText: "x"},
			{Range: LineRange{3, 3}, OldText: "c", NewText: "y"},
		}},
		{"out of range", []EditOperation{{Range: LineRange{4, 4}, NewText: "x"}}},
		{"old text", []EditOperation{{Range: LineRange{1, 1}, OldText: "z", NewText: "x"}}},
	}
	for _, tt := range tests {
		if _, err := Apply(lines, tt.ops); err == nil || !strings.Contains(err.Error(), diag.ErrEditConflict.Error()) {
			t.Errorf("%s: expected edit conflict, got %v", tt.name, err)
		}
	}

	got, err := Apply(lines, []EditOperation{
		{Range: LineRange{3, 3}, OldText: "c", NewText: "c\nd"},
		{Range: LineRange{1, 2}, OldText: "a\nb", NewText: "ab"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if strings.Join(got, ",") != "ab,c,d" {
		t.Fatalf("Apply = %q", got)
	}
	if strings.Join(lines, ",") != "a,b,c" {
		t.Fatalf("Apply modified its input")
	}
}
