package fix_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"buildlens/internal/diag"
	"buildlens/internal/fix"
	"buildlens/internal/source"
	"buildlens/internal/testkit"
)

func TestBatchesSatisfyInvariants(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("import Foundation\n")
	sb.WriteString("\n")
	sb.WriteString("private struct Store {}\n")
	sb.WriteString("public extension Store {\n")
	sb.WriteString("    var items: [String]\n")
	sb.WriteString("    var index: [String: Int]\n")
	for i := 0; i < 12; i++ {
		sb.WriteString("    // padding\n")
	}
	sb.WriteString("    init() {\n")
	sb.WriteString("        load {\n")
	sb.WriteString("    }\n")
	fsys := fstest.MapFS{"Sources/Store.swift": &fstest.MapFile{Data: []byte(sb.String())}}
	tree := source.NewTree(fsys, "", nil)

	at := func(id string, line int, cat diag.Category, msg string) diag.Issue {
		return diag.Issue{ID: id, Loc: diag.Location{File: "Store.swift", Line: line, Column: 1}, Category: cat, Message: msg}
	}
	issues := []diag.Issue{
		at("I0001", 4, diag.CatVisibilityConflict, "extension of private struct 'Store' cannot be declared public"),
		at("I0002", 6, diag.CatUninitializedRequiredField, "property 'items' not initialized"),
		at("I0003", 6, diag.CatUninitializedRequiredField, "property 'index' not initialized"),
		at("I0004", 20, diag.CatUnbalancedBlockDelimiter, "expected '}' at end of closure"),
		at("I0005", 20, diag.CatMissingModuleImport, "No such module 'Storage'"),
	}

	res, err := fix.Remediate(context.Background(), issues, tree, fix.Options{})
	if err != nil {
		t.Fatalf("Remediate: %v", err)
	}
	if len(res.Batches) != 1 {
		t.Fatalf("expected one batch, got %d", len(res.Batches))
	}
	b := res.Batches[0]
	if b.Path != "Sources/Store.swift" || b.File != "Store.swift" {
		t.Fatalf("unexpected paths %q / %q", b.Path, b.File)
	}
	if len(b.Edits) != 5 {
		t.Fatalf("expected 5 edits, got %d; suggestions %+v", len(b.Edits), res.Suggestions)
	}
	if err := testkit.CheckBatchInvariants(b); err != nil {
		t.Fatal(err)
	}
	after := string(b.After)
	for _, want := range []string{"import Foundation\nimport Storage\n", "\nextension Store {\n", "var items: [String] = []\n", "var index: [String: Int] = [:]\n", "        load {\n        }\n    }\n"} {
		if !strings.Contains(after, want) {
			t.Errorf("After is missing %q:\n%s", want, after)
		}
	}
}
