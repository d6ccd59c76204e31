package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"buildlens/internal/diag"
	"buildlens/internal/diagfmt"
	"buildlens/internal/report"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !cfg.Remediation.Enabled || cfg.Report.Title != report.DefaultTitle {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	formats, err := cfg.Formats()
	if err != nil || len(formats) != len(diagfmt.AllFormats()) {
		t.Fatalf("Formats = %v, %v", formats, err)
	}
	cats, err := cfg.Categories()
	if err != nil || cats != nil {
		t.Fatalf("Categories = %v, %v; want nil", cats, err)
	}
}

func TestLoadOverridesOnlyDefinedKeys(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[parse]
strip_prefixes = ['^/ci/checkout/']

[remediation]
categories = ["missing-module-import", "unbalanced-block-delimiter"]
require_excerpt = true

[report]
formats = ["json", "text"]

[run]
jobs = 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q", cfg.Path)
	}
	if !cfg.Remediation.Enabled {
		t.Errorf("enabled should keep its default")
	}
	if cfg.Remediation.Lookaround != Default().Remediation.Lookaround {
		t.Errorf("lookaround = %d", cfg.Remediation.Lookaround)
	}
	if !cfg.Remediation.RequireExcerpt || cfg.Run.Jobs != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	cats, err := cfg.Categories()
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 || cats[0] != diag.CatMissingModuleImport || cats[1] != diag.CatUnbalancedBlockDelimiter {
		t.Errorf("Categories = %v", cats)
	}
	formats, _ := cfg.Formats()
	if len(formats) != 2 || formats[0] != diagfmt.FormatJSON {
		t.Errorf("Formats = %v", formats)
	}
	norm, err := cfg.Normalizer()
	if err != nil {
		t.Fatal(err)
	}
	if got := norm.Normalize("/ci/checkout/App/Main.swift"); got != "App/Main.swift" {
		t.Errorf("Normalize = %q", got)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "[report]\ncolour = true\n"},
		{"empty formats", "[report]\nformats = []\n"},
		{"bad format", "[report]\nformats = [\"pdf\"]\n"},
		{"negative window", "[correlate]\nproximity_window = -1\n"},
		{"negative jobs", "[run]\njobs = -2\n"},
		{"unknown category", "[remediation]\ncategories = [\"typo\"]\n"},
		{"unsupported category", "[remediation]\ncategories = [\"linker-failure\"]\n"},
		{"bad prefix", "[parse]\nstrip_prefixes = [\"(\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestLoadSyntaxError(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[report\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestUnsupportedCategoryWrapsSentinel(t *testing.T) {
	cfg := Default()
	cfg.Remediation.Categories = []string{"linker-failure"}
	if _, err := cfg.Categories(); !errors.Is(err, diag.ErrUnsupportedCategory) {
		t.Fatalf("err = %v", err)
	}
}

func TestResolveWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, root, "[report]\ntitle = \"Nightly\"\n")

	cfg, err := Resolve("", nested)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Report.Title != "Nightly" || cfg.Path != filepath.Join(root, FileName) {
		t.Fatalf("got %+v", cfg)
	}
}

func TestResolveWithoutFile(t *testing.T) {
	cfg, err := Resolve("", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" || cfg.Report.Title != report.DefaultTitle {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}
