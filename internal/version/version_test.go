package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestColored(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = prev }()

	got := Colored("1.2.3-rc.1")
	if !strings.Contains(got, "\x1b[") || !strings.HasSuffix(got, "-rc.1") {
		t.Fatalf("Colored = %q", got)
	}
	if got := Colored("nightly"); got != "nightly" {
		t.Fatalf("non-semver input must pass through, got %q", got)
	}
}

func TestInfo(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	Version, GitCommit, BuildDate = "1.2.3", "", ""
	if got := Info(false); got != "buildlens 1.2.3\n" {
		t.Fatalf("Info = %q", got)
	}

	GitCommit, BuildDate = "abc123def456", "2024-01-15T10:30:00Z"
	want := "buildlens 1.2.3\ncommit: abc123def456\nbuilt:  2024-01-15T10:30:00Z\n"
	if got := Info(false); got != want {
		t.Fatalf("Info = %q, want %q", got, want)
	}
}
