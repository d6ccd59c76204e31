package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"buildlens/internal/progress"
)

func feed(t *testing.T, m tea.Model, events ...progress.Event) *progressModel {
	t.Helper()
	for _, ev := range events {
		m, _ = m.Update(eventMsg(ev))
	}
	pm, ok := m.(*progressModel)
	if !ok {
		t.Fatalf("unexpected model type %T", m)
	}
	return pm
}

func TestProgressTracksStagesAndUnits(t *testing.T) {
	m := NewProgressModel("buildlens", []string{"a.log", "b.log"}, nil)
	pm := feed(t, m,
		progress.Event{Stage: progress.StageParse, Status: progress.StatusWorking},
		progress.Event{Stage: progress.StageParse, Unit: "a.log", Status: progress.StatusDone, Count: 3},
	)
	if got := pm.percent(); got != 0.5/5 {
		t.Fatalf("percent = %v, want %v", got, 0.5/5)
	}
	view := pm.View()
	if !strings.Contains(view, "(parsing)") || !strings.Contains(view, "a.log") {
		t.Fatalf("view:\n%s", view)
	}

	pm = feed(t, pm,
		progress.Event{Stage: progress.StageParse, Unit: "b.log", Status: progress.StatusError},
		progress.Event{Stage: progress.StageParse, Status: progress.StatusDone, Count: 3},
		progress.Event{Stage: progress.StageClassify, Status: progress.StatusDone, Count: 3},
		progress.Event{Stage: progress.StageRemediate, Status: progress.StatusWorking},
		progress.Event{Stage: progress.StageRemediate, Unit: "App/View.swift", Status: progress.StatusDone, Count: 1},
	)
	if len(pm.units) != 3 {
		t.Fatalf("remediated files should be added as units: %+v", pm.units)
	}
	if got := pm.percent(); got != 3.0/5 {
		t.Fatalf("percent = %v, want %v", got, 3.0/5)
	}
	if !strings.Contains(pm.View(), "App/View.swift") {
		t.Fatalf("remediated file missing from view")
	}
}

func TestProgressQuitsWhenEventsClose(t *testing.T) {
	ch := make(chan progress.Event)
	close(ch)
	m := NewProgressModel("buildlens", nil, ch).(*progressModel)
	msg := m.listenForEvent()()
	if _, ok := msg.(doneMsg); !ok {
		t.Fatalf("expected doneMsg, got %T", msg)
	}
	next, cmd := m.Update(msg)
	if cmd == nil || !next.(*progressModel).done {
		t.Fatalf("model should be done and quit")
	}
	if !strings.Contains(next.View(), "done: buildlens") {
		t.Fatalf("view:\n%s", next.View())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"Sources/App/VeryLongFileName.swift", 12, "Sources/A..."},
		{"abcdef", 3, "abc"},
		{"any", 0, "any"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
