package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"buildlens/internal/driver"
	"buildlens/internal/parser"
	"buildlens/internal/progress"
	"buildlens/internal/ui"
)

type analyzeOutcome struct {
	result *driver.Result
	err    error
}

func runAnalyzeWithUI(ctx context.Context, title string, sources []parser.Source, opts driver.Options) (*driver.Result, error) {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}
	events := make(chan progress.Event, 256)
	outcomeCh := make(chan analyzeOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = progress.ChannelSink{Ch: events}
		res, err := driver.Analyze(ctx, sources, optsCopy)
		outcomeCh <- analyzeOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep draining so the driver can finish
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
