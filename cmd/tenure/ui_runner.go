package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"tenure/internal/driver"
	"tenure/internal/ui"
)

type explainOutcome struct {
	result *driver.Result
	err    error
}

// runExplainDirWithUI runs the directory pipeline under the progress
// TUI. The pipeline streams events into the model; the outcome channel
// keeps the result alive past the channel close.
func runExplainDirWithUI(ctx context.Context, title, dir string, files []string, opts driver.Options) (*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan explainOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.ExplainDir(ctx, dir, optsCopy)
		outcomeCh <- explainOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
