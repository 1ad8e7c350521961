package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"rbsec/internal/driver"
	"rbsec/internal/ui"
)

type lintOutcome struct {
	result *driver.Result
	err    error
}

// runLintWithUI lints files while a Bubble Tea program renders progress
// on out. The program exits when the driver closes the event channel.
func runLintWithUI(ctx context.Context, out io.Writer, title, baseDir string, files []string, opts driver.Options, jobs int) (*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan lintOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.LintFiles(ctx, baseDir, files, optsCopy, jobs)
		close(events)
		outcomeCh <- lintOutcome{result: res, err: err}
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithInput(nil), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// если UI вышел раньше, дочитываем события, чтобы воркеры не встали
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if outcome.err != nil {
		return outcome.result, outcome.err
	}
	return outcome.result, uiErr
}
