package main

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"rustmsg/internal/index"
	"rustmsg/internal/pipeline"
	"rustmsg/internal/ui"
)

type runOutcome struct {
	summary pipeline.Summary
	err     error
}

func runWithUI(ctx context.Context, title string, idx *index.Index, r io.Reader, opts pipeline.Options) (pipeline.Summary, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = pipeline.ChannelSink{Ch: events}
		sum, err := pipeline.Run(ctx, idx, r, optsCopy)
		outcomeCh <- runOutcome{summary: sum, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.summary, uiErr
	}
	return outcome.summary, outcome.err
}
