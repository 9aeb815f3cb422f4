package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/yunx/internal/shared"
	"github.com/desertthunder/yunx/internal/tasks"
	"github.com/desertthunder/yunx/internal/ui"
)

const tuiLogPath = "./tmp/yunx-tui.log"

// redirectLogs points the runner's logger at a file and returns a func restoring the previous one.
//
// Must run before the fetcher is built, which captures the logger.
func (r *Runner) redirectLogs(path string) (func(), error) {
	fileLogger, err := shared.NewFileLogger(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())

	previous := r.logger
	r.SetLogger(fileLogger)
	return func() { r.SetLogger(previous) }, nil
}

// downloadTUI runs a download behind the interactive progress view.
func (r *Runner) downloadTUI(ctx context.Context, run ui.RunFunc) ([]tasks.AudioResult, error) {
	model := ui.NewDownloadModel(ctx, run)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	return model.Results()
}
