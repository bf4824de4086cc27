package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mree-music/mree/internal/shared"
	"github.com/mree-music/mree/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive library browser and player.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/mree-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.logger = fileLogger

	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()
	defer svc.playback.Stop()

	model := ui.NewModel(ctx, svc.catalog, svc.playback)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
