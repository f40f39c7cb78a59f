package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/mkbridge/slidekit/internal/shared"
	"github.com/mkbridge/slidekit/internal/styles"
	"github.com/mkbridge/slidekit/internal/ui"
)

// TUI launches the interactive deck generation frontend.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireBackends(); err != nil {
		return err
	}

	cfg, err := r.deckConfigFromFlags(cmd)
	if err != nil {
		return err
	}
	style, err := styles.Lookup(cfg.StyleID)
	if err != nil {
		return err
	}

	pdfPath := cmd.String("output")
	if pdfPath == "" {
		pdfPath = r.config.Output.PDFName
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/slidekit-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.engine, cfg, style, pdfPath)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
