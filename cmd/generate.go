package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/mkbridge/slidekit/internal/extract"
	"github.com/mkbridge/slidekit/internal/formatter"
	"github.com/mkbridge/slidekit/internal/models"
	"github.com/mkbridge/slidekit/internal/shared"
	"github.com/mkbridge/slidekit/internal/styles"
	"github.com/mkbridge/slidekit/internal/tasks"
)

// outlineFailureHint is shown when every outline tier has been exhausted.
const outlineFailureHint = "Could not derive an outline from this document. Try a shorter document, fewer slides, or different material."

// deckConfigFromFlags builds the generation request from the shared source flags.
func (r *Runner) deckConfigFromFlags(cmd *cli.Command) (*models.DeckConfig, error) {
	source := cmd.String("text")
	if source == "" {
		input := cmd.String("input")
		if input == "" {
			return nil, fmt.Errorf("%w: provide a source document with --input or --text", shared.ErrMissingArgument)
		}
		content, err := extract.FromFile(input)
		if err != nil {
			return nil, err
		}
		source = content
	}

	cfg := &models.DeckConfig{
		SourceText: source,
		SlideCount: cmd.Int("slides"),
		StyleID:    cmd.String("style"),
	}
	if cfg.StyleID == "" {
		cfg.StyleID = styles.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return cfg, nil
}

// Outline extracts the slide outline and prints it without rendering images.
func (r *Runner) Outline(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireBackends(); err != nil {
		return err
	}

	cfg, err := r.deckConfigFromFlags(cmd)
	if err != nil {
		return err
	}

	r.writePlain("Analyzing document (%d slides requested)...\n", cfg.SlideCount)

	slides, err := r.engine.ExtractOutline(ctx, cfg, nil)
	if err != nil {
		if errors.Is(err, shared.ErrOutlineFailed) {
			r.writePlainln(outlineFailureHint)
		}
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(slides, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Outline: %d slides", len(slides)))
	return r.writePlain("%s", formatter.ExportToText(slides))
}

// Generate runs the full pipeline: outline extraction, sequential rendering, PDF export.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
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

	r.logger.Info("starting deck generation", "slides", cfg.SlideCount, "style", style.ID)
	r.writePlain("Generating a %d-slide deck in the %s style...\n\n", cfg.SlideCount, style.Name)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ExtractOutline:
				r.writePlain("📄 %s\n", update.Message)
			case tasks.OutlineReady:
				r.writePlain("📝 %s\n\n", update.Message)
			case tasks.RenderSlide:
				r.writePlain("🎨 %s\n", update.Message)
			case tasks.SlideDone, tasks.SlideFailed:
				r.writePlain("   %s\n", update.Message)
			case tasks.DeckComplete:
				r.writePlain("\n%s\n", update.Message)
			}
		}
	}()

	_, err = r.engine.ExtractOutline(ctx, cfg, progressCh)
	if err != nil {
		close(progressCh)
		<-drained
		if errors.Is(err, shared.ErrOutlineFailed) {
			r.writePlainln(outlineFailureHint)
		}
		return err
	}

	err = r.engine.RunAll(ctx, style, progressCh)
	close(progressCh)
	<-drained
	if err != nil {
		return err
	}

	slides := r.store.Slides()

	if cmd.Bool("images") || r.config.Output.SaveImages {
		result, err := formatter.WriteImageExport(slides, r.config.Output.Dir)
		if err != nil {
			return err
		}
		r.writePlain("Saved %d slide images to %s\n", len(result.Files), result.Directory)
	}

	if !r.store.AllDone() {
		failed := r.store.Counts()[models.StatusFailed]
		if !cmd.Bool("force") {
			r.writePlainln("⚠ %d slides failed to render. Re-run to retry them, or pass --force to export without them.", failed)
			return fmt.Errorf("%w: %d slides failed", shared.ErrDeckIncomplete, failed)
		}
		kept := make([]*models.SlideRecord, 0, len(slides))
		for _, slide := range slides {
			if slide.Status == models.StatusDone {
				kept = append(kept, slide)
			}
		}
		r.writePlain("⚠ Skipping %d failed slides\n", failed)
		slides = kept
	}

	path := cmd.String("output")
	if path == "" {
		path = r.config.Output.PDFName
	}

	written, err := formatter.WritePDFExport(slides, path)
	if err != nil {
		return err
	}

	r.writePlainHeader("Deck Complete!")
	r.writePlain("PDF: %s (%d slides)\n", written, len(slides))
	return nil
}
