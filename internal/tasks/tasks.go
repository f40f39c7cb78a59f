// package tasks implements the slide deck generation pipeline.
//
// The core abstraction is DeckBuilder, which orchestrates outline extraction,
// sequential slide rendering, and single-slide regeneration. Operations emit
// progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/mkbridge/slidekit/internal/deck"
	"github.com/mkbridge/slidekit/internal/models"
	"github.com/mkbridge/slidekit/internal/services"
	"github.com/mkbridge/slidekit/internal/shared"
	"github.com/mkbridge/slidekit/internal/styles"
)

// Image generation parameters. One model, one request per slide, no retries.
const (
	imageModel       = "gemini-3-pro-image-preview"
	imageAspectRatio = "16:9"
	imageSize        = "1K"
)

// outlineTier is one model configuration in the outline fallback ladder.
type outlineTier struct {
	model           string
	maxOutputTokens int
	thinkingBudget  int
}

// outlineTiers is tried in order; the first tier that yields a usable outline
// wins. Later tiers trade quality for reliability under load.
var outlineTiers = []outlineTier{
	{model: "gemini-3-pro-preview", maxOutputTokens: 16384, thinkingBudget: 8192},
	{model: "gemini-3-pro-preview", maxOutputTokens: 12000},
	{model: "gemini-3-flash-preview", maxOutputTokens: 12000},
}

// DeckBuilder defines the operations for generating a slide deck.
type DeckBuilder interface {
	// ExtractOutline derives a slide outline from the source text and loads it
	// into the store, replacing any previous deck.
	ExtractOutline(ctx context.Context, cfg *models.DeckConfig, progress chan<- ProgressUpdate) ([]*models.SlideRecord, error)

	// RunAll renders every slide that is not already done, in page order,
	// waiting on the rate limiter before each request. Per-slide failures are
	// recorded on the slide and never abort the run.
	RunAll(ctx context.Context, style *styles.Definition, progress chan<- ProgressUpdate) error

	// Regenerate re-renders a single slide by id.
	Regenerate(ctx context.Context, id string, style *styles.Definition, progress chan<- ProgressUpdate) (*models.SlideRecord, error)
}

// DeckEngine implements DeckBuilder on top of a text backend, an image backend,
// and a slide store.
type DeckEngine struct {
	text           services.TextService
	image          services.ImageService
	store          *deck.Store
	limiter        *rate.Limiter
	maxSourceChars int
	logger         *log.Logger
}

// NewDeckEngine creates a DeckEngine. requestsPerSecond bounds the pace of
// image requests; maxSourceChars bounds the source text sent for outlining.
func NewDeckEngine(text services.TextService, image services.ImageService, store *deck.Store, requestsPerSecond float64, maxSourceChars int, logger *log.Logger) *DeckEngine {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 0.5
	}
	if maxSourceChars <= 0 {
		maxSourceChars = 25000
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &DeckEngine{
		text:           text,
		image:          image,
		store:          store,
		limiter:        rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		maxSourceChars: maxSourceChars,
		logger:         shared.WithLogger(logger, "component", "engine"),
	}
}

// Store returns the engine's slide store.
func (e *DeckEngine) Store() *deck.Store {
	return e.store
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *DeckEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// outlinePayload mirrors the structured-output schema requested from the text backend.
type outlinePayload struct {
	Slides []struct {
		Title        string   `json:"title"`
		BulletPoints []string `json:"bullet_points"`
		VisualPrompt string   `json:"visual_prompt"`
	} `json:"slides"`
}

func outlineSchema() map[string]any {
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"slides": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"title":         map[string]any{"type": "STRING"},
						"bullet_points": map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
						"visual_prompt": map[string]any{"type": "STRING"},
					},
					"required": []string{"title", "bullet_points", "visual_prompt"},
				},
			},
		},
		"required": []string{"slides"},
	}
}

const outlineSystemInstruction = "You are an expert presentation designer. You turn source documents into clear, well-structured slide outlines. Every slide gets a short title, 2-4 concise bullet points, and a visual_prompt describing an image that supports the slide's message. Write titles and bullet points in the same language as the source document. Write visual_prompt in English regardless of the source language; it is an instruction for an image generation model."

func buildOutlinePrompt(source string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create an outline for a presentation of exactly %d slides from the source document below. ", count)
	b.WriteString("Cover the document's main ideas in a logical order. Keep bullet points short enough to fit on a slide. ")
	b.WriteString("Titles and bullet points stay in the source document's language; visual_prompt is always English.\n\n")
	b.WriteString("Source document:\n")
	b.WriteString(source)
	return b.String()
}

// ExtractOutline derives the slide outline, trying each model tier in order.
func (e *DeckEngine) ExtractOutline(ctx context.Context, cfg *models.DeckConfig, progress chan<- ProgressUpdate) ([]*models.SlideRecord, error) {
	if e.text == nil {
		return nil, fmt.Errorf("%w: text backend not initialized", shared.ErrServiceUnavailable)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	source := cfg.SourceText
	if len([]rune(source)) > e.maxSourceChars {
		e.logger.Info("truncating source text", "max_chars", e.maxSourceChars)
		source = shared.TruncateRunes(source, e.maxSourceChars)
	}

	prompt := buildOutlinePrompt(source, cfg.SlideCount)
	schema := outlineSchema()

	var lastErr error
	for i, tier := range outlineTiers {
		e.sendProgress(progress, extractOutlineUpdate(i+1, len(outlineTiers), tier.model))

		raw, err := e.text.GenerateJSON(ctx, services.TextRequest{
			Model:           tier.model,
			Prompt:          prompt,
			System:          outlineSystemInstruction,
			Schema:          schema,
			MaxOutputTokens: tier.maxOutputTokens,
			ThinkingBudget:  tier.thinkingBudget,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warn("outline tier failed", "model", tier.model, "attempt", i+1, "error", err)
			lastErr = err
			continue
		}

		var payload outlinePayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			e.logger.Warn("outline tier returned unparseable JSON", "model", tier.model, "attempt", i+1, "error", err)
			lastErr = fmt.Errorf("failed to parse outline: %w", err)
			continue
		}
		if len(payload.Slides) == 0 {
			e.logger.Warn("outline tier returned no slides", "model", tier.model, "attempt", i+1)
			lastErr = fmt.Errorf("outline contained no slides")
			continue
		}

		slides := e.buildSlides(&payload, cfg.SlideCount)
		e.store.Reset(slides)
		e.logger.Info("outline extracted", "model", tier.model, "slides", len(slides))
		e.sendProgress(progress, outlineReadyUpdate(len(slides)))
		return e.store.Slides(), nil
	}

	return nil, fmt.Errorf("%w: %v", shared.ErrOutlineFailed, lastErr)
}

// buildSlides converts a parsed outline into slide records, filling defaults
// for fields the model left blank and trimming any surplus slides.
func (e *DeckEngine) buildSlides(payload *outlinePayload, want int) []*models.SlideRecord {
	entries := payload.Slides
	if len(entries) > want {
		entries = entries[:want]
	}

	slides := make([]*models.SlideRecord, 0, len(entries))
	for i, entry := range entries {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			title = fmt.Sprintf("Slide %d", i+1)
		}
		bullets := entry.BulletPoints
		if bullets == nil {
			bullets = []string{}
		}
		visual := strings.TrimSpace(entry.VisualPrompt)
		if visual == "" {
			visual = fmt.Sprintf("An abstract professional illustration representing %q", title)
		}
		slides = append(slides, &models.SlideRecord{
			ID:           shared.GenerateID(),
			PageNumber:   i + 1,
			Title:        title,
			BulletPoints: bullets,
			VisualPrompt: visual,
			Status:       models.StatusWaiting,
		})
	}
	return slides
}

// buildRenderPrompt assembles the full image instruction for one slide.
func buildRenderPrompt(slide *models.SlideRecord, style *styles.Definition) string {
	var b strings.Builder
	b.WriteString(style.Directive)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Slide title: %q\n", slide.Title)
	if len(slide.BulletPoints) > 0 {
		b.WriteString("Key points to display on the slide:\n")
		for _, point := range slide.BulletPoints {
			fmt.Fprintf(&b, "- %s\n", point)
		}
	}
	if slide.VisualPrompt != "" {
		fmt.Fprintf(&b, "Visual concept: %s\n", slide.VisualPrompt)
	}
	b.WriteString("\nThe image is a complete 16:9 presentation slide. Render the title and key points as legible, correctly spelled text within the composition. Do not include window chrome, browser frames, or watermarks.")
	return b.String()
}

// renderFailureMessage maps a render error to the message stored on the slide.
func renderFailureMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrPermissionDenied):
		return "Image generation is not permitted for this API key. Check model access and billing."
	case errors.Is(err, shared.ErrNoImageData):
		return "The model returned no image. Try regenerating this slide."
	default:
		return "Image generation failed. Try regenerating this slide."
	}
}

// renderSlide performs the single image request for one slide. No retries.
func (e *DeckEngine) renderSlide(ctx context.Context, slide *models.SlideRecord, style *styles.Definition) (*models.RenderedImage, error) {
	return e.image.GenerateImage(ctx, services.ImageRequest{
		Model:       imageModel,
		Prompt:      buildRenderPrompt(slide, style),
		AspectRatio: imageAspectRatio,
		ImageSize:   imageSize,
	})
}

// RunAll renders the deck sequentially. Slides already done are skipped, so a
// second run retries only the failures. The returned error is nil unless the
// context is cancelled or a precondition fails; individual slide failures are
// recorded on the slides themselves.
func (e *DeckEngine) RunAll(ctx context.Context, style *styles.Definition, progress chan<- ProgressUpdate) error {
	if e.image == nil {
		return fmt.Errorf("%w: image backend not initialized", shared.ErrServiceUnavailable)
	}
	if style == nil {
		return fmt.Errorf("%w: style is required", shared.ErrInvalidArgument)
	}

	slides := e.store.Slides()
	total := len(slides)
	if total == 0 {
		return fmt.Errorf("%w: no outline loaded", shared.ErrInvalidInput)
	}

	for i, slide := range slides {
		if slide.Status == models.StatusDone {
			continue
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}

		if err := e.store.BeginRender(slide.ID); err != nil {
			// Another caller is already rendering this slide; leave it to them.
			if errors.Is(err, shared.ErrRenderInFlight) {
				e.logger.Warn("skipping slide with render in flight", "page", slide.PageNumber)
				continue
			}
			return err
		}
		e.sendProgress(progress, renderSlideUpdate(i+1, total, slide))

		img, err := e.renderSlide(ctx, slide, style)
		if err != nil {
			if ctx.Err() != nil {
				_ = e.store.FailRender(slide.ID, renderFailureMessage(err))
				return ctx.Err()
			}
			e.logger.Error("slide render failed", "page", slide.PageNumber, "error", err)
			_ = e.store.FailRender(slide.ID, renderFailureMessage(err))
			updated, _ := e.store.Get(slide.ID)
			e.sendProgress(progress, slideFailedUpdate(i+1, total, updated))
			continue
		}

		_ = e.store.CompleteRender(slide.ID, img)
		updated, _ := e.store.Get(slide.ID)
		e.sendProgress(progress, slideDoneUpdate(i+1, total, updated))
	}

	done := e.store.Counts()[models.StatusDone]
	e.logger.Info("bulk render finished", "done", done, "total", total)
	e.sendProgress(progress, deckCompleteUpdate(done, total))
	return nil
}

// Regenerate re-renders one slide. It respects the same rate limiter as bulk
// rendering and refuses to start while another render of the slide is in flight.
func (e *DeckEngine) Regenerate(ctx context.Context, id string, style *styles.Definition, progress chan<- ProgressUpdate) (*models.SlideRecord, error) {
	if e.image == nil {
		return nil, fmt.Errorf("%w: image backend not initialized", shared.ErrServiceUnavailable)
	}
	if style == nil {
		return nil, fmt.Errorf("%w: style is required", shared.ErrInvalidArgument)
	}

	slide, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}
	total := e.store.Len()

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := e.store.BeginRender(id); err != nil {
		return nil, err
	}
	e.sendProgress(progress, renderSlideUpdate(slide.PageNumber, total, slide))

	img, err := e.renderSlide(ctx, slide, style)
	if err != nil {
		e.logger.Error("slide regeneration failed", "page", slide.PageNumber, "error", err)
		_ = e.store.FailRender(id, renderFailureMessage(err))
		updated, getErr := e.store.Get(id)
		if getErr != nil {
			return nil, getErr
		}
		e.sendProgress(progress, slideFailedUpdate(slide.PageNumber, total, updated))
		return updated, nil
	}

	_ = e.store.CompleteRender(id, img)
	updated, getErr := e.store.Get(id)
	if getErr != nil {
		return nil, getErr
	}
	e.sendProgress(progress, slideDoneUpdate(slide.PageNumber, total, updated))
	return updated, nil
}
