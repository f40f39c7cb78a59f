package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mkbridge/slidekit/internal/deck"
	"github.com/mkbridge/slidekit/internal/models"
	"github.com/mkbridge/slidekit/internal/services"
	"github.com/mkbridge/slidekit/internal/shared"
	"github.com/mkbridge/slidekit/internal/styles"
)

type mockTextService struct {
	responses []string
	errs      []error
	requests  []services.TextRequest
}

func (m *mockTextService) Name() string { return "mock-text" }

func (m *mockTextService) GenerateJSON(ctx context.Context, req services.TextRequest) ([]byte, error) {
	i := len(m.requests)
	m.requests = append(m.requests, req)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.responses) {
		return []byte(m.responses[i]), nil
	}
	return nil, fmt.Errorf("unexpected request %d", i)
}

type mockImageService struct {
	errs     map[int]error // request index -> error
	requests []services.ImageRequest
}

func (m *mockImageService) Name() string { return "mock-image" }

func (m *mockImageService) GenerateImage(ctx context.Context, req services.ImageRequest) (*models.RenderedImage, error) {
	i := len(m.requests)
	m.requests = append(m.requests, req)
	if err, ok := m.errs[i]; ok {
		return nil, err
	}
	return &models.RenderedImage{Data: []byte("image-bytes"), MimeType: "image/png"}, nil
}

func testStyle(t *testing.T) *styles.Definition {
	t.Helper()
	style, err := styles.Lookup(styles.Default())
	if err != nil {
		t.Fatalf("Lookup(default) error: %v", err)
	}
	return style
}

func newTestEngine(text services.TextService, image services.ImageService) *DeckEngine {
	// High rate so tests never sleep on the limiter.
	return NewDeckEngine(text, image, deck.NewStore(), 1000, 25000, nil)
}

const validOutline = `{"slides":[
	{"title":"Intro","bullet_points":["one","two"],"visual_prompt":"a sunrise"},
	{"title":"Middle","bullet_points":["three"],"visual_prompt":"a bridge"},
	{"title":"End","bullet_points":[],"visual_prompt":"a sunset"}
]}`

func TestDeckEngine_ExtractOutline(t *testing.T) {
	cfg := &models.DeckConfig{SourceText: "source document", SlideCount: 3, StyleID: "professional"}

	t.Run("first tier succeeds", func(t *testing.T) {
		text := &mockTextService{responses: []string{validOutline}}
		engine := newTestEngine(text, nil)

		slides, err := engine.ExtractOutline(context.Background(), cfg, nil)
		if err != nil {
			t.Fatalf("ExtractOutline() error: %v", err)
		}
		if len(slides) != 3 {
			t.Fatalf("got %d slides, want 3", len(slides))
		}
		if len(text.requests) != 1 {
			t.Errorf("got %d requests, want 1", len(text.requests))
		}
		if text.requests[0].Model != "gemini-3-pro-preview" {
			t.Errorf("first tier model = %q", text.requests[0].Model)
		}
		if text.requests[0].ThinkingBudget != 8192 {
			t.Errorf("first tier thinking budget = %d, want 8192", text.requests[0].ThinkingBudget)
		}
		for i, slide := range slides {
			if slide.ID == "" {
				t.Errorf("slide %d has no id", i)
			}
			if slide.PageNumber != i+1 {
				t.Errorf("slide %d page number = %d", i, slide.PageNumber)
			}
			if slide.Status != models.StatusWaiting {
				t.Errorf("slide %d status = %v, want waiting", i, slide.Status)
			}
		}
	})

	t.Run("falls through tiers in order", func(t *testing.T) {
		text := &mockTextService{
			responses: []string{"", "", validOutline},
			errs:      []error{errors.New("overloaded"), errors.New("overloaded"), nil},
		}
		engine := newTestEngine(text, nil)

		slides, err := engine.ExtractOutline(context.Background(), cfg, nil)
		if err != nil {
			t.Fatalf("ExtractOutline() error: %v", err)
		}
		if len(slides) != 3 {
			t.Fatalf("got %d slides, want 3", len(slides))
		}
		if len(text.requests) != 3 {
			t.Fatalf("got %d requests, want 3", len(text.requests))
		}
		wantModels := []string{"gemini-3-pro-preview", "gemini-3-pro-preview", "gemini-3-flash-preview"}
		for i, want := range wantModels {
			if text.requests[i].Model != want {
				t.Errorf("request %d model = %q, want %q", i, text.requests[i].Model, want)
			}
		}
		if text.requests[1].ThinkingBudget != 0 {
			t.Errorf("second tier thinking budget = %d, want 0", text.requests[1].ThinkingBudget)
		}
	})

	t.Run("unparseable JSON counts as tier failure", func(t *testing.T) {
		text := &mockTextService{responses: []string{"not json", validOutline}}
		engine := newTestEngine(text, nil)

		if _, err := engine.ExtractOutline(context.Background(), cfg, nil); err != nil {
			t.Fatalf("ExtractOutline() error: %v", err)
		}
		if len(text.requests) != 2 {
			t.Errorf("got %d requests, want 2", len(text.requests))
		}
	})

	t.Run("all tiers failing returns ErrOutlineFailed", func(t *testing.T) {
		boom := errors.New("boom")
		text := &mockTextService{errs: []error{boom, boom, boom}, responses: []string{"", "", ""}}
		engine := newTestEngine(text, nil)

		_, err := engine.ExtractOutline(context.Background(), cfg, nil)
		if !errors.Is(err, shared.ErrOutlineFailed) {
			t.Errorf("error = %v, want ErrOutlineFailed", err)
		}
		if len(text.requests) != 3 {
			t.Errorf("got %d requests, want 3", len(text.requests))
		}
	})

	t.Run("fills defaults for blank fields", func(t *testing.T) {
		outline := `{"slides":[{"title":"","bullet_points":null,"visual_prompt":""},{"title":"Named","bullet_points":["a"],"visual_prompt":"a chart"}]}`
		text := &mockTextService{responses: []string{outline}}
		engine := newTestEngine(text, nil)

		slides, err := engine.ExtractOutline(context.Background(), &models.DeckConfig{SourceText: "doc", SlideCount: 2, StyleID: "professional"}, nil)
		if err != nil {
			t.Fatalf("ExtractOutline() error: %v", err)
		}
		if slides[0].Title != "Slide 1" {
			t.Errorf("default title = %q, want %q", slides[0].Title, "Slide 1")
		}
		if slides[0].BulletPoints == nil || len(slides[0].BulletPoints) != 0 {
			t.Errorf("default bullets = %#v, want empty slice", slides[0].BulletPoints)
		}
		if slides[0].VisualPrompt == "" {
			t.Error("default visual prompt is empty")
		}
		if slides[1].Title != "Named" {
			t.Errorf("kept title = %q", slides[1].Title)
		}
	})

	t.Run("trims surplus slides to the requested count", func(t *testing.T) {
		text := &mockTextService{responses: []string{validOutline}}
		engine := newTestEngine(text, nil)

		slides, err := engine.ExtractOutline(context.Background(), &models.DeckConfig{SourceText: "doc", SlideCount: 2, StyleID: "professional"}, nil)
		if err != nil {
			t.Fatalf("ExtractOutline() error: %v", err)
		}
		if len(slides) != 2 {
			t.Errorf("got %d slides, want 2", len(slides))
		}
	})

	t.Run("truncates long source text", func(t *testing.T) {
		text := &mockTextService{responses: []string{validOutline}}
		engine := NewDeckEngine(text, nil, deck.NewStore(), 1000, 100, nil)

		long := strings.Repeat("x", 500)
		_, err := engine.ExtractOutline(context.Background(), &models.DeckConfig{SourceText: long, SlideCount: 3, StyleID: "professional"}, nil)
		if err != nil {
			t.Fatalf("ExtractOutline() error: %v", err)
		}
		if strings.Contains(text.requests[0].Prompt, long) {
			t.Error("prompt contains untruncated source")
		}
		if !strings.Contains(text.requests[0].Prompt, strings.Repeat("x", 100)+"...") {
			t.Error("prompt missing truncated source with ellipsis")
		}
	})

	t.Run("pins outline languages", func(t *testing.T) {
		text := &mockTextService{responses: []string{validOutline}}
		engine := newTestEngine(text, nil)

		if _, err := engine.ExtractOutline(context.Background(), cfg, nil); err != nil {
			t.Fatalf("ExtractOutline() error: %v", err)
		}

		req := text.requests[0]
		combined := req.System + "\n" + req.Prompt
		if !strings.Contains(combined, "English") {
			t.Error("request does not force visual_prompt into English")
		}
		if !strings.Contains(combined, "source document's language") && !strings.Contains(combined, "language as the source document") {
			t.Error("request does not keep titles and bullets in the source language")
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		engine := newTestEngine(&mockTextService{}, nil)
		_, err := engine.ExtractOutline(context.Background(), &models.DeckConfig{SourceText: "doc", SlideCount: 0, StyleID: "professional"}, nil)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})
}

func loadOutline(t *testing.T, engine *DeckEngine, count int) []*models.SlideRecord {
	t.Helper()
	slides := make([]*models.SlideRecord, 0, count)
	for i := 0; i < count; i++ {
		slides = append(slides, &models.SlideRecord{
			ID:           fmt.Sprintf("slide-%d", i+1),
			PageNumber:   i + 1,
			Title:        fmt.Sprintf("Title %d", i+1),
			BulletPoints: []string{"point"},
			VisualPrompt: "a diagram",
			Status:       models.StatusWaiting,
		})
	}
	engine.Store().Reset(slides)
	return slides
}

func TestDeckEngine_RunAll(t *testing.T) {
	t.Run("renders every slide in order", func(t *testing.T) {
		image := &mockImageService{}
		engine := newTestEngine(nil, image)
		loadOutline(t, engine, 3)

		progress := make(chan ProgressUpdate, 50)
		if err := engine.RunAll(context.Background(), testStyle(t), progress); err != nil {
			t.Fatalf("RunAll() error: %v", err)
		}
		close(progress)

		if len(image.requests) != 3 {
			t.Fatalf("got %d image requests, want 3", len(image.requests))
		}
		for i, req := range image.requests {
			if req.AspectRatio != "16:9" {
				t.Errorf("request %d aspect ratio = %q", i, req.AspectRatio)
			}
			if !strings.Contains(req.Prompt, fmt.Sprintf("Title %d", i+1)) {
				t.Errorf("request %d prompt missing slide title", i)
			}
		}
		if !engine.Store().AllDone() {
			t.Error("store not all done after successful run")
		}
	})

	t.Run("continues past failures", func(t *testing.T) {
		image := &mockImageService{errs: map[int]error{1: errors.New("render exploded")}}
		engine := newTestEngine(nil, image)
		slides := loadOutline(t, engine, 3)

		if err := engine.RunAll(context.Background(), testStyle(t), nil); err != nil {
			t.Fatalf("RunAll() error: %v", err)
		}

		if len(image.requests) != 3 {
			t.Fatalf("got %d image requests, want 3", len(image.requests))
		}
		failed, err := engine.Store().Get(slides[1].ID)
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if failed.Status != models.StatusFailed {
			t.Errorf("slide 2 status = %v, want failed", failed.Status)
		}
		if failed.LastError == "" {
			t.Error("failed slide has no error message")
		}
		counts := engine.Store().Counts()
		if counts[models.StatusDone] != 2 || counts[models.StatusFailed] != 1 {
			t.Errorf("counts = %v", counts)
		}
	})

	t.Run("second run retries only failures", func(t *testing.T) {
		image := &mockImageService{errs: map[int]error{0: errors.New("flaky")}}
		engine := newTestEngine(nil, image)
		loadOutline(t, engine, 2)

		if err := engine.RunAll(context.Background(), testStyle(t), nil); err != nil {
			t.Fatalf("first RunAll() error: %v", err)
		}
		if err := engine.RunAll(context.Background(), testStyle(t), nil); err != nil {
			t.Fatalf("second RunAll() error: %v", err)
		}

		// 2 requests in the first run, 1 retry in the second
		if len(image.requests) != 3 {
			t.Errorf("got %d image requests, want 3", len(image.requests))
		}
		if !engine.Store().AllDone() {
			t.Error("store not all done after retry")
		}
	})

	t.Run("applies style directive to prompts", func(t *testing.T) {
		image := &mockImageService{}
		engine := newTestEngine(nil, image)
		loadOutline(t, engine, 1)
		style := testStyle(t)

		if err := engine.RunAll(context.Background(), style, nil); err != nil {
			t.Fatalf("RunAll() error: %v", err)
		}
		if !strings.Contains(image.requests[0].Prompt, style.Directive) {
			t.Error("prompt missing style directive")
		}
	})

	t.Run("empty deck is an error", func(t *testing.T) {
		engine := newTestEngine(nil, &mockImageService{})
		if err := engine.RunAll(context.Background(), testStyle(t), nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("cancelled context stops the run", func(t *testing.T) {
		image := &mockImageService{}
		engine := newTestEngine(nil, image)
		loadOutline(t, engine, 3)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := engine.RunAll(ctx, testStyle(t), nil); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if len(image.requests) != 0 {
			t.Errorf("got %d image requests after cancel, want 0", len(image.requests))
		}
	})
}

func TestDeckEngine_Regenerate(t *testing.T) {
	t.Run("replaces the image on success", func(t *testing.T) {
		image := &mockImageService{}
		engine := newTestEngine(nil, image)
		slides := loadOutline(t, engine, 2)

		if err := engine.RunAll(context.Background(), testStyle(t), nil); err != nil {
			t.Fatalf("RunAll() error: %v", err)
		}

		updated, err := engine.Regenerate(context.Background(), slides[0].ID, testStyle(t), nil)
		if err != nil {
			t.Fatalf("Regenerate() error: %v", err)
		}
		if updated.Status != models.StatusDone {
			t.Errorf("status = %v, want done", updated.Status)
		}
		if updated.Image == nil {
			t.Error("regenerated slide has no image")
		}
		if len(image.requests) != 3 {
			t.Errorf("got %d image requests, want 3", len(image.requests))
		}
	})

	t.Run("permission denied yields a fixed user-facing message", func(t *testing.T) {
		image := &mockImageService{errs: map[int]error{
			0: fmt.Errorf("%w: status 403", shared.ErrPermissionDenied),
		}}
		engine := newTestEngine(nil, image)
		slides := loadOutline(t, engine, 1)

		updated, err := engine.Regenerate(context.Background(), slides[0].ID, testStyle(t), nil)
		if err != nil {
			t.Fatalf("Regenerate() error: %v", err)
		}
		if updated.Status != models.StatusFailed {
			t.Errorf("status = %v, want failed", updated.Status)
		}
		if !strings.Contains(updated.LastError, "not permitted") {
			t.Errorf("LastError = %q, want permission message", updated.LastError)
		}
	})

	t.Run("unknown slide id", func(t *testing.T) {
		engine := newTestEngine(nil, &mockImageService{})
		loadOutline(t, engine, 1)

		if _, err := engine.Regenerate(context.Background(), "missing", testStyle(t), nil); !errors.Is(err, shared.ErrSlideNotFound) {
			t.Errorf("error = %v, want ErrSlideNotFound", err)
		}
	})

	t.Run("refuses while a render is in flight", func(t *testing.T) {
		engine := newTestEngine(nil, &mockImageService{})
		slides := loadOutline(t, engine, 1)

		if err := engine.Store().BeginRender(slides[0].ID); err != nil {
			t.Fatalf("BeginRender() error: %v", err)
		}
		if _, err := engine.Regenerate(context.Background(), slides[0].ID, testStyle(t), nil); !errors.Is(err, shared.ErrRenderInFlight) {
			t.Errorf("error = %v, want ErrRenderInFlight", err)
		}
	})
}

func TestDeckEngine_Progress(t *testing.T) {
	image := &mockImageService{errs: map[int]error{1: errors.New("boom")}}
	engine := newTestEngine(nil, image)
	loadOutline(t, engine, 2)

	progress := make(chan ProgressUpdate, 50)
	if err := engine.RunAll(context.Background(), testStyle(t), progress); err != nil {
		t.Fatalf("RunAll() error: %v", err)
	}
	close(progress)

	var phases []Phase
	for update := range progress {
		phases = append(phases, update.Phase)
	}

	want := []Phase{RenderSlide, SlideDone, RenderSlide, SlideFailed, DeckComplete}
	if len(phases) != len(want) {
		t.Fatalf("got %d updates (%v), want %d", len(phases), phases, len(want))
	}
	for i, phase := range want {
		if phases[i] != phase {
			t.Errorf("update %d phase = %v, want %v", i, phases[i], phase)
		}
	}
}

func TestBuildRenderPrompt(t *testing.T) {
	style := &styles.Definition{ID: "x", Name: "X", Directive: "Use a chalkboard look."}
	slide := &models.SlideRecord{
		PageNumber:   1,
		Title:        "Quarterly Results",
		BulletPoints: []string{"Revenue up 12%", "Churn down"},
		VisualPrompt: "a rising bar chart",
	}

	prompt := buildRenderPrompt(slide, style)
	for _, want := range []string{"Use a chalkboard look.", "Quarterly Results", "Revenue up 12%", "a rising bar chart", "16:9"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
