package deck

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mkbridge/slidekit/internal/models"
	"github.com/mkbridge/slidekit/internal/shared"
)

func seedSlides(n int) []*models.SlideRecord {
	slides := make([]*models.SlideRecord, 0, n)
	for i := 0; i < n; i++ {
		slides = append(slides, &models.SlideRecord{
			ID:           fmt.Sprintf("slide-%d", i+1),
			PageNumber:   i + 1,
			Title:        fmt.Sprintf("Title %d", i+1),
			BulletPoints: []string{"a", "b"},
			VisualPrompt: "a diagram",
			Status:       models.StatusWaiting,
		})
	}
	return slides
}

func TestStore_ResetAndSlides(t *testing.T) {
	store := NewStore()
	seeds := seedSlides(3)
	store.Reset(seeds)

	if store.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", store.Len())
	}

	// Mutating the seed after Reset must not affect the store.
	seeds[0].Title = "mutated"

	slides := store.Slides()
	if slides[0].Title != "Title 1" {
		t.Errorf("store slide title = %q, want %q", slides[0].Title, "Title 1")
	}

	// Mutating a returned clone must not affect the store either.
	slides[1].BulletPoints[0] = "mutated"
	again := store.Slides()
	if again[1].BulletPoints[0] != "a" {
		t.Errorf("clone mutation leaked into store: %q", again[1].BulletPoints[0])
	}

	for i, slide := range again {
		if slide.PageNumber != i+1 {
			t.Errorf("slide %d out of order: page %d", i, slide.PageNumber)
		}
	}
}

func TestStore_Get(t *testing.T) {
	store := NewStore()
	store.Reset(seedSlides(2))

	slide, err := store.Get("slide-2")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if slide.PageNumber != 2 {
		t.Errorf("page number = %d, want 2", slide.PageNumber)
	}

	if _, err := store.Get("nope"); !errors.Is(err, shared.ErrSlideNotFound) {
		t.Errorf("error = %v, want ErrSlideNotFound", err)
	}
}

func TestStore_RenderLifecycle(t *testing.T) {
	store := NewStore()
	store.Reset(seedSlides(1))

	if err := store.BeginRender("slide-1"); err != nil {
		t.Fatalf("BeginRender() error: %v", err)
	}
	if err := store.BeginRender("slide-1"); !errors.Is(err, shared.ErrRenderInFlight) {
		t.Fatalf("second BeginRender() error = %v, want ErrRenderInFlight", err)
	}

	img := &models.RenderedImage{Data: []byte("png"), MimeType: "image/png"}
	if err := store.CompleteRender("slide-1", img); err != nil {
		t.Fatalf("CompleteRender() error: %v", err)
	}

	slide, _ := store.Get("slide-1")
	if slide.Status != models.StatusDone {
		t.Errorf("status = %v, want done", slide.Status)
	}
	if slide.Image == nil || slide.Image.MimeType != "image/png" {
		t.Errorf("image = %#v", slide.Image)
	}

	// Regenerating a done slide re-enters rendering with the old image intact.
	if err := store.BeginRender("slide-1"); err != nil {
		t.Fatalf("BeginRender() after done error: %v", err)
	}
	slide, _ = store.Get("slide-1")
	if slide.Status != models.StatusRendering {
		t.Errorf("status = %v, want rendering", slide.Status)
	}
	if slide.Image == nil {
		t.Error("stale image dropped on re-render")
	}

	if err := store.FailRender("slide-1", "it broke"); err != nil {
		t.Fatalf("FailRender() error: %v", err)
	}
	slide, _ = store.Get("slide-1")
	if slide.Status != models.StatusFailed || slide.LastError != "it broke" {
		t.Errorf("slide after failure = %v / %q", slide.Status, slide.LastError)
	}

	// A failed slide can start again, clearing the old error.
	if err := store.BeginRender("slide-1"); err != nil {
		t.Fatalf("BeginRender() after failure error: %v", err)
	}
	slide, _ = store.Get("slide-1")
	if slide.LastError != "" {
		t.Errorf("LastError = %q, want cleared", slide.LastError)
	}
}

func TestStore_AllDone(t *testing.T) {
	store := NewStore()
	if store.AllDone() {
		t.Error("empty store reports AllDone")
	}

	store.Reset(seedSlides(2))
	if store.AllDone() {
		t.Error("waiting deck reports AllDone")
	}

	img := &models.RenderedImage{Data: []byte("png"), MimeType: "image/png"}
	store.CompleteRender("slide-1", img)
	if store.AllDone() {
		t.Error("partial deck reports AllDone")
	}

	store.CompleteRender("slide-2", img)
	if !store.AllDone() {
		t.Error("complete deck does not report AllDone")
	}

	counts := store.Counts()
	if counts[models.StatusDone] != 2 {
		t.Errorf("Counts()[done] = %d, want 2", counts[models.StatusDone])
	}
}

func TestStore_Update(t *testing.T) {
	store := NewStore()
	store.Reset(seedSlides(1))

	err := store.Update("slide-1", func(s *models.SlideRecord) {
		s.Title = "Edited"
		s.BulletPoints = []string{"new point"}
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	slide, _ := store.Get("slide-1")
	if slide.Title != "Edited" || len(slide.BulletPoints) != 1 {
		t.Errorf("update not applied: %q %v", slide.Title, slide.BulletPoints)
	}

	if err := store.Update("nope", func(*models.SlideRecord) {}); !errors.Is(err, shared.ErrSlideNotFound) {
		t.Errorf("error = %v, want ErrSlideNotFound", err)
	}
}
