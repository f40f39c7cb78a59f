package tasks

import (
	"fmt"

	"github.com/mkbridge/slidekit/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase               // Operation phase
	Step    int                 // Current step number within phase
	Total   int                 // Total steps in this phase
	Message string              // Human-readable message for display
	Slide   *models.SlideRecord // Snapshot of the affected slide, when applicable
}

// Operation phase enumeration
type Phase int

const (
	ExtractOutline Phase = iota
	OutlineReady
	RenderSlide
	SlideDone
	SlideFailed
	DeckComplete
)

func (p Phase) String() string {
	switch p {
	case ExtractOutline:
		return "extract_outline"
	case OutlineReady:
		return "outline_ready"
	case RenderSlide:
		return "render_slide"
	case SlideDone:
		return "slide_done"
	case SlideFailed:
		return "slide_failed"
	case DeckComplete:
		return "deck_complete"
	default:
		return ""
	}
}

func extractOutlineUpdate(attempt, total int, model string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExtractOutline,
		Step:    attempt,
		Total:   total,
		Message: fmt.Sprintf("Analyzing document with %s...", model),
	}
}

func outlineReadyUpdate(slideCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   OutlineReady,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Outline ready: %d slides", slideCount),
	}
}

func renderSlideUpdate(step, total int, slide *models.SlideRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RenderSlide,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Rendering: %s", step, total, slide.Title),
		Slide:   slide,
	}
}

func slideDoneUpdate(step, total int, slide *models.SlideRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SlideDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, slide.Title),
		Slide:   slide,
	}
}

func slideFailedUpdate(step, total int, slide *models.SlideRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SlideFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, slide.Title, slide.LastError),
		Slide:   slide,
	}
}

func deckCompleteUpdate(done, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeckComplete,
		Step:    done,
		Total:   total,
		Message: fmt.Sprintf("Rendering finished: %d/%d slides succeeded", done, total),
	}
}
