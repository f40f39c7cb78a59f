// package deck holds the in-memory state of the presentation being generated.
//
// A [Store] owns the slide records for one session. All reads hand out clones
// so callers never observe a record mid-mutation; all writes go through the
// store under its lock so status transitions stay atomic.
package deck

import (
	"fmt"
	"sync"

	"github.com/mkbridge/slidekit/internal/models"
	"github.com/mkbridge/slidekit/internal/shared"
)

// Store is the concurrency-safe container for a deck's slide records.
//
// Bulk generation and single-slide regeneration may touch the store from
// different goroutines; the per-slide in-flight guard in [Store.BeginRender]
// keeps two renders from racing on one slide.
type Store struct {
	mu     sync.RWMutex
	slides []*models.SlideRecord
	index  map[string]int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Reset replaces the entire deck with the given records, discarding any
// previous slides and artifacts. Records are cloned on the way in.
func (s *Store) Reset(slides []*models.SlideRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slides = make([]*models.SlideRecord, 0, len(slides))
	s.index = make(map[string]int, len(slides))
	for _, slide := range slides {
		s.index[slide.ID] = len(s.slides)
		s.slides = append(s.slides, slide.Clone())
	}
}

// Len returns the number of slides in the deck.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slides)
}

// Slides returns clones of all records in page order.
func (s *Store) Slides() []*models.SlideRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.SlideRecord, 0, len(s.slides))
	for _, slide := range s.slides {
		out = append(out, slide.Clone())
	}
	return out
}

// Get returns a clone of the record with the given id.
func (s *Store) Get(id string) (*models.SlideRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrSlideNotFound, id)
	}
	return s.slides[i].Clone(), nil
}

// Update applies fn to the record with the given id under the store lock.
// The record passed to fn is the live copy; fn must not retain it.
func (s *Store) Update(id string, fn func(*models.SlideRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrSlideNotFound, id)
	}
	fn(s.slides[i])
	return nil
}

// BeginRender transitions a slide to rendering and clears its previous error.
// The previous image is left in place so the old artifact stays visible until
// a new one replaces it. Returns [shared.ErrRenderInFlight] when the slide is
// already rendering.
func (s *Store) BeginRender(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrSlideNotFound, id)
	}
	slide := s.slides[i]
	if slide.Status == models.StatusRendering {
		return fmt.Errorf("%w: slide %d", shared.ErrRenderInFlight, slide.PageNumber)
	}
	slide.Status = models.StatusRendering
	slide.LastError = ""
	return nil
}

// CompleteRender stores the rendered image and marks the slide done.
func (s *Store) CompleteRender(id string, img *models.RenderedImage) error {
	return s.Update(id, func(slide *models.SlideRecord) {
		slide.Image = img
		slide.Status = models.StatusDone
		slide.LastError = ""
	})
}

// FailRender marks the slide failed with the given user-facing message.
func (s *Store) FailRender(id string, msg string) error {
	return s.Update(id, func(slide *models.SlideRecord) {
		slide.Status = models.StatusFailed
		slide.LastError = msg
	})
}

// AllDone reports whether the deck is non-empty and every slide has a rendered
// image. This is the gate for assembling a deliverable.
func (s *Store) AllDone() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.slides) == 0 {
		return false
	}
	for _, slide := range s.slides {
		if slide.Status != models.StatusDone {
			return false
		}
	}
	return true
}

// Counts returns the number of slides in each status, keyed by status.
func (s *Store) Counts() map[models.SlideStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.SlideStatus]int, 4)
	for _, slide := range s.slides {
		counts[slide.Status]++
	}
	return counts
}
