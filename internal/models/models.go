package models

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Slide count bounds accepted in a DeckConfig.
const (
	MinSlides = 1
	MaxSlides = 50
)

// SlideStatus represents the lifecycle state of a single slide's render.
type SlideStatus int

const (
	StatusWaiting SlideStatus = iota
	StatusRendering
	StatusDone
	StatusFailed
)

func (s SlideStatus) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusRendering:
		return "rendering"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return ""
	}
}

// Terminal reports whether the status is an end state of a render attempt.
func (s SlideStatus) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// RenderedImage is the artifact produced by a successful slide render.
type RenderedImage struct {
	Data     []byte `json:"-"`
	MimeType string `json:"mime_type"`
}

// DataURI returns the image as a base64 data URI for embedding or display.
func (img *RenderedImage) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64.StdEncoding.EncodeToString(img.Data))
}

// SlideRecord is the per-slide unit of content, render status, and artifact.
//
// ID and PageNumber are assigned at outline creation and never change.
// Title, BulletPoints, and VisualPrompt may be edited by the user at any time.
// Image is overwritten (never merged) when a re-render succeeds.
type SlideRecord struct {
	ID           string         `json:"id"`
	PageNumber   int            `json:"page_number"`
	Title        string         `json:"title"`
	BulletPoints []string       `json:"bullet_points"`
	VisualPrompt string         `json:"visual_prompt"`
	Image        *RenderedImage `json:"image,omitempty"`
	Status       SlideStatus    `json:"status"`
	LastError    string         `json:"last_error,omitempty"`
}

// Validate checks the structural invariants of a single record.
func (s *SlideRecord) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("slide is missing an id")
	}
	if s.PageNumber < 1 {
		return fmt.Errorf("slide %s has invalid page number %d", s.ID, s.PageNumber)
	}
	if s.Status == StatusDone && s.Image == nil {
		return fmt.Errorf("slide %s is done but has no rendered image", s.ID)
	}
	if s.Status == StatusRendering && s.LastError != "" {
		return fmt.Errorf("slide %s is rendering but carries a stale error", s.ID)
	}
	return nil
}

// Clone returns a copy of the record safe to hand outside the store.
// Image bytes are shared; artifacts are replaced wholesale, never mutated in place.
func (s *SlideRecord) Clone() *SlideRecord {
	c := *s
	if s.BulletPoints != nil {
		c.BulletPoints = append([]string{}, s.BulletPoints...)
	}
	return &c
}

// DeckConfig is the immutable input for one deck generation request.
type DeckConfig struct {
	SourceText string `json:"source_text"`
	SlideCount int    `json:"slide_count"`
	StyleID    string `json:"style_id"`
}

// Validate checks the config against the supported bounds.
func (c *DeckConfig) Validate() error {
	if strings.TrimSpace(c.SourceText) == "" {
		return fmt.Errorf("source text is empty")
	}
	if c.SlideCount < MinSlides || c.SlideCount > MaxSlides {
		return fmt.Errorf("slide count %d out of range [%d, %d]", c.SlideCount, MinSlides, MaxSlides)
	}
	if c.StyleID == "" {
		return fmt.Errorf("style id is empty")
	}
	return nil
}
