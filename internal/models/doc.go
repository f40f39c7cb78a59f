// Package models defines domain entities for the slidekit deck generation service.
//
// The central type is [SlideRecord], the unit of work and of display state:
//   - identity: stable id and 1-based page number assigned at outline creation
//   - content: title, bullet points, and the visual prompt, all user-editable
//   - state: [SlideStatus] plus the last user-facing error, driven by the
//     tasks engine's render state machine
//   - artifact: the rendered image, overwritten on each successful re-render
//
// [DeckConfig] captures one generation request (source text, slide count, style)
// and is immutable for the lifetime of the deck it produced.
//
// Invariants enforced across the codebase:
//   - page numbers across a deck form a contiguous 1..N sequence with no gaps
//   - status "done" implies a rendered image is present
//   - status "rendering" implies the last error has been cleared
package models
