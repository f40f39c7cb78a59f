// package services defines interfaces for the text and image generation backends
package services

import (
	"context"

	"github.com/mkbridge/slidekit/internal/models"
)

// TextService generates structured JSON from a text prompt.
//
// One call corresponds to one backend request against one model configuration;
// fallback across configurations is the caller's responsibility.
type TextService interface {
	// GenerateJSON submits the request and returns the raw JSON payload produced
	// by the model. The payload is syntactically valid JSON text but is not
	// validated against the requested schema beyond what the backend enforces.
	GenerateJSON(ctx context.Context, req TextRequest) ([]byte, error)

	// Name returns the backend name for logging.
	Name() string
}

// ImageService generates a single image from a text prompt.
type ImageService interface {
	// GenerateImage submits the request and returns the first inline image
	// payload of the response. No retries are attempted.
	GenerateImage(ctx context.Context, req ImageRequest) (*models.RenderedImage, error)

	// Name returns the backend name for logging.
	Name() string
}

// TextRequest describes one structured-output text generation call.
type TextRequest struct {
	Model           string         // Backend model identifier
	Prompt          string         // User prompt
	System          string         // System instruction
	Schema          map[string]any // Requested response schema (JSON schema subset)
	MaxOutputTokens int            // Output budget; 0 leaves the backend default
	ThinkingBudget  int            // Reasoning budget in tokens; 0 disables the thinking config
}

// ImageRequest describes one image generation call.
type ImageRequest struct {
	Model       string // Backend model identifier
	Prompt      string // Full rendering instruction
	AspectRatio string // e.g. "16:9"
	ImageSize   string // Resolution tier, e.g. "1K"
}
