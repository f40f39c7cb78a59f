package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// API and backend errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrPermissionDenied = fmt.Errorf("permission denied")
	ErrEmptyResponse    = fmt.Errorf("empty response")
	ErrNoImageData      = fmt.Errorf("no image data in response")

	// Pipeline errors
	ErrOutlineFailed      = fmt.Errorf("outline extraction failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrStyleNotFound      = fmt.Errorf("style not found")
	ErrSlideNotFound      = fmt.Errorf("slide not found")
	ErrRenderInFlight     = fmt.Errorf("render already in flight")
	ErrDeckIncomplete     = fmt.Errorf("deck is not fully rendered")

	// Input validation errors
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrMissingArgument   = fmt.Errorf("missing required argument")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrUnsupportedFormat = fmt.Errorf("unsupported file format")
)
