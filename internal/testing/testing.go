// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/mkbridge/slidekit/internal/models"
	"github.com/mkbridge/slidekit/internal/services"
)

// MockTextService is a scriptable test double for [services.TextService].
type MockTextService struct {
	// GenerateFunc is called per request when set; otherwise Responses is
	// consumed in order.
	GenerateFunc func(ctx context.Context, req services.TextRequest) ([]byte, error)
	Responses    [][]byte
	Errs         []error
	Requests     []services.TextRequest
}

func (m *MockTextService) GenerateJSON(ctx context.Context, req services.TextRequest) ([]byte, error) {
	m.Requests = append(m.Requests, req)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	i := len(m.Requests) - 1
	var err error
	if i < len(m.Errs) {
		err = m.Errs[i]
	}
	if err != nil {
		return nil, err
	}
	if i < len(m.Responses) {
		return m.Responses[i], nil
	}
	return nil, errors.New("no scripted response")
}

func (m *MockTextService) Name() string { return "mock-text" }

// MockImageService is a scriptable test double for [services.ImageService].
type MockImageService struct {
	GenerateFunc func(ctx context.Context, req services.ImageRequest) (*models.RenderedImage, error)
	Requests     []services.ImageRequest
}

func (m *MockImageService) GenerateImage(ctx context.Context, req services.ImageRequest) (*models.RenderedImage, error) {
	m.Requests = append(m.Requests, req)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &models.RenderedImage{Data: []byte("img"), MimeType: "image/png"}, nil
}

func (m *MockImageService) Name() string { return "mock-image" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
