// Gemini API implementation of [TextService] and [ImageService]
//
// Request/response shapes follow the generateContent REST surface at
// https://ai.google.dev/api/generate-content
package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mkbridge/slidekit/internal/models"
	"github.com/mkbridge/slidekit/internal/shared"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// geminiPart is one content part: either text or inline binary data.
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiThinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type geminiImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMimeType   string                `json:"responseMimeType,omitempty"`
	ResponseSchema     map[string]any        `json:"responseSchema,omitempty"`
	MaxOutputTokens    int                   `json:"maxOutputTokens,omitempty"`
	ThinkingConfig     *geminiThinkingConfig `json:"thinkingConfig,omitempty"`
	ResponseModalities []string              `json:"responseModalities,omitempty"`
	ImageConfig        *geminiImageConfig    `json:"imageConfig,omitempty"`
}

type generateContentRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GeminiService implements [TextService] and [ImageService] against the Gemini
// REST API using a static API key.
type GeminiService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// NewGeminiService creates a Gemini client. The API key is required; base URL
// and timeout fall back to defaults when zero.
func NewGeminiService(apiKey, baseURL string, timeout time.Duration, logger *log.Logger) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key not set", shared.ErrMissingCredentials)
	}
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &GeminiService{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     shared.WithLogger(logger, "service", "gemini"),
	}, nil
}

// Name returns the service name.
func (g *GeminiService) Name() string {
	return "Gemini"
}

// doRequest performs one generateContent call against the given model and
// decodes the response into result.
func (g *GeminiService) doRequest(ctx context.Context, model string, body *generateContentRequest, result *generateContentResponse) error {
	apiURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, model)

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return g.classifyError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// classifyError maps a non-2xx response to a sentinel error. Authorization and
// billing failures are distinguished from generic ones because they drive a
// different user-facing message.
func (g *GeminiService) classifyError(resp *http.Response) error {
	var errResp geminiErrorResponse
	detail := fmt.Sprintf("status %d", resp.StatusCode)
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
		detail = fmt.Sprintf("status %d (%s): %s", resp.StatusCode, errResp.Error.Status, errResp.Error.Message)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden ||
		errResp.Error.Status == "PERMISSION_DENIED" || errResp.Error.Status == "UNAUTHENTICATED" {
		return fmt.Errorf("%w: %s", shared.ErrPermissionDenied, detail)
	}

	return fmt.Errorf("%w: gemini API error: %s", shared.ErrAPIRequest, detail)
}

// GenerateJSON submits a structured-output request and returns the raw JSON text
// produced by the model.
func (g *GeminiService) GenerateJSON(ctx context.Context, req TextRequest) ([]byte, error) {
	body := &generateContentRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   req.Schema,
			MaxOutputTokens:  req.MaxOutputTokens,
		},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	if req.ThinkingBudget > 0 {
		body.GenerationConfig.ThinkingConfig = &geminiThinkingConfig{ThinkingBudget: req.ThinkingBudget}
	}

	g.logger.Debug("text generation request", "model", req.Model, "prompt_chars", len(req.Prompt))

	var resp generateContentResponse
	if err := g.doRequest(ctx, req.Model, body, &resp); err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			text.WriteString(part.Text)
		}
		break // only the first candidate is used
	}

	trimmed := strings.TrimSpace(text.String())
	if trimmed == "" {
		return nil, fmt.Errorf("%w: model returned no text", shared.ErrEmptyResponse)
	}

	return []byte(trimmed), nil
}

// GenerateImage submits an image generation request and returns the first
// inline image payload of the response.
func (g *GeminiService) GenerateImage(ctx context.Context, req ImageRequest) (*models.RenderedImage, error) {
	body := &generateContentRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig: &geminiImageConfig{
				AspectRatio: req.AspectRatio,
				ImageSize:   req.ImageSize,
			},
		},
	}

	g.logger.Debug("image generation request", "model", req.Model, "prompt_chars", len(req.Prompt))

	var resp generateContentResponse
	if err := g.doRequest(ctx, req.Model, body, &resp); err != nil {
		return nil, err
	}

	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode image payload: %w", err)
			}
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			return &models.RenderedImage{Data: data, MimeType: mime}, nil
		}
	}

	return nil, shared.ErrNoImageData
}
