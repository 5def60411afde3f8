// Package gemini implements the AI provider against the Gemini REST API.
package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycastlabs/skycast/internal/ai"
	"github.com/skycastlabs/skycast/internal/provider/resilience"
)

const (
	// ProviderName identifies this AI provider.
	ProviderName = "gemini"

	// DefaultBaseURL is the Gemini API base URL.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultTextModel handles intent parsing and the insight stream.
	DefaultTextModel = "gemini-2.0-flash"

	// DefaultImageModel handles scene generation.
	DefaultImageModel = "gemini-2.0-flash-preview-image-generation"
)

// Generation calls run far longer than a weather fetch.
const defaultTimeout = 60 * time.Second

// ClientConfig holds configuration for the Gemini client.
type ClientConfig struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// TextModel is the model for text and JSON generation (optional).
	TextModel string

	// ImageModel is the model for image generation (optional).
	ImageModel string

	// HTTPClient is the HTTP client to use (optional). If nil, uses a
	// single-attempt resilient client; AI calls are never auto-retried.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Gemini REST API client.
type Client struct {
	apiKey     string
	baseURL    string
	textModel  string
	imageModel string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Gemini client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	textModel := cfg.TextModel
	if textModel == "" {
		textModel = DefaultTextModel
	}

	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = DefaultImageModel
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.NoRetryClientConfig(ProviderName)
		rc.Timeout = defaultTimeout
		httpClient = resilience.NewClient(rc)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		textModel:  textModel,
		imageModel: imageModel,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GenerateJSON issues a JSON-mode generation call and decodes the model's
// reply into out.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, out any) error {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
		},
	}

	var resp generateResponse
	if err := c.generate(ctx, c.textModel, reqBody, &resp); err != nil {
		return err
	}

	text := resp.firstText()
	if text == "" {
		return fmt.Errorf("reply contained no text part")
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decoding model reply: %w", err)
	}

	return nil
}

// StreamText issues a streaming generation call over SSE, invoking onChunk
// for each text fragment in arrival order.
func (c *Client) StreamText(ctx context.Context, prompt string, onChunk func(chunk string)) error {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse", c.baseURL, c.textModel)
	resp, err := c.post(ctx, url, reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}

	scanner := bufio.NewScanner(resp.Body)
	// Chunks carrying safety metadata can exceed the default token size
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}

		var chunk generateResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if text := chunk.firstText(); text != "" {
			onChunk(text)
		}
	}

	return scanner.Err()
}

// GenerateImage issues an image generation call and returns the first inline
// image as a data URI. An image-free reply returns empty with no error.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	var resp generateResponse
	if err := c.generate(ctx, c.imageModel, reqBody, &resp); err != nil {
		return "", err
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				mimeType := p.InlineData.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return "data:" + mimeType + ";base64," + p.InlineData.Data, nil
			}
		}
	}

	return "", nil
}

// generate issues a non-streaming generateContent call and decodes the
// reply.
func (c *Client) generate(ctx context.Context, model string, reqBody generateRequest, out *generateResponse) error {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)
	resp, err := c.post(ctx, url, reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// post sends a JSON request with the API key header. The caller owns the
// response body.
func (c *Client) post(ctx context.Context, url string, reqBody generateRequest) (*http.Response, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	return resp, nil
}

// checkStatus maps non-200 replies to errors. Quota exhaustion surfaces as
// ErrQuotaExhausted whether it arrives as HTTP 429 or as a
// RESOURCE_EXHAUSTED status in the error body.
func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var apiErr apiErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)

	if resp.StatusCode == http.StatusTooManyRequests || apiErr.Error.Status == "RESOURCE_EXHAUSTED" {
		if apiErr.Error.Message != "" {
			return fmt.Errorf("%w: %s", ai.ErrQuotaExhausted, apiErr.Error.Message)
		}
		return ai.ErrQuotaExhausted
	}

	if apiErr.Error.Message != "" {
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, apiErr.Error.Message)
	}
	return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}

// Gemini API request and response structures.

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseMIMEType   string   `json:"responseMimeType,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content      *content `json:"content"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// firstText returns the first text part across candidates, or empty.
func (r *generateResponse) firstText() string {
	for _, cand := range r.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

var _ ai.Provider = (*Client)(nil)
