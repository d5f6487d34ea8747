// ABOUTME: Client for the llm-gateway text completion service
// ABOUTME: POSTs prompts with correlation id, defaulting the locale to ru-RU

package upstream

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultLocale is used when the caller supplies no locale.
const DefaultLocale = "ru-RU"

const defaultLLMURL = "http://llm-gateway/v1/complete"

// Citation is grounding context forwarded to the completion service.
type Citation struct {
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// CompletionRequest is the outbound payload for one completion call.
type CompletionRequest struct {
	Prompt    string     `json:"prompt"`
	Locale    string     `json:"locale"`
	Model     string     `json:"model"`
	Citations []Citation `json:"citations,omitempty"`
}

// CompletionResponse is the llm-gateway reply.
type CompletionResponse struct {
	RequestID string         `json:"requestId"`
	Text      string         `json:"text"`
	Usage     map[string]any `json:"usage"`
}

// CompletionClient calls the llm-gateway completion endpoint.
type CompletionClient struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewCompletionClient creates a completion client for the given endpoint.
// An empty url falls back to the LLM_URL environment variable and then the
// in-cluster default.
func NewCompletionClient(url string, connectTimeout, readTimeout time.Duration, logger *slog.Logger) *CompletionClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompletionClient{
		url:        resolveURL(url, "LLM_URL", defaultLLMURL),
		httpClient: newHTTPClient(connectTimeout, readTimeout),
		logger:     logger.With("component", "llm-client"),
	}
}

// Complete sends a prompt to the llm-gateway and returns the generated text.
// Failures follow the shared retry policy: one immediate retry on
// connection-level errors, remote rejections raised as-is.
func (c *CompletionClient) Complete(ctx context.Context, prompt, locale, requestID string, citations []Citation) (*CompletionResponse, error) {
	effectiveLocale := strings.TrimSpace(locale)
	if effectiveLocale == "" {
		effectiveLocale = DefaultLocale
	}

	payload := CompletionRequest{
		Prompt:    prompt,
		Locale:    effectiveLocale,
		Model:     "stub",
		Citations: citations,
	}

	var resp CompletionResponse
	if err := postJSON(ctx, c.httpClient, "llm-gateway", c.url, requestID, payload, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug("completion received",
		"request_id", requestID,
		"locale", effectiveLocale,
		"reply_len", len(resp.Text))
	return &resp, nil
}

// resolveURL picks the first non-blank of: env var, configured value, default.
// The env var wins so deployments can repoint a service without editing config.
func resolveURL(configured, envVar, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		return v
	}
	if v := strings.TrimSpace(configured); v != "" {
		return v
	}
	return fallback
}
