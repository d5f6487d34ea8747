// ABOUTME: Client for the web-retriever search service
// ABOUTME: POSTs search queries with correlation id and a bounded result count

package upstream

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const defaultRetrieverURL = "http://web-retriever/v1/search"

// SearchRequest is the outbound payload for one retriever call.
type SearchRequest struct {
	Query          string `json:"query"`
	Lang           string `json:"lang"`
	MaxResults     int    `json:"maxResults"`
	Safe           bool   `json:"safe"`
	AllowNoContext bool   `json:"allowNoContext"`
}

// SearchResult is one retrieval hit used as a citation.
type SearchResult struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"publishedAt"`
}

// SearchResponse is the web-retriever reply.
type SearchResponse struct {
	RequestID string         `json:"requestId"`
	Results   []SearchResult `json:"results"`
}

// RetrieverClient calls the web-retriever search endpoint.
type RetrieverClient struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRetrieverClient creates a retriever client for the given endpoint.
// An empty url falls back to the RETRIEVER_URL environment variable and then
// the in-cluster default.
func NewRetrieverClient(url string, connectTimeout, readTimeout time.Duration, logger *slog.Logger) *RetrieverClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrieverClient{
		url:        resolveURL(url, "RETRIEVER_URL", defaultRetrieverURL),
		httpClient: newHTTPClient(connectTimeout, readTimeout),
		logger:     logger.With("component", "retriever-client"),
	}
}

// Search queries the web-retriever. allowNoContext controls whether the
// retriever may answer without grounding context; tag-driven searches pass
// false. Failures follow the shared retry policy.
func (c *RetrieverClient) Search(ctx context.Context, query, locale string, maxResults int, allowNoContext bool, requestID string) (*SearchResponse, error) {
	payload := SearchRequest{
		Query:          query,
		Lang:           locale,
		MaxResults:     maxResults,
		Safe:           true,
		AllowNoContext: allowNoContext,
	}

	var resp SearchResponse
	if err := postJSON(ctx, c.httpClient, "web-retriever", c.url, requestID, payload, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug("search results received",
		"request_id", requestID,
		"query_len", len(query),
		"results", len(resp.Results))
	return &resp, nil
}
