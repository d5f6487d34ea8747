// ABOUTME: Stateless orchestrate flow combining optional retrieval with a completion call
// ABOUTME: No session or history involved - used by the /v1/orchestrate boundary endpoint

package conversation

import (
	"context"
	"strings"

	"github.com/tagmind/orchestrator/internal/upstream"
)

// OrchestrateInput is one stateless orchestration request.
type OrchestrateInput struct {
	UserID  string
	ChatID  string
	Message string
	Mode    string // "chat" (default) or "no_context" to skip retrieval
	Locale  string
}

// OrchestrateResult is the outcome of one stateless orchestration.
type OrchestrateResult struct {
	Answer string
	Used   map[string]any
}

// Orchestrate answers a message with optional retrieval grounding. Retrieval
// failures degrade to an ungrounded answer; completion failures propagate.
func (s *Service) Orchestrate(ctx context.Context, input OrchestrateInput, requestID string) (*OrchestrateResult, error) {
	mode := strings.TrimSpace(input.Mode)
	if mode == "" {
		mode = "chat"
	}
	locale := strings.TrimSpace(input.Locale)
	if locale == "" {
		locale = upstream.DefaultLocale
	}
	message := strings.TrimSpace(input.Message)

	retrieverUsed := false
	var citations []upstream.Citation
	if !strings.EqualFold(mode, "no_context") {
		resp, err := s.retriever.Search(ctx, message, locale, retrieverMaxResults, true, requestID)
		if err != nil {
			s.logger.Warn("retriever call failed, answering without context",
				"request_id", requestID,
				"error", err)
		} else if resp != nil && len(resp.Results) > 0 {
			retrieverUsed = true
			for _, r := range resp.Results {
				citations = append(citations, upstream.Citation{
					Title:   r.Title,
					Snippet: r.Snippet,
					URL:     r.URL,
				})
			}
		}
	}

	completion, err := s.llm.Complete(ctx, message, locale, requestID, citations)
	if err != nil {
		return nil, err
	}

	return &OrchestrateResult{
		Answer: completion.Text,
		Used: map[string]any{
			"mode":           mode,
			"locale":         locale,
			"retrieverUsed":  retrieverUsed,
			"citationsCount": len(citations),
		},
	}, nil
}
