// ABOUTME: ConversationService is the decision engine for inbound messages and tag commands
// ABOUTME: Owns the OFF/SUGGEST state machine and sequences store, retriever, prompt and llm calls

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tagmind/orchestrator/internal/prompt"
	"github.com/tagmind/orchestrator/internal/store"
	"github.com/tagmind/orchestrator/internal/upstream"
)

// Decision values returned to the boundary layer.
const (
	DecisionDoNotRespond = "DO_NOT_RESPOND"
	DecisionSuggest      = "SUGGEST"
	DecisionRespond      = "RESPOND"
)

// retrieverMaxResults caps how many citations one web-tag request fetches.
const retrieverMaxResults = 3

// webQueryPlaceholder stands in for an empty web-tag payload.
const webQueryPlaceholder = "TagMind web search placeholder"

// ConversationStore defines what the service needs from storage
type ConversationStore interface {
	FindSessionByContact(ctx context.Context, contactID string) (*store.Session, error)
	CreateSession(ctx context.Context, session *store.Session) error
	UpdateSession(ctx context.Context, session *store.Session) error

	SaveMessage(ctx context.Context, msg *store.Message) error
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]*store.Message, error)
}

// Completer defines what the service needs from the llm-gateway client
type Completer interface {
	Complete(ctx context.Context, prompt, locale, requestID string, citations []upstream.Citation) (*upstream.CompletionResponse, error)
}

// Searcher defines what the service needs from the web-retriever client
type Searcher interface {
	Search(ctx context.Context, query, locale string, maxResults int, allowNoContext bool, requestID string) (*upstream.SearchResponse, error)
}

// Service coordinates per-contact sessions, message history, retrieval and
// completion calls. Each request runs independently; per-contact serialization
// is a storage concern, not an in-process lock.
type Service struct {
	store     ConversationStore
	llm       Completer
	retriever Searcher
	logger    *slog.Logger
}

// New creates a new ConversationService
func New(st ConversationStore, llm Completer, retriever Searcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     st,
		llm:       llm,
		retriever: retriever,
		logger:    logger.With("component", "conversation"),
	}
}

// TagInput is one parsed tag command.
type TagInput struct {
	ContactID string
	Tag       string
	Count     *int
	Payload   string
	Locale    string
	// Text, when present, is the pre-rendered incoming text persisted verbatim
	// instead of a synthesized @tagmind command line.
	Text string
}

// MessageResult is the outcome of handling one plain inbound message.
type MessageResult struct {
	Decision       string
	SuggestedReply string
	SessionID      string
	Used           map[string]any
}

// TagResult is the outcome of handling one tag command.
type TagResult struct {
	Decision  string
	ReplyText string
	SessionID string
	ContactID string
	Tag       string
	Used      map[string]any
}

// Upsert creates or updates the session for a contact, setting its mode.
// The mode is always explicit here; only the implicit message/tag paths
// default to SUGGEST. Idempotent on session identity.
func (s *Service) Upsert(ctx context.Context, contactID string, mode store.Mode) (*store.Session, error) {
	session, err := s.store.FindSessionByContact(ctx, contactID)
	if errors.Is(err, store.ErrNotFound) {
		now := time.Now().UTC()
		session = &store.Session{
			ID:        uuid.New().String(),
			ContactID: contactID,
			Mode:      mode,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if createErr := s.store.CreateSession(ctx, session); createErr != nil {
			if !errors.Is(createErr, store.ErrDuplicateSession) {
				return nil, createErr
			}
			// Lost a concurrent-create race; fall through to update the winner
			session, err = s.store.FindSessionByContact(ctx, contactID)
			if err != nil {
				return nil, fmt.Errorf("session lookup after duplicate: %w", err)
			}
		} else {
			s.logger.Debug("session created", "session_id", session.ID, "contact_id", contactID, "mode", mode)
			return session, nil
		}
	} else if err != nil {
		return nil, err
	}

	session.Mode = mode
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Debug("session mode updated", "session_id", session.ID, "contact_id", contactID, "mode", mode)
	return session, nil
}

// HandleMessage processes one plain inbound message for a contact.
//
// The incoming message is persisted before any outbound call, so a record
// exists even when the completion fails. In OFF mode the method short-circuits
// before any outbound call; completion failures propagate and leave no
// outgoing message behind.
func (s *Service) HandleMessage(ctx context.Context, contactID, messageText, requestID string) (*MessageResult, error) {
	session, err := s.ensureSession(ctx, contactID)
	if err != nil {
		return nil, err
	}

	if err := s.appendMessage(ctx, session.ID, store.DirectionIn, messageText, requestID); err != nil {
		return nil, err
	}

	if session.Mode == store.ModeOff {
		return &MessageResult{
			Decision:  DecisionDoNotRespond,
			SessionID: session.ID,
			Used: map[string]any{
				"mode":      string(session.Mode),
				"llmCalled": false,
			},
		}, nil
	}

	completion, err := s.llm.Complete(ctx, messageText, "", requestID, nil)
	if err != nil {
		return nil, err
	}

	if err := s.appendMessage(ctx, session.ID, store.DirectionOut, completion.Text, requestID); err != nil {
		return nil, err
	}

	return &MessageResult{
		Decision:       DecisionSuggest,
		SuggestedReply: completion.Text,
		SessionID:      session.ID,
		Used: map[string]any{
			"mode":      string(session.Mode),
			"llmCalled": true,
		},
	}, nil
}

// HandleTag processes one tag command.
//
// Order matters: the OFF check runs after the incoming text is persisted but
// before the history fetch, retrieval, and completion call, so a suppressed
// session never triggers an outbound call.
func (s *Service) HandleTag(ctx context.Context, input TagInput, requestID string) (*TagResult, error) {
	session, err := s.ensureSession(ctx, input.ContactID)
	if err != nil {
		return nil, err
	}

	incomingText := resolveIncomingText(input)
	if err := s.appendMessage(ctx, session.ID, store.DirectionIn, incomingText, requestID); err != nil {
		return nil, err
	}

	if session.Mode == store.ModeOff {
		return &TagResult{
			Decision:  DecisionDoNotRespond,
			SessionID: session.ID,
			ContactID: session.ContactID,
			Tag:       input.Tag,
			Used: map[string]any{
				"mode":          string(session.Mode),
				"llmCalled":     false,
				"retrieverUsed": false,
			},
		}, nil
	}

	historyLimit, history, err := s.fetchHistoryIfNeeded(ctx, session.ID, input, requestID)
	if err != nil {
		return nil, err
	}

	retrieverUsed, citations := s.maybeCallRetriever(ctx, input, requestID)

	built := prompt.Build(prompt.Input{
		Tag:     input.Tag,
		Payload: input.Payload,
		Count:   input.Count,
	}, history, citations)

	completion, err := s.llm.Complete(ctx, built.Text, input.Locale, requestID, nil)
	if err != nil {
		return nil, err
	}

	used := map[string]any{
		"tag":            input.Tag,
		"locale":         input.Locale,
		"requestedCount": input.Count,
		"historyUsed":    len(history),
		"llmCalled":      true,
		"promptType":     built.Type,
		"promptTokens":   built.TokenEstimate(),
		"implemented":    true,
		"retrieverUsed":  retrieverUsed,
		"citationsCount": len(citations),
	}
	for k, v := range built.Debug {
		used[k] = v
	}
	if len(history) > 0 {
		used["historyLimit"] = historyLimit
		used["history"] = history
	}
	if len(citations) > 0 {
		used["citations"] = citations
	}

	if err := s.appendMessage(ctx, session.ID, store.DirectionOut, completion.Text, requestID); err != nil {
		return nil, err
	}

	return &TagResult{
		Decision:  DecisionRespond,
		ReplyText: completion.Text,
		SessionID: session.ID,
		ContactID: session.ContactID,
		Tag:       input.Tag,
		Used:      used,
	}, nil
}

// ensureSession resolves the contact's session or lazily creates one in
// SUGGEST mode. Concurrent first messages from the same contact race on the
// contact_id UNIQUE constraint; the loser re-reads the winner's row.
func (s *Service) ensureSession(ctx context.Context, contactID string) (*store.Session, error) {
	now := time.Now().UTC()

	session, err := s.store.FindSessionByContact(ctx, contactID)
	if err == nil {
		session.UpdatedAt = now
		if err := s.store.UpdateSession(ctx, session); err != nil {
			return nil, err
		}
		return session, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	session = &store.Session{
		ID:        uuid.New().String(),
		ContactID: contactID,
		Mode:      store.ModeSuggest,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		if errors.Is(err, store.ErrDuplicateSession) {
			existing, lookupErr := s.store.FindSessionByContact(ctx, contactID)
			if lookupErr == nil {
				s.logger.Debug("found existing session after race", "session_id", existing.ID)
				return existing, nil
			}
			return nil, fmt.Errorf("session lookup after duplicate: %w", lookupErr)
		}
		return nil, err
	}

	s.logger.Debug("session created", "session_id", session.ID, "contact_id", contactID)
	return session, nil
}

// appendMessage writes one history entry for the session.
func (s *Service) appendMessage(ctx context.Context, sessionID string, direction store.Direction, text, requestID string) error {
	msg := &store.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Direction: direction,
		Text:      text,
		RequestID: requestID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return fmt.Errorf("recording %s message: %w", strings.ToLower(string(direction)), err)
	}
	return nil
}

// requiresHistory reports whether a tag needs recent conversation context.
func requiresHistory(tag string) bool {
	switch tag {
	case "recap", "judge", "fix":
		return true
	default:
		return false
	}
}

// effectiveCount resolves the history window size for a tag: the explicit
// positive count when given, otherwise the per-tag default.
func effectiveCount(tag string, requested *int) int {
	if requested != nil && *requested > 0 {
		return *requested
	}
	switch tag {
	case "judge":
		return 8
	case "fix":
		return 5
	default:
		return 10
	}
}

// fetchHistoryIfNeeded loads the history window for tags that use it.
// Returns the effective limit and the entries, oldest first. The window covers
// the conversation as it stood before this request: the tag command persisted
// by the current request is filtered out by its request id, so summarizing a
// chat never summarizes the command that asked for the summary.
func (s *Service) fetchHistoryIfNeeded(ctx context.Context, sessionID string, input TagInput, requestID string) (int, []prompt.HistoryEntry, error) {
	if !requiresHistory(input.Tag) {
		return 0, nil, nil
	}

	limit := effectiveCount(input.Tag, input.Count)
	messages, err := s.store.RecentMessages(ctx, sessionID, limit+1)
	if err != nil {
		return 0, nil, fmt.Errorf("fetching history: %w", err)
	}

	entries := make([]prompt.HistoryEntry, 0, len(messages))
	for _, msg := range messages {
		if msg.RequestID == requestID {
			continue
		}
		entries = append(entries, prompt.HistoryEntry{
			Direction: string(msg.Direction),
			Text:      msg.Text,
			CreatedAt: msg.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return limit, entries, nil
}

// maybeCallRetriever performs the web search for web-tag requests. Retrieval
// is best-effort: transport failures and empty result sets both degrade to
// "no citations used" and never abort the tag flow.
func (s *Service) maybeCallRetriever(ctx context.Context, input TagInput, requestID string) (bool, []prompt.Citation) {
	if input.Tag != "web" {
		return false, nil
	}

	query := strings.TrimSpace(input.Payload)
	if query == "" {
		query = webQueryPlaceholder
	}
	locale := strings.TrimSpace(input.Locale)
	if locale == "" {
		locale = upstream.DefaultLocale
	}

	resp, err := s.retriever.Search(ctx, query, locale, retrieverMaxResults, false, requestID)
	if err != nil {
		s.logger.Warn("retriever call failed, continuing without citations",
			"request_id", requestID,
			"error", err)
		return false, nil
	}
	if resp == nil || len(resp.Results) == 0 {
		return false, nil
	}

	citations := make([]prompt.Citation, 0, len(resp.Results))
	for _, r := range resp.Results {
		citations = append(citations, prompt.Citation{
			Title:       r.Title,
			Snippet:     r.Snippet,
			URL:         r.URL,
			Source:      r.Source,
			PublishedAt: r.PublishedAt,
		})
	}
	return true, citations
}

// resolveIncomingText picks the persisted representation of a tag command:
// the caller's pre-rendered text when present, otherwise a synthesized
// "@tagmind <tag>[<count>]: <payload>" command line.
func resolveIncomingText(input TagInput) string {
	if trimmed := strings.TrimSpace(input.Text); trimmed != "" {
		return trimmed
	}

	var sb strings.Builder
	sb.WriteString("@tagmind ")
	sb.WriteString(input.Tag)
	if input.Count != nil && *input.Count > 0 {
		fmt.Fprintf(&sb, "[%d]", *input.Count)
	}
	if payload := strings.TrimSpace(input.Payload); payload != "" {
		sb.WriteString(": ")
		sb.WriteString(payload)
	}
	return sb.String()
}
