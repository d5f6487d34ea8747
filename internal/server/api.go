// ABOUTME: HTTP API handlers for the conversation and orchestrate endpoints.
// ABOUTME: Validates request bodies, resolves request ids, and maps service errors to JSON.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tagmind/orchestrator/internal/conversation"
	"github.com/tagmind/orchestrator/internal/store"
	"github.com/tagmind/orchestrator/internal/upstream"
)

// supportedTags is the closed tag vocabulary accepted by POST /v1/conversations/tag.
var supportedTags = map[string]struct{}{
	"help":  {},
	"llm":   {},
	"web":   {},
	"recap": {},
	"judge": {},
	"fix":   {},
	"plan":  {},
	"safe":  {},
}

// UpsertRequest is the JSON request body for POST /v1/conversations/upsert.
type UpsertRequest struct {
	ContactID string `json:"contactId"`
	Mode      string `json:"mode"`
}

// UpsertResponse is the JSON response for POST /v1/conversations/upsert.
type UpsertResponse struct {
	RequestID string `json:"requestId"`
	SessionID string `json:"sessionId"`
	ContactID string `json:"contactId"`
	Mode      string `json:"mode"`
}

// MessageRequest is the JSON request body for POST /v1/conversations/message.
type MessageRequest struct {
	ContactID string `json:"contactId"`
	Message   string `json:"message"`
}

// MessageResponse is the JSON response for POST /v1/conversations/message.
type MessageResponse struct {
	RequestID      string         `json:"requestId"`
	Decision       string         `json:"decision"`
	SuggestedReply string         `json:"suggestedReply"`
	SessionID      string         `json:"sessionId"`
	Used           map[string]any `json:"used"`
}

// TagAPIRequest is the JSON request body for POST /v1/conversations/tag.
type TagAPIRequest struct {
	ContactID string `json:"contactId"`
	Tag       string `json:"tag"`
	Count     *int   `json:"count,omitempty"`
	Payload   string `json:"payload,omitempty"`
	Locale    string `json:"locale,omitempty"`
	Text      string `json:"text,omitempty"`
}

// TagAPIResponse is the JSON response for POST /v1/conversations/tag.
type TagAPIResponse struct {
	RequestID string         `json:"requestId"`
	Decision  string         `json:"decision"`
	ReplyText string         `json:"replyText"`
	SessionID string         `json:"sessionId"`
	ContactID string         `json:"contactId"`
	Tag       string         `json:"tag"`
	Used      map[string]any `json:"used"`
}

// OrchestrateRequest is the JSON request body for POST /v1/orchestrate.
type OrchestrateRequest struct {
	UserID  string `json:"userId"`
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
	Mode    string `json:"mode,omitempty"`
	Locale  string `json:"locale,omitempty"`
}

// OrchestrateResponse is the JSON response for POST /v1/orchestrate.
type OrchestrateResponse struct {
	RequestID string         `json:"requestId"`
	Answer    string         `json:"answer"`
	Used      map[string]any `json:"used"`
}

// handleHealthz handles GET /healthz requests.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set(requestIDHeader, getOrCreateRequestID(r))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleUpsert handles POST /v1/conversations/upsert requests.
func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	requestID, ok := s.beginPost(w, r)
	if !ok {
		return
	}

	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, requestID, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}

	contactID := strings.TrimSpace(req.ContactID)
	if contactID == "" {
		s.sendJSONError(w, requestID, http.StatusBadRequest, "BAD_REQUEST", "contactId is required")
		return
	}
	if strings.TrimSpace(req.Mode) == "" {
		s.sendJSONError(w, requestID, http.StatusBadRequest, "BAD_REQUEST", "mode is required")
		return
	}
	mode, ok := store.ParseMode(req.Mode)
	if !ok {
		s.sendJSONError(w, requestID, http.StatusBadRequest, "BAD_REQUEST", "mode must be OFF or SUGGEST")
		return
	}

	session, err := s.conversations.Upsert(r.Context(), contactID, mode)
	if err != nil {
		s.respondServiceError(w, requestID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, UpsertResponse{
		RequestID: requestID,
		SessionID: session.ID,
		ContactID: session.ContactID,
		Mode:      string(session.Mode),
	})
}

// handleMessage handles POST /v1/conversations/message requests.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	requestID, ok := s.beginPost(w, r)
	if !ok {
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, requestID, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}

	contactID := strings.TrimSpace(req.ContactID)
	message := strings.TrimSpace(req.Message)
	if contactID == "" || message == "" {
		s.sendJSONError(w, requestID, http.StatusBadRequest, "BAD_REQUEST", "contactId and message are required")
		return
	}

	result, err := s.conversations.HandleMessage(r.Context(), contactID, message, requestID)
	if err != nil {
		s.respondServiceError(w, requestID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, MessageResponse{
		RequestID:      requestID,
		Decision:       result.Decision,
		SuggestedReply: result.SuggestedReply,
		SessionID:      result.SessionID,
		Used:           result.Used,
	})
}

// handleTag handles POST /v1/conversations/tag requests.
func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	requestID, ok := s.beginPost(w, r)
	if !ok {
		return
	}

	var req TagAPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, requestID, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}

	contactID := strings.TrimSpace(req.ContactID)
	if contactID == "" {
		s.sendJSONError(w, requestID, http.StatusBadRequest, "BAD_REQUEST", "contactId is required")
		return
	}
	tag := strings.ToLower(strings.TrimSpace(req.Tag))
	if tag == "" {
		s.sendJSONError(w, requestID, http.StatusBadRequest, "BAD_REQUEST", "tag is required")
		return
	}
	if _, known := supportedTags[tag]; !known {
		s.sendJSONError(w, requestID, http.StatusBadRequest, "BAD_REQUEST", "tag is not supported")
		return
	}
	if req.Count != nil && *req.Count <= 0 {
		s.sendJSONError(w, requestID, http.StatusBadRequest, "BAD_REQUEST", "count must be positive")
		return
	}

	result, err := s.conversations.HandleTag(r.Context(), conversation.TagInput{
		ContactID: contactID,
		Tag:       tag,
		Count:     req.Count,
		Payload:   req.Payload,
		Locale:    strings.TrimSpace(req.Locale),
		Text:      req.Text,
	}, requestID)
	if err != nil {
		s.respondServiceError(w, requestID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, TagAPIResponse{
		RequestID: requestID,
		Decision:  result.Decision,
		ReplyText: result.ReplyText,
		SessionID: result.SessionID,
		ContactID: result.ContactID,
		Tag:       result.Tag,
		Used:      result.Used,
	})
}

// handleOrchestrate handles POST /v1/orchestrate requests.
func (s *Server) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	requestID, ok := s.beginPost(w, r)
	if !ok {
		return
	}

	var req OrchestrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, requestID, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.UserID) == "" ||
		strings.TrimSpace(req.ChatID) == "" ||
		strings.TrimSpace(req.Message) == "" {
		s.sendJSONError(w, requestID, http.StatusBadRequest, "BAD_REQUEST", "userId, chatId and message are required")
		return
	}

	result, err := s.conversations.Orchestrate(r.Context(), conversation.OrchestrateInput{
		UserID:  strings.TrimSpace(req.UserID),
		ChatID:  strings.TrimSpace(req.ChatID),
		Message: req.Message,
		Mode:    req.Mode,
		Locale:  req.Locale,
	}, requestID)
	if err != nil {
		s.respondServiceError(w, requestID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, OrchestrateResponse{
		RequestID: requestID,
		Answer:    result.Answer,
		Used:      result.Used,
	})
}

// beginPost enforces the POST method and stamps the response with the
// resolved request id. Returns false when the request was already answered.
func (s *Server) beginPost(w http.ResponseWriter, r *http.Request) (string, bool) {
	requestID := getOrCreateRequestID(r)
	w.Header().Set(requestIDHeader, requestID)
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return requestID, false
	}
	return requestID, true
}

// respondServiceError maps service failures onto the JSON error envelope.
// Remote llm-gateway rejections carry the upstream status in the message;
// everything unrecognized degrades to a generic internal error.
func (s *Server) respondServiceError(w http.ResponseWriter, requestID string, err error) {
	var remote *upstream.RemoteError
	if errors.As(err, &remote) {
		s.logger.Error("upstream rejected request",
			"request_id", requestID,
			"dependency", remote.Dependency,
			"status", remote.Status)
		s.sendJSONError(w, requestID, http.StatusInternalServerError, "LLM_ERROR",
			fmt.Sprintf("llm-gateway call failed (status=%d)", remote.Status))
		return
	}

	var transport *upstream.TransportError
	if errors.As(err, &transport) {
		s.logger.Error("upstream unreachable",
			"request_id", requestID,
			"dependency", transport.Dependency,
			"error", err)
		s.sendJSONError(w, requestID, http.StatusInternalServerError, "LLM_ERROR", "llm-gateway call failed")
		return
	}

	s.logger.Error("request failed", "request_id", requestID, "error", err)
	s.sendJSONError(w, requestID, http.StatusInternalServerError, "INTERNAL", "internal server error")
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, requestID string, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"requestId": requestID,
		"code":      code,
		"message":   message,
	})
}

// writeJSON writes a JSON success response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
