// Package server exposes the orchestrator's REST API.
//
// # Endpoints
//
//   - GET  /healthz                   — liveness probe, plain "ok"
//   - POST /v1/conversations/upsert   — create or update a contact session's mode
//   - POST /v1/conversations/message  — handle a plain inbound message
//   - POST /v1/conversations/tag      — handle a tag command
//   - POST /v1/orchestrate            — stateless retrieval + completion flow
//
// # Request Correlation
//
// Every response carries an X-Request-Id header. An inbound X-Request-Id is
// honored when its trimmed length is between 8 and 128 characters; otherwise a
// fresh "req_" + 24-hex-char id is generated. The resolved id flows through the
// conversation service to upstream calls and into persisted messages.
//
// # Error Envelope
//
// Failures are reported as JSON:
//
//	{"requestId": "req_...", "code": "BAD_REQUEST" | "LLM_ERROR" | "INTERNAL", "message": "..."}
//
// Validation failures return 400 BAD_REQUEST. Completion failures return
// 500 LLM_ERROR; remote rejections include the upstream status code in the
// message. Retrieval failures never surface here — the conversation service
// degrades them to citation-free prompts.
package server
