// ABOUTME: Request id generation and propagation for the HTTP API.
// ABOUTME: Honors an inbound X-Request-Id header within length bounds, else mints one.

package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
)

const requestIDHeader = "X-Request-Id"

// Inbound ids outside these bounds are replaced with a generated one.
const (
	requestIDMinLen = 8
	requestIDMaxLen = 128
)

// newRequestID mints a correlation id of the form "req_" + 24 hex chars.
func newRequestID() string {
	b := make([]byte, 12)
	// rand.Read on crypto/rand never fails on supported platforms
	_, _ = rand.Read(b)
	return "req_" + hex.EncodeToString(b)
}

// getOrCreateRequestID returns the caller's X-Request-Id when it is usable,
// otherwise a freshly generated id.
func getOrCreateRequestID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(requestIDHeader))
	if len(id) >= requestIDMinLen && len(id) <= requestIDMaxLen {
		return id
	}
	return newRequestID()
}
