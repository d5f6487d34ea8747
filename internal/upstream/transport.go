// ABOUTME: Shared HTTP POST transport for the retriever and llm-gateway clients
// ABOUTME: Two attempts total, second attempt only after a connection-level failure

package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const maxAttempts = 2

// newHTTPClient builds an http.Client with a dial timeout separate from the
// overall request timeout. Generation is slower than search, so the llm client
// passes a longer read timeout.
func newHTTPClient(connectTimeout, readTimeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: readTimeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: connectTimeout}).DialContext,
			TLSHandshakeTimeout: connectTimeout,
		},
	}
}

// postJSON sends one JSON request and decodes the JSON response into out.
// Connection-level failures are retried immediately, at most once. A received
// non-2xx response is a RemoteError and is never retried. An empty response
// body counts as a transport failure.
func postJSON(ctx context.Context, client *http.Client, dependency, url, requestID string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", dependency, err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating %s request: %w", dependency, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-Id", requestID)

		resp, err := client.Do(req)
		if err != nil {
			lastErr = &TransportError{Dependency: dependency, Err: err}
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = &TransportError{Dependency: dependency, Err: err}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &RemoteError{
				Dependency: dependency,
				Status:     resp.StatusCode,
				Body:       truncate(string(respBody), 400),
			}
		}

		if len(bytes.TrimSpace(respBody)) == 0 {
			return &TransportError{Dependency: dependency, Err: fmt.Errorf("response missing body")}
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return &TransportError{Dependency: dependency, Err: fmt.Errorf("decoding response: %w", err)}
		}
		return nil
	}

	return lastErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
