// ABOUTME: Error taxonomy for outbound calls to the retriever and llm-gateway
// ABOUTME: Distinguishes connection-level failures (retryable) from remote rejections (not)

package upstream

import "fmt"

// TransportError is a connection-level failure: dial/read timeout, connection
// refused, or a response with no usable body. The retry wrapper retries these
// once; the boundary layer maps them to an upstream-dependency error.
type TransportError struct {
	Dependency string // "llm-gateway" or "web-retriever"
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Dependency, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError is a received non-2xx response from the remote service.
// It is raised immediately, never retried.
type RemoteError struct {
	Dependency string
	Status     int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s call failed (status=%d)", e.Dependency, e.Status)
}
