// Package upstream wraps the two outbound dependencies of the orchestrator:
// the web-retriever search service and the llm-gateway completion service.
//
// # Retry Policy
//
// Both clients share one policy: at most two attempts total, with the second
// attempt fired immediately after a connection-level failure (dial timeout,
// connection refused, read error). A received non-2xx response is raised at
// once as a *RemoteError and never retried. A 2xx response with an empty body
// is a *TransportError.
//
// # Correlation
//
// Every request carries the caller's request id in the X-Request-Id header so
// logs can be joined across services.
//
// # Timeouts
//
// Connect and read timeouts are configured separately; the completion client
// uses a longer read timeout since generation is slower than search.
package upstream
