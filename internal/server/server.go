// ABOUTME: HTTP server wiring and lifecycle for the orchestrator REST API.
// ABOUTME: Owns the mux, listener, and graceful shutdown sequencing.

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tagmind/orchestrator/internal/conversation"
	"github.com/tagmind/orchestrator/internal/store"
)

// shutdownTimeout bounds how long in-flight requests may drain on shutdown.
const shutdownTimeout = 10 * time.Second

// Conversations is the service surface the HTTP layer depends on.
type Conversations interface {
	Upsert(ctx context.Context, contactID string, mode store.Mode) (*store.Session, error)
	HandleMessage(ctx context.Context, contactID, messageText, requestID string) (*conversation.MessageResult, error)
	HandleTag(ctx context.Context, input conversation.TagInput, requestID string) (*conversation.TagResult, error)
	Orchestrate(ctx context.Context, input conversation.OrchestrateInput, requestID string) (*conversation.OrchestrateResult, error)
}

// Server exposes the orchestrator REST API.
type Server struct {
	addr          string
	conversations Conversations
	logger        *slog.Logger
	httpServer    *http.Server
}

// New creates a Server listening on addr once Run is called.
func New(addr string, conversations Conversations, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:          addr,
		conversations: conversations,
		logger:        logger.With("component", "server"),
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// routes builds the request mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/v1/conversations/upsert", s.handleUpsert)
	mux.HandleFunc("/v1/conversations/message", s.handleMessage)
	mux.HandleFunc("/v1/conversations/tag", s.handleTag)
	mux.HandleFunc("/v1/orchestrate", s.handleOrchestrate)
	return mux
}

// Handler returns the server's HTTP handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := s.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
