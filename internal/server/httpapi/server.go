// Package httpapi exposes the mirror server over HTTP/JSON: account
// endpoints issuing JWT pairs, and bearer-authenticated document endpoints.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/plantfolk/plantkeeper/internal/logging"
	"github.com/plantfolk/plantkeeper/internal/server/services"
)

// Server wraps an http.Server with the API routes mounted.
type Server struct {
	addr      string
	log       logging.Logger
	users     *services.UserService
	documents *services.DocumentService
	srv       *http.Server
}

func NewServer(addr string, log logging.Logger, users *services.UserService, documents *services.DocumentService) *Server {
	s := &Server{addr: addr, log: log, users: users, documents: documents}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the mounted routes, used directly in tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/ping", s.handlePing)

	mux.Handle("GET /api/docs/{kind}/{id}", s.withAuth(s.handleGetDocument))
	mux.Handle("PUT /api/docs/{kind}/{id}", s.withAuth(s.handleSetDocument))
	mux.Handle("POST /api/docs:batch", s.withAuth(s.handleBatchCommit))
	mux.Handle("GET /api/docs/{kind}", s.withAuth(s.handleQueryDocuments))

	return s.withLogging(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info(ctx, "http server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
