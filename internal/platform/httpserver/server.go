// Package httpserver wraps the standard http.Server with the configured
// timeouts so main stays small.
package httpserver

import (
	"context"
	"net/http"

	"fieldsafe/internal/platform/config"
)

// Server is the configured HTTP server.
type Server struct {
	srv *http.Server
}

// New builds a server from config. The write timeout is left unset so SSE
// connections can outlive a single response deadline; slow-client
// protection comes from the read and idle timeouts.
func New(cfg config.ServerConfig, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:        cfg.Addr(),
			Handler:     handler,
			ReadTimeout: cfg.ReadTimeout,
			IdleTimeout: cfg.IdleTimeout,
		},
	}
}

// ListenAndServe blocks serving requests.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Addr returns the bind address.
func (s *Server) Addr() string {
	return s.srv.Addr
}
