// Package http exposes the STT and TTS services over a JSON HTTP API.
// Request identity arrives from the gateway as headers; handlers thread
// it into the audit trail explicitly.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/google/uuid"

	"github.com/xgenlab/xgenaudio/internal/auditlog"
	"github.com/xgenlab/xgenaudio/internal/service"
)

// Server is the HTTP front of the process.
type Server struct {
	httpServer *http.Server
}

// New builds the server with all handlers mounted.
func New(addr string, stt *service.STT, tts *service.TTS) *Server {
	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("XgenAudio", "1.0.0"))

	NewSTTHandler(api, stt)
	NewTTSHandler(api, tts)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Identity carries the gateway-injected user headers.
type Identity struct {
	UserID   string `header:"X-User-ID"`
	Username string `header:"X-Username"`
	IsAdmin  bool   `header:"X-Is-Admin"`
}

// auditContext builds the audit context for one request. Every request
// gets a fresh request ID.
func (id Identity) auditContext(endpoint, function string) auditlog.Context {
	userID := id.UserID
	if userID == "" {
		userID = "anonymous"
	}
	return auditlog.Context{
		UserID:    userID,
		Endpoint:  endpoint,
		Function:  function,
		RequestID: uuid.NewString(),
	}
}
