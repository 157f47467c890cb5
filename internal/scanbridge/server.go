// Package scanbridge exposes a small local HTTP listener that turns
// scanner hardware events into workflow scans. Desk scanners and phone
// companion apps POST each decoded frame; the bridge feeds them
// through the gated scanner one at a time.
package scanbridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"bookdesk/internal/workflow"
)

// Sink consumes raw scan strings. *workflow.Scanner is the production
// implementation.
type Sink interface {
	Deliver(ctx context.Context, raw string) error
}

// Server is the scanner bridge HTTP listener.
type Server struct {
	sink   Sink
	logger *zap.Logger
	http   *http.Server
}

// New creates a bridge listening on addr, delivering into sink.
func New(addr string, sink Sink, logger *zap.Logger) *Server {
	s := &Server{sink: sink, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/scan", s.handleScan).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start listens in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.logger.Info("Scanner bridge listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Scanner bridge stopped", zap.Error(err))
		}
	}()
}

// Shutdown drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type scanRequest struct {
	Data string `json:"data"`
}

type scanResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("Failed to decode scan request", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, scanResponse{Status: "error", Message: "Invalid request body"})
		return
	}
	if req.Data == "" {
		writeJSON(w, http.StatusBadRequest, scanResponse{Status: "error", Message: "Missing scan data"})
		return
	}

	err := s.sink.Deliver(r.Context(), req.Data)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, scanResponse{Status: "accepted"})
	case errors.Is(err, workflow.ErrScanIgnored):
		// Repeat frames of an already-processed code are normal; the
		// device gets a quiet OK so it stops retrying.
		writeJSON(w, http.StatusOK, scanResponse{Status: "ignored"})
	default:
		s.logger.Warn("Scan rejected", zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, scanResponse{
			Status:  "rejected",
			Message: workflow.UserMessage(err),
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
