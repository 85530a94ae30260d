// Package httpapi exposes the conversion service over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mosslantern/usagecsv/internal/archive"
	"github.com/mosslantern/usagecsv/internal/domain"
	"github.com/mosslantern/usagecsv/internal/handler"
)

// ConvertService runs a conversion for one uploaded object.
type ConvertService interface {
	Handle(ctx context.Context, ref handler.ObjectRef) (handler.Result, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes convert, health, readiness, and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	service    ConvertService
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /v1/convert, /healthz, /readyz, and
// /metrics routes.
func NewServer(addr string, service ConvertService, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// Conversion runs round-trip to object storage, so the write
			// window is wider than the health endpoints need.
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		service: service,
		logger:  logger,
	}

	mux.HandleFunc("POST /v1/convert", s.handleConvert)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var ref handler.ObjectRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if ref.Bucket == "" || ref.Key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bucket and key are required"})
		return
	}

	result, err := s.service.Handle(r.Context(), ref)
	if err != nil {
		status := http.StatusInternalServerError
		if isInputError(err) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// isInputError reports whether the failure came from the uploaded data rather
// than the service or its dependencies.
func isInputError(err error) bool {
	return errors.Is(err, domain.ErrMalformedInput) ||
		errors.Is(err, domain.ErrUnknownUsageType) ||
		errors.Is(err, archive.ErrInvalidArchive)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
