// Package health provides the local status server.
//
// The server is opt-in (--status-port) and binds to localhost only. It
// exposes liveness and readiness probes, the current session snapshot,
// Prometheus metrics and the Swagger UI for those endpoints.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/Akira-Osanai/pomodoro-timer/internal/metrics"
	"github.com/Akira-Osanai/pomodoro-timer/internal/session"
)

// StatusFunc returns the current session snapshot.
type StatusFunc func() session.Snapshot

// StatusResponse is the body of the probe endpoints.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// Server is a lightweight HTTP server for status and metrics.
type Server struct {
	port     int
	status   StatusFunc
	gatherer prometheus.Gatherer
	server   *http.Server
}

// New creates a new status server.
func New(port int, status StatusFunc, gatherer prometheus.Gatherer) *Server {
	return &Server{port: port, status: status, gatherer: gatherer}
}

// Handler returns the routes served by the status server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", metrics.Handler(s.gatherer))

	// Swagger UI for the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	return mux
}

// ListenAndServe starts the status server on localhost.
// It blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              net.JoinHostPort("127.0.0.1", fmt.Sprint(s.port)),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("status server listening", "addr", s.server.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("status server: %w", err)
	}
	return nil
}

// handleHealthz reports liveness.
//
// @Summary     Liveness probe
// @Tags        health
// @Produce     json
// @Success     200  {object}  health.StatusResponse
// @Router      /healthz [get]
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReadyz reports whether the timer loop is running.
//
// @Summary     Readiness probe
// @Description Ready once startup narration has finished and until shutdown begins.
// @Tags        health
// @Produce     json
// @Success     200  {object}  health.StatusResponse
// @Failure     503  {object}  health.StatusResponse
// @Router      /readyz [get]
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.status().Phase != session.PhaseRunning {
		writeJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleStatus returns the session snapshot.
//
// @Summary     Current session
// @Description Current period, session counters, elapsed time and remaining minutes.
// @Tags        session
// @Produce     json
// @Success     200  {object}  session.Snapshot
// @Router      /status [get]
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
