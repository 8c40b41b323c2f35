// Package status exposes a local HTTP endpoint reporting the health of a
// running keepalive watcher: JSON status, a liveness check, and Prometheus
// metrics.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the status HTTP listener. It is intended for loopback
// addresses only; it carries no authentication.
type Server struct {
	addr      string
	metrics   *Metrics
	logger    *slog.Logger
	startedAt time.Time
	watched   int

	srv *http.Server
}

// NewServer creates a status server for the given listen address.
func NewServer(addr string, watchedPID int, metrics *Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:      addr,
		metrics:   metrics,
		logger:    logger,
		startedAt: time.Now(),
		watched:   watchedPID,
	}
}

// Start binds the listener and serves in a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.srv = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status: server stopped", "error", err)
		}
	}()

	s.logger.Info("status: listening", "addr", ln.Addr().String())
	return nil
}

// Stop shuts the listener down, waiting for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// routes constructs the chi mux with all endpoints wired.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth())
	r.Get("/status", s.handleStatus())
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	return r
}

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string `json:"status"` // "ok" or "idle"
}

// handleHealth reports 200 while the watcher process is up. Status is
// "idle" when no heartbeat session is active.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok"}
		if s.metrics.Snapshot().ActiveSessions == 0 {
			resp.Status = "idle"
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	UptimeSeconds int64    `json:"uptime_seconds"`
	WatchedPID    int      `json:"watched_pid"`
	Metrics       Snapshot `json:"metrics"`
}

func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
			WatchedPID:    s.watched,
			Metrics:       s.metrics.Snapshot(),
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
