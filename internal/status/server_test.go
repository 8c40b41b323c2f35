package status

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T) (*Server, *Metrics) {
	t.Helper()
	m := NewMetrics()
	return NewServer("127.0.0.1:0", 1234, m, slog.New(slog.NewTextHandler(io.Discard, nil))), m
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth_IdleWithoutSessions(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	rec := get(t, srv.routes(), "/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "idle" {
		t.Errorf("health status = %q, want idle", resp.Status)
	}
}

func TestHealth_OKWithActiveSession(t *testing.T) {
	t.Parallel()

	srv, m := newTestServer(t)
	m.SessionStarted(1234, 597*time.Second)

	var resp HealthResponse
	rec := get(t, srv.routes(), "/health")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("health status = %q, want ok", resp.Status)
	}
}

func TestStatus_ReflectsRecordedEvents(t *testing.T) {
	t.Parallel()

	srv, m := newTestServer(t)
	m.SessionStarted(1234, 597*time.Second)
	m.RefreshSucceeded(1234)
	m.RefreshSucceeded(1234)
	m.RefreshFailed(1234, errors.New("denied"))

	var resp StatusResponse
	rec := get(t, srv.routes(), "/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.WatchedPID != 1234 {
		t.Errorf("watched pid = %d", resp.WatchedPID)
	}
	if resp.Metrics.Refreshes != 2 {
		t.Errorf("refreshes = %d, want 2", resp.Metrics.Refreshes)
	}
	if resp.Metrics.RefreshFailures != 1 {
		t.Errorf("failures = %d, want 1", resp.Metrics.RefreshFailures)
	}
	if resp.Metrics.ActiveSessions != 1 {
		t.Errorf("active sessions = %d, want 1", resp.Metrics.ActiveSessions)
	}
	if resp.Metrics.LastRefresh == nil {
		t.Error("last refresh not set")
	}
}

func TestMetricsEndpoint_ExposesCounters(t *testing.T) {
	t.Parallel()

	srv, m := newTestServer(t)
	m.RefreshSucceeded(1234)

	rec := get(t, srv.routes(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "sudokeep_refresh_total 1") {
		t.Errorf("metrics body missing refresh counter:\n%s", body)
	}
	if !strings.Contains(body, "sudokeep_active_sessions 0") {
		t.Errorf("metrics body missing sessions gauge:\n%s", body)
	}
}
