package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ol-results/internal/metrics"
	"github.com/yourusername/ol-results/internal/models"
	"github.com/yourusername/ol-results/internal/service"
)

const testServiceName = "ol-results"

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error {
	return p.err
}

type stubEvents struct {
	events []*models.Event
	err    error
}

func (s stubEvents) FindAll(ctx context.Context) ([]*models.Event, error) {
	return s.events, s.err
}

type stubScheduler struct {
	running bool
	next    time.Time
}

func (s stubScheduler) IsRunning() bool       { return s.running }
func (s stubScheduler) GetNextRun() time.Time { return s.next }

type stubImports struct {
	snap service.ImportMetricsSnapshot
}

func (s stubImports) Snapshot() service.ImportMetricsSnapshot { return s.snap }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	cfg.ServiceName = testServiceName
	cfg.Version = "1.0.0"
	cfg.Logger = quietLogger()
	if cfg.Events == nil {
		cfg.Events = stubEvents{}
	}
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func readyResponse(t *testing.T, rec *httptest.ResponseRecorder) ReadyResponse {
	t.Helper()
	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestNewServerRequiresEventStore(t *testing.T) {
	_, err := NewServer(Config{ServiceName: testServiceName})
	assert.ErrorIs(t, err, ErrNoEventStore)
}

func TestNewServerDefaultsPort(t *testing.T) {
	srv := newTestServer(t, Config{})
	assert.Equal(t, defaultPort, srv.cfg.Port)
}

func TestHealthAndLive(t *testing.T) {
	h := newTestServer(t, Config{}).Handler()

	for _, path := range []string{"/health", "/live"} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, h, path)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp LiveResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "ok", resp.Status)
			assert.Equal(t, testServiceName, resp.Service)
			assert.Equal(t, "1.0.0", resp.Version)
		})
	}
}

func TestReady(t *testing.T) {
	twoEvents := []*models.Event{{ID: 1}, {ID: 2}}

	tests := []struct {
		name       string
		ready      bool
		cfg        Config
		wantCode   int
		wantChecks map[string]string
	}{
		{
			name:       "not marked ready",
			ready:      false,
			wantCode:   http.StatusServiceUnavailable,
			wantChecks: map[string]string{"service": "not_ready", "events": "ok"},
		},
		{
			name:       "memory store only",
			ready:      true,
			cfg:        Config{Events: stubEvents{events: twoEvents}},
			wantCode:   http.StatusOK,
			wantChecks: map[string]string{"service": "ok", "events": "ok"},
		},
		{
			name:     "event store fails",
			ready:    true,
			cfg:      Config{Events: stubEvents{err: errors.New("relation \"events\" does not exist")}},
			wantCode: http.StatusServiceUnavailable,
			wantChecks: map[string]string{
				"service": "ok",
				"events":  "error: relation \"events\" does not exist",
			},
		},
		{
			name:       "healthy database",
			ready:      true,
			cfg:        Config{DB: stubPinger{}},
			wantCode:   http.StatusOK,
			wantChecks: map[string]string{"service": "ok", "database": "ok", "events": "ok"},
		},
		{
			name:     "database down",
			ready:    true,
			cfg:      Config{DB: stubPinger{err: errors.New("connection refused")}},
			wantCode: http.StatusServiceUnavailable,
			wantChecks: map[string]string{
				"service":  "ok",
				"database": "error: connection refused",
				"events":   "ok",
			},
		},
		{
			name:       "scheduler running",
			ready:      true,
			cfg:        Config{Scheduler: stubScheduler{running: true}},
			wantCode:   http.StatusOK,
			wantChecks: map[string]string{"service": "ok", "events": "ok", "scheduler": "ok"},
		},
		{
			name:       "scheduler stopped",
			ready:      true,
			cfg:        Config{Scheduler: stubScheduler{}},
			wantCode:   http.StatusServiceUnavailable,
			wantChecks: map[string]string{"service": "ok", "events": "ok", "scheduler": "stopped"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.cfg)
			srv.SetReady(tt.ready)

			rec := get(t, srv.Handler(), "/ready")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantChecks, readyResponse(t, rec).Checks)
		})
	}
}

func TestReadyReportsStoredEventsAndNextScan(t *testing.T) {
	metrics.InitRegistry()
	next := time.Date(2026, 5, 3, 12, 0, 0, 0, time.UTC)
	srv := newTestServer(t, Config{
		Events:    stubEvents{events: []*models.Event{{ID: 1}, {ID: 2}, {ID: 3}}},
		Scheduler: stubScheduler{running: true, next: next},
	})
	srv.SetReady(true)

	resp := readyResponse(t, get(t, srv.Handler(), "/ready"))
	require.NotNil(t, resp.Events)
	assert.Equal(t, 3, *resp.Events)
	assert.Equal(t, "2026-05-03T12:00:00Z", resp.NextScan)
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.EventsStored))
}

func TestReadyReportsLastImport(t *testing.T) {
	at := time.Date(2026, 5, 3, 9, 15, 0, 0, time.UTC)

	tests := []struct {
		name string
		snap service.ImportMetricsSnapshot
		want ImportStatus
	}{
		{
			name: "no imports yet",
			want: ImportStatus{},
		},
		{
			name: "last import succeeded",
			snap: service.ImportMetricsSnapshot{TotalImports: 2, SuccessfulImports: 2, LastStatus: metrics.ImportStatusSuccess, LastImportAt: at},
			want: ImportStatus{Total: 2, LastStatus: metrics.ImportStatusSuccess, LastAt: "2026-05-03T09:15:00Z"},
		},
		{
			name: "last import failed",
			snap: service.ImportMetricsSnapshot{TotalImports: 3, SuccessfulImports: 2, LastStatus: metrics.ImportStatusParseError, LastImportAt: at},
			want: ImportStatus{Total: 3, Failed: 1, LastStatus: metrics.ImportStatusParseError, LastAt: "2026-05-03T09:15:00Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, Config{Imports: stubImports{snap: tt.snap}})
			srv.SetReady(true)

			rec := get(t, srv.Handler(), "/ready")
			// a failed import leaves the service ready for the next file
			assert.Equal(t, http.StatusOK, rec.Code)

			resp := readyResponse(t, rec)
			require.NotNil(t, resp.Imports)
			assert.Equal(t, tt.want, *resp.Imports)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.InitRegistry()
	metrics.RecordImport(metrics.ImportStatusSuccess, 0.1)

	rec := get(t, newTestServer(t, Config{MetricsPath: "/metrics"}).Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ol_results_imports_total")
}

func TestMetricsEndpointDisabled(t *testing.T) {
	rec := get(t, newTestServer(t, Config{}).Handler(), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
