// Package health serves liveness, readiness and metrics endpoints for the
// importer. Readiness reports whether the event store answers, whether the
// watch-folder scheduler runs and how the most recent import ended.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/ol-results/internal/metrics"
	"github.com/yourusername/ol-results/internal/models"
	"github.com/yourusername/ol-results/internal/service"
)

const (
	defaultPort  = 9090
	checkTimeout = 3 * time.Second

	checkOK       = "ok"
	checkNotReady = "not_ready"
	checkStopped  = "stopped"
)

// ErrNoEventStore is returned by NewServer when Config.Events is nil
var ErrNoEventStore = errors.New("health server needs an event store")

// EventLister is the read side of the event repository
type EventLister interface {
	FindAll(ctx context.Context) ([]*models.Event, error)
}

// DatabasePinger checks connectivity of the Postgres backend
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// SchedulerStatus reports on the watch-folder scheduler
type SchedulerStatus interface {
	IsRunning() bool
	GetNextRun() time.Time
}

// ImportStats exposes the counters of an import service
type ImportStats interface {
	Snapshot() service.ImportMetricsSnapshot
}

// LiveResponse is the body of /health and /live
type LiveResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
	Commit  string `json:"commit,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// ImportStatus summarizes the imports seen by the service
type ImportStatus struct {
	Total      int    `json:"total"`
	Failed     int    `json:"failed"`
	LastStatus string `json:"last_status,omitempty"`
	LastAt     string `json:"last_at,omitempty"`
}

// ReadyResponse is the body of /ready
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks"`
	Events   *int              `json:"events,omitempty"`
	NextScan string            `json:"next_scan,omitempty"`
	Imports  *ImportStatus     `json:"imports,omitempty"`
	Duration string            `json:"duration"`
}

// Config wires the server to the rest of the service. Only Events is
// required; the other probes are skipped when nil.
type Config struct {
	ServiceName string
	Version     string
	Commit      string
	Port        int
	MetricsPath string
	Logger      *logrus.Logger

	Events    EventLister
	DB        DatabasePinger
	Scheduler SchedulerStatus
	Imports   ImportStats
}

// Server answers health probes
type Server struct {
	cfg     Config
	logger  *logrus.Entry
	started time.Time
	server  *http.Server

	mu    sync.RWMutex
	ready bool
}

// NewServer creates a health server. It starts not ready.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Events == nil {
		return nil, ErrNoEventStore
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Server{
		cfg:     cfg,
		logger:  log.WithField("component", "health"),
		started: time.Now(),
	}, nil
}

// SetReady marks the service as accepting work
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns the flag set by SetReady
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Handler returns the routes served by the health server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleLive)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/ready", s.handleReady)
	if s.cfg.MetricsPath != "" {
		mux.Handle(s.cfg.MetricsPath, metrics.Handler())
	}
	return mux
}

// Start listens in the background until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         ":" + strconv.Itoa(s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.WithField("port", s.cfg.Port).Info("Health server starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("Health server error")
		}
	}()

	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			s.logger.WithError(err).Warn("Health server shutdown failed")
		}
	}()

	return nil
}

// Shutdown stops the listener, waiting up to five seconds for open requests
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LiveResponse{
		Status:  checkOK,
		Service: s.cfg.ServiceName,
		Version: s.cfg.Version,
		Commit:  s.cfg.Commit,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	resp := ReadyResponse{
		Service: s.cfg.ServiceName,
		Checks:  make(map[string]string),
	}
	healthy := true
	fail := func(name, status string) {
		resp.Checks[name] = status
		healthy = false
	}

	if s.IsReady() {
		resp.Checks["service"] = checkOK
	} else {
		fail("service", checkNotReady)
	}

	if s.cfg.DB != nil {
		if err := s.cfg.DB.Ping(ctx); err != nil {
			fail("database", fmt.Sprintf("error: %v", err))
		} else {
			resp.Checks["database"] = checkOK
		}
	}

	if events, err := s.cfg.Events.FindAll(ctx); err != nil {
		fail("events", fmt.Sprintf("error: %v", err))
	} else {
		n := len(events)
		resp.Events = &n
		resp.Checks["events"] = checkOK
		metrics.UpdateEventsStored(float64(n))
	}

	if s.cfg.Scheduler != nil {
		if s.cfg.Scheduler.IsRunning() {
			resp.Checks["scheduler"] = checkOK
			if next := s.cfg.Scheduler.GetNextRun(); !next.IsZero() {
				resp.NextScan = next.UTC().Format(time.RFC3339)
			}
		} else {
			fail("scheduler", checkStopped)
		}
	}

	if s.cfg.Imports != nil {
		resp.Imports = importStatus(s.cfg.Imports.Snapshot())
	}

	resp.Duration = time.Since(start).String()
	code := http.StatusOK
	resp.Status = checkOK
	if !healthy {
		code = http.StatusServiceUnavailable
		resp.Status = checkNotReady
	}
	writeJSON(w, code, resp)
}

// importStatus reports on past imports. A failed last import does not make
// the service unready: the next file or tick may succeed.
func importStatus(snap service.ImportMetricsSnapshot) *ImportStatus {
	st := &ImportStatus{
		Total:      snap.TotalImports,
		Failed:     snap.TotalImports - snap.SuccessfulImports,
		LastStatus: snap.LastStatus,
	}
	if !snap.LastImportAt.IsZero() {
		st.LastAt = snap.LastImportAt.UTC().Format(time.RFC3339)
	}
	return st
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
