package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/ol-results/internal/models"
	"github.com/yourusername/ol-results/internal/service"
)

const (
	errAddJob         = "failed to add job: %w"
	errReadWatchDir   = "failed to read watch directory %s: %w"
	defaultJobTimeout = 10 * time.Minute
)

// Importer is the part of the import service the scheduler drives
type Importer interface {
	ImportPath(ctx context.Context, path string) (*models.Event, error)
	ImportURL(ctx context.Context, url string) (*models.Event, error)
}

// ScanReport summarizes one directory scan
type ScanReport struct {
	Imported int
	Failed   int
	Skipped  int
}

// Scheduler manages scheduled import jobs
type Scheduler struct {
	cron            *cron.Cron
	importer        Importer
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration

	seenMu sync.Mutex
	seen   map[string]time.Time
}

// NewScheduler creates a new scheduler
func NewScheduler(importer Importer, log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	entry := log.WithField("component", "scheduler")

	// a tick that arrives while the previous run of the same job is still
	// going is dropped
	jobLog := cron.PrintfLogger(entry)
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(jobLog), cron.SkipIfStillRunning(jobLog)),
	)

	return &Scheduler{
		cron:            c,
		importer:        importer,
		logger:          entry,
		jobIDs:          make([]cron.EntryID, 0),
		jobTimeout:      defaultJobTimeout,
		gracefulTimeout: 30 * time.Second,
		seen:            make(map[string]time.Time),
	}
}

// ScheduleDirectoryScan imports new or changed *.xml files in dir on every
// tick of cronExpression
func (s *Scheduler) ScheduleDirectoryScan(cronExpression, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		report, err := s.ScanDirectory(ctx, dir)
		if err != nil {
			s.logger.WithError(err).WithField("dir", dir).Error("Directory scan failed")
			return
		}
		if report.Imported > 0 || report.Failed > 0 {
			s.logger.WithFields(logrus.Fields{
				"dir":      dir,
				"imported": report.Imported,
				"failed":   report.Failed,
				"skipped":  report.Skipped,
			}).Info("Directory scan completed")
		}
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf(errAddJob, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{"dir": dir, "schedule": cronExpression}).Info("Scheduled directory scan")

	return nil
}

// ScheduleURLImport re-imports the result list at url on every tick
func (s *Scheduler) ScheduleURLImport(cronExpression, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		if _, err := s.importer.ImportURL(ctx, url); err != nil {
			s.logger.WithError(err).WithField("url", url).Error("Scheduled import failed")
		}
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf(errAddJob, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{"url": url, "schedule": cronExpression}).Info("Scheduled URL import")

	return nil
}

// ScanDirectory imports every *.xml file in dir whose modification time
// changed since the previous scan. Files that failed with a retryable
// error are tried again on the next scan.
func (s *Scheduler) ScanDirectory(ctx context.Context, dir string) (ScanReport, error) {
	var report ScanReport

	entries, err := os.ReadDir(dir)
	if err != nil {
		return report, fmt.Errorf(errReadWatchDir, dir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			report.Failed++
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if !s.changed(path, info.ModTime()) {
			report.Skipped++
			continue
		}

		event, err := s.importer.ImportPath(ctx, path)
		if err != nil {
			report.Failed++
			var importErr *service.ImportError
			if errors.As(err, &importErr) && importErr.Retryable() {
				continue
			}
			s.markSeen(path, info.ModTime())
			continue
		}

		s.markSeen(path, info.ModTime())
		report.Imported++
		s.logger.WithFields(logrus.Fields{
			"file":     entry.Name(),
			"event_id": int64(event.ID),
		}).Debug("Imported result list")
	}

	return report, nil
}

func (s *Scheduler) changed(path string, modTime time.Time) bool {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	last, ok := s.seen[path]
	return !ok || !last.Equal(modTime)
}

func (s *Scheduler) markSeen(path string, modTime time.Time) {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	s.seen[path] = modTime
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	select {
	case <-s.cron.Stop().Done():
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("Scheduler stop timed out waiting for running jobs")
	}
	s.isRunning = false
	s.logger.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}
