package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/ol-results/internal/metrics"
)

// ImportMetrics tracks statistics about imports run by one ImportService
type ImportMetrics struct {
	mu                sync.RWMutex
	StartTime         time.Time
	LastDuration      time.Duration
	LastImportAt      time.Time
	LastStatus        string
	TotalImports      int
	SuccessfulImports int
	CreatedEvents     int
	OverwrittenEvents int
	ClassResults      int
	Results           int
	Batches           int
	IOErrors          int
	ParseErrors       int
	PersistenceErrors int
}

// ImportMetricsSnapshot is a copy of the counters without the lock
type ImportMetricsSnapshot struct {
	StartTime         time.Time
	LastDuration      time.Duration
	LastImportAt      time.Time
	LastStatus        string
	TotalImports      int
	SuccessfulImports int
	CreatedEvents     int
	OverwrittenEvents int
	ClassResults      int
	Results           int
	Batches           int
	IOErrors          int
	ParseErrors       int
	PersistenceErrors int
}

// NewImportMetrics creates a new metrics tracker
func NewImportMetrics() *ImportMetrics {
	return &ImportMetrics{
		StartTime: time.Now(),
	}
}

// RecordSuccess records a completed import
func (m *ImportMetrics) RecordSuccess(created bool, classes, results int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalImports++
	m.SuccessfulImports++
	if created {
		m.CreatedEvents++
	} else {
		m.OverwrittenEvents++
	}
	m.ClassResults += classes
	m.Results += results
	m.LastDuration = duration
	m.LastImportAt = time.Now()
	m.LastStatus = metrics.ImportStatusSuccess
}

// RecordBatch increments the persisted batch count
func (m *ImportMetrics) RecordBatch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Batches++
}

// RecordFailure increments the error count for kind
func (m *ImportMetrics) RecordFailure(kind ErrorKind, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalImports++
	m.LastDuration = duration
	m.LastImportAt = time.Now()
	m.LastStatus = kind.status()
	switch kind {
	case KindIO:
		m.IOErrors++
	case KindParse:
		m.ParseErrors++
	default:
		m.PersistenceErrors++
	}
}

// Snapshot returns a consistent copy of the counters
func (m *ImportMetrics) Snapshot() ImportMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return ImportMetricsSnapshot{
		StartTime:         m.StartTime,
		LastDuration:      m.LastDuration,
		LastImportAt:      m.LastImportAt,
		LastStatus:        m.LastStatus,
		TotalImports:      m.TotalImports,
		SuccessfulImports: m.SuccessfulImports,
		CreatedEvents:     m.CreatedEvents,
		OverwrittenEvents: m.OverwrittenEvents,
		ClassResults:      m.ClassResults,
		Results:           m.Results,
		Batches:           m.Batches,
		IOErrors:          m.IOErrors,
		ParseErrors:       m.ParseErrors,
		PersistenceErrors: m.PersistenceErrors,
	}
}

// String returns a formatted string representation of metrics
func (m *ImportMetrics) String() string {
	s := m.Snapshot()

	successRate := float64(0)
	if s.TotalImports > 0 {
		successRate = float64(s.SuccessfulImports) / float64(s.TotalImports) * 100
	}

	return fmt.Sprintf(
		"ImportMetrics{Total=%d, Successful=%d (%.1f%%), Created=%d, Overwritten=%d, Classes=%d, Results=%d, Batches=%d, IOErrors=%d, ParseErrors=%d, PersistenceErrors=%d, LastDuration=%v}",
		s.TotalImports,
		s.SuccessfulImports,
		successRate,
		s.CreatedEvents,
		s.OverwrittenEvents,
		s.ClassResults,
		s.Results,
		s.Batches,
		s.IOErrors,
		s.ParseErrors,
		s.PersistenceErrors,
		s.LastDuration,
	)
}
