package repository

import (
	"sync"

	"github.com/yourusername/ol-results/internal/models"
)

// SaveRecorder observes every event a repository persists. It is optional and
// is not part of the EventRepository contract.
type SaveRecorder interface {
	RecordSave(event *models.Event)
}

// ListRecorder keeps saved events in memory, for tests and verification.
type ListRecorder struct {
	mu     sync.Mutex
	events []*models.Event
}

// NewListRecorder creates an empty recorder
func NewListRecorder() *ListRecorder {
	return &ListRecorder{}
}

// RecordSave implements SaveRecorder
func (r *ListRecorder) RecordSave(event *models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.Clone())
}

// Saved returns copies of the recorded events in save order
func (r *ListRecorder) Saved() []*models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.Event, len(r.events))
	for i, e := range r.events {
		out[i] = e.Clone()
	}
	return out
}
