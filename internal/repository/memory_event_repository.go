package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/ol-results/internal/models"
)

// MemoryEventRepository is an in-process EventRepository. Writers hold the
// lock for the whole read-modify-write so readers see an event either before
// or after a save, never in between.
type MemoryEventRepository struct {
	mu       sync.RWMutex
	events   map[models.EventID]*models.Event
	byName   map[models.EventName]models.EventID
	seq      *Sequence
	recorder SaveRecorder
	now      func() time.Time
}

// MemoryOption configures a MemoryEventRepository
type MemoryOption func(*MemoryEventRepository)

// WithRecorder registers an observer for every saved event
func WithRecorder(r SaveRecorder) MemoryOption {
	return func(m *MemoryEventRepository) {
		m.recorder = r
	}
}

// WithSequence replaces the default sequence starting at 1
func WithSequence(seq *Sequence) MemoryOption {
	return func(m *MemoryEventRepository) {
		if seq != nil {
			m.seq = seq
		}
	}
}

// NewMemoryEventRepository creates an empty repository
func NewMemoryEventRepository(opts ...MemoryOption) *MemoryEventRepository {
	m := &MemoryEventRepository{
		events: make(map[models.EventID]*models.Event),
		byName: make(map[models.EventName]models.EventID),
		seq:    NewSequence(0),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save implements EventRepository
func (m *MemoryEventRepository) Save(ctx context.Context, event *models.Event) (*models.Event, error) {
	if event == nil {
		return nil, fmt.Errorf("event is nil")
	}
	if event.Name.IsZero() {
		return nil, models.ErrEmptyEventName
	}

	m.mu.Lock()
	stored, err := m.saveLocked(event)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.record(stored)
	return stored.Clone(), nil
}

func (m *MemoryEventRepository) saveLocked(event *models.Event) (*models.Event, error) {
	now := m.now()

	if !event.HasIdentity() {
		if _, exists := m.byName[event.Name]; exists {
			return nil, fmt.Errorf("event %q: %w", event.Name, models.ErrDuplicateKey)
		}
		stored := event.WithID(m.seq.Next())
		stored.CreatedAt = now
		stored.UpdatedAt = now
		m.events[stored.ID] = stored
		m.byName[stored.Name] = stored.ID
		return stored, nil
	}

	existing, ok := m.events[event.ID]
	if !ok {
		return nil, fmt.Errorf("event %d: %w", event.ID, models.ErrNotFound)
	}
	if existing.Name != event.Name {
		return nil, fmt.Errorf("event %d: %w", event.ID, models.ErrNameImmutable)
	}

	stored := event.Clone()
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = now
	m.events[stored.ID] = stored
	return stored, nil
}

// FindAll implements EventRepository
func (m *MemoryEventRepository) FindAll(ctx context.Context) ([]*models.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]*models.Event, 0, len(m.events))
	for _, e := range m.events {
		events = append(events, e.Clone())
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

// FindByID implements EventRepository
func (m *MemoryEventRepository) FindByID(ctx context.Context, id models.EventID) (*models.Event, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.events[id]
	if !ok {
		return nil, false, nil
	}
	return e.Clone(), true, nil
}

// FindOrCreate implements EventRepository. Lookup and insert happen under
// one write lock so concurrent imports of the same name create one event.
func (m *MemoryEventRepository) FindOrCreate(ctx context.Context, event *models.Event) (*models.Event, bool, error) {
	if event == nil {
		return nil, false, fmt.Errorf("event is nil")
	}
	if event.Name.IsZero() {
		return nil, false, models.ErrEmptyEventName
	}

	m.mu.Lock()
	if id, ok := m.byName[event.Name]; ok {
		existing := m.events[id].Clone()
		m.mu.Unlock()
		return existing, false, nil
	}

	fresh := event.Clone()
	fresh.ID = 0
	stored, err := m.saveLocked(fresh)
	m.mu.Unlock()
	if err != nil {
		return nil, false, err
	}

	m.record(stored)
	return stored.Clone(), true, nil
}

// ReplaceClassResults implements EventRepository
func (m *MemoryEventRepository) ReplaceClassResults(ctx context.Context, event *models.Event) error {
	if event == nil || !event.HasIdentity() {
		return models.ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.events[event.ID]
	if !ok {
		return fmt.Errorf("event %d: %w", event.ID, models.ErrNotFound)
	}
	if existing.Name != event.Name {
		return fmt.Errorf("event %d: %w", event.ID, models.ErrNameImmutable)
	}

	header := event.WithClassResults(nil)
	header.CreatedAt = existing.CreatedAt
	header.UpdatedAt = m.now()
	m.events[event.ID] = header
	return nil
}

// AppendClassResults implements EventRepository. The stored event is
// replaced by a new value rather than mutated in place.
func (m *MemoryEventRepository) AppendClassResults(ctx context.Context, id models.EventID, classResults []models.ClassResult) error {
	m.mu.Lock()
	existing, ok := m.events[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("event %d: %w", id, models.ErrNotFound)
	}

	merged := make([]models.ClassResult, 0, len(existing.ClassResults)+len(classResults))
	merged = append(merged, existing.ClassResults...)
	merged = append(merged, classResults...)

	updated := existing.WithClassResults(merged)
	updated.UpdatedAt = m.now()
	m.events[id] = updated
	m.mu.Unlock()

	m.record(updated)
	return nil
}

// Count returns the number of stored events
func (m *MemoryEventRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

func (m *MemoryEventRepository) record(e *models.Event) {
	if m.recorder != nil {
		m.recorder.RecordSave(e)
	}
}
