package repository

import (
	"fmt"
	"time"

	"github.com/yourusername/ol-results/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Event EventRepository
}

// NewRepositories creates the Postgres-backed repositories. A positive
// cacheTTL adds the read-through cache in front of the event repository.
func NewRepositories(db *database.DB, cacheTTL time.Duration, recorder SaveRecorder) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	var events EventRepository = NewPostgresEventRepository(db, recorder)
	if cacheTTL > 0 {
		events = NewCachedEventRepository(events, cacheTTL)
	}

	return &Repositories{Event: events}, nil
}

// NewMemoryRepositories creates in-process repositories
func NewMemoryRepositories(opts ...MemoryOption) *Repositories {
	return &Repositories{Event: NewMemoryEventRepository(opts...)}
}
