package repository

import (
	"context"

	"github.com/yourusername/ol-results/internal/models"
)

// EventRepository stores events keyed by EventID. Implementations must assign
// ids atomically and never expose a partially written event.
type EventRepository interface {
	// Save stores a new event under the next sequence id, or replaces the
	// stored event with the same id. The returned event is a copy.
	Save(ctx context.Context, event *models.Event) (*models.Event, error)

	// FindAll returns a snapshot of every stored event ordered by id
	FindAll(ctx context.Context) ([]*models.Event, error)

	// FindByID returns found=false, not an error, when the id is unknown
	FindByID(ctx context.Context, id models.EventID) (*models.Event, bool, error)

	// FindOrCreate returns the stored event with the same name unchanged, or
	// saves the argument when none exists. created reports which happened.
	FindOrCreate(ctx context.Context, event *models.Event) (stored *models.Event, created bool, err error)

	// ReplaceClassResults drops the class results of a stored event and
	// updates its header fields from event.
	ReplaceClassResults(ctx context.Context, event *models.Event) error

	// AppendClassResults adds one batch of class results to a stored event
	AppendClassResults(ctx context.Context, id models.EventID, classResults []models.ClassResult) error
}
