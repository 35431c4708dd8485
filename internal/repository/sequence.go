package repository

import (
	"sync/atomic"

	"github.com/yourusername/ol-results/internal/models"
)

// Sequence hands out strictly increasing event ids. Each repository owns its
// own sequence so separate instances never share counters.
type Sequence struct {
	last atomic.Int64
}

// NewSequence starts a sequence whose first value is start+1
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.last.Store(start)
	return s
}

// Next returns the next id
func (s *Sequence) Next() models.EventID {
	return models.EventID(s.last.Add(1))
}
