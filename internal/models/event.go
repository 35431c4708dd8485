package models

import (
	"strconv"
	"strings"
	"time"
)

// EventID is the surrogate identity assigned by the repository sequence.
// The zero value means the event has not been persisted yet.
type EventID int64

// Valid reports whether the id could have been assigned by a sequence
func (id EventID) Valid() bool {
	return id > 0
}

func (id EventID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// EventName is the natural key of an event. It is used for dedup before an
// EventID exists and never changes once the event is created.
type EventName struct {
	value string
}

// NewEventName trims the name and rejects empty values
func NewEventName(name string) (EventName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return EventName{}, ErrEmptyEventName
	}
	return EventName{value: name}, nil
}

// MustEventName is NewEventName for literals in tests and fixtures.
func MustEventName(name string) EventName {
	n, err := NewEventName(name)
	if err != nil {
		panic(err)
	}
	return n
}

func (n EventName) String() string {
	return n.value
}

// MarshalText implements encoding.TextMarshaler
func (n EventName) MarshalText() ([]byte, error) {
	return []byte(n.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (n *EventName) UnmarshalText(b []byte) error {
	parsed, err := NewEventName(string(b))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// IsZero reports whether the name was never set
func (n EventName) IsZero() bool {
	return n.value == ""
}

// Event is a timed competition with its class results
type Event struct {
	ID           EventID       `db:"id" json:"id"`
	Name         EventName     `db:"name" json:"name"`
	StartDate    *time.Time    `db:"start_date" json:"start_date,omitempty"`
	Organiser    string        `db:"organiser" json:"organiser,omitempty"`
	ClassResults []ClassResult `db:"-" json:"class_results,omitempty"`
	Races        []Race        `db:"-" json:"races,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// NewEvent creates an event without identity
func NewEvent(name EventName) *Event {
	return &Event{Name: name}
}

// HasIdentity reports whether the event has been persisted
func (e *Event) HasIdentity() bool {
	return e.ID.Valid()
}

// SameIdentity compares by id once both sides have one, by name otherwise.
func (e *Event) SameIdentity(other *Event) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.HasIdentity() && other.HasIdentity() {
		return e.ID == other.ID
	}
	return e.Name == other.Name
}

// WithID returns a copy carrying the given identity
func (e *Event) WithID(id EventID) *Event {
	c := e.Clone()
	c.ID = id
	for i := range c.Races {
		c.Races[i].EventID = id
	}
	return c
}

// WithClassResults returns a copy whose class results are replaced by crs.
func (e *Event) WithClassResults(crs []ClassResult) *Event {
	c := e.Clone()
	c.ClassResults = cloneClassResults(crs)
	return c
}

// ResultCount returns the number of results across all classes
func (e *Event) ResultCount() int {
	n := 0
	for _, cr := range e.ClassResults {
		n += len(cr.Results)
	}
	return n
}

// ClassResult returns the class with the given name.
func (e *Event) ClassResult(className string) (ClassResult, bool) {
	for _, cr := range e.ClassResults {
		if cr.ClassName == className {
			return cr, true
		}
	}
	return ClassResult{}, false
}

// Clone deep-copies the aggregate so stores never alias caller memory.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	if e.StartDate != nil {
		d := *e.StartDate
		c.StartDate = &d
	}
	c.ClassResults = cloneClassResults(e.ClassResults)
	if e.Races != nil {
		c.Races = make([]Race, len(e.Races))
		for i, r := range e.Races {
			c.Races[i] = r.clone()
		}
	}
	return &c
}

func cloneClassResults(crs []ClassResult) []ClassResult {
	if crs == nil {
		return nil
	}
	out := make([]ClassResult, len(crs))
	for i, cr := range crs {
		out[i] = cr.Clone()
	}
	return out
}
