package models

// Race is one race of a (possibly multi-race) event
type Race struct {
	Number  int     `db:"race_number" json:"race_number"`
	Name    *string `db:"race_name" json:"race_name,omitempty"`
	EventID EventID `db:"event_id" json:"event_id"`
}

// NewRace creates a race with an optional name
func NewRace(number int, name string, eventID EventID) Race {
	r := Race{Number: number, EventID: eventID}
	if name != "" {
		r.Name = &name
	}
	return r
}

func (r Race) clone() Race {
	c := r
	if r.Name != nil {
		n := *r.Name
		c.Name = &n
	}
	return c
}
