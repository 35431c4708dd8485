package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResultStatus is the IOF competitor status of a result
type ResultStatus string

// IOF 3.0 result statuses
const (
	StatusOK                 ResultStatus = "OK"
	StatusFinished           ResultStatus = "Finished"
	StatusMissingPunch       ResultStatus = "MissingPunch"
	StatusDisqualified       ResultStatus = "Disqualified"
	StatusDidNotFinish       ResultStatus = "DidNotFinish"
	StatusActive             ResultStatus = "Active"
	StatusInactive           ResultStatus = "Inactive"
	StatusOverTime           ResultStatus = "OverTime"
	StatusSportingWithdrawal ResultStatus = "SportingWithdrawal"
	StatusNotCompeting       ResultStatus = "NotCompeting"
	StatusMoved              ResultStatus = "Moved"
	StatusMovedUp            ResultStatus = "MovedUp"
	StatusDidNotStart        ResultStatus = "DidNotStart"
	StatusDidNotEnter        ResultStatus = "DidNotEnter"
	StatusCancelled          ResultStatus = "Cancelled"
)

var knownStatuses = map[ResultStatus]bool{
	StatusOK: true, StatusFinished: true, StatusMissingPunch: true, StatusDisqualified: true,
	StatusDidNotFinish: true, StatusActive: true, StatusInactive: true, StatusOverTime: true,
	StatusSportingWithdrawal: true, StatusNotCompeting: true, StatusMoved: true, StatusMovedUp: true,
	StatusDidNotStart: true, StatusDidNotEnter: true, StatusCancelled: true,
}

// Known reports whether s is one of the IOF statuses
func (s ResultStatus) Known() bool {
	return knownStatuses[s]
}

// Ranked reports whether a competitor with this status takes a place
func (s ResultStatus) Ranked() bool {
	return s == StatusOK
}

// Position is a competitor's place within a class. A nil Value ranks after
// every present value.
type Position struct {
	Value *int `json:"value,omitempty"`
}

// NewPosition returns a position holding v
func NewPosition(v int) Position {
	return Position{Value: &v}
}

// IsSet reports whether the position carries a value
func (p Position) IsSet() bool {
	return p.Value != nil
}

// SplitTime is the elapsed time at a control
type SplitTime struct {
	ControlCode string           `json:"control_code"`
	Time        *decimal.Decimal `json:"time,omitempty"`
}

// Result is a competitor's outcome in a class
type Result struct {
	Person       Person           `json:"person"`
	Organisation string           `json:"organisation,omitempty"`
	BibNumber    string           `json:"bib_number,omitempty"`
	StartTime    *time.Time       `json:"start_time,omitempty"`
	FinishTime   *time.Time       `json:"finish_time,omitempty"`
	Time         *decimal.Decimal `json:"time,omitempty"`        // seconds
	TimeBehind   *decimal.Decimal `json:"time_behind,omitempty"` // seconds
	Position     Position         `json:"position"`
	Status       ResultStatus     `json:"status"`
	SplitTimes   []SplitTime      `json:"split_times,omitempty"`
}

// Clone deep-copies the result
func (r Result) Clone() Result {
	c := r
	c.Person = r.Person.clone()
	c.StartTime = cloneTime(r.StartTime)
	c.FinishTime = cloneTime(r.FinishTime)
	c.Time = cloneDecimal(r.Time)
	c.TimeBehind = cloneDecimal(r.TimeBehind)
	if r.Position.Value != nil {
		v := *r.Position.Value
		c.Position.Value = &v
	}
	if r.SplitTimes != nil {
		c.SplitTimes = make([]SplitTime, len(r.SplitTimes))
		for i, st := range r.SplitTimes {
			c.SplitTimes[i] = SplitTime{ControlCode: st.ControlCode, Time: cloneDecimal(st.Time)}
		}
	}
	return c
}

// ClassResult groups the results of one race class. It belongs to exactly
// one Event and is copied with it.
type ClassResult struct {
	ClassName  string   `db:"class_name" json:"class_name"`
	ShortName  string   `db:"short_name" json:"short_name,omitempty"`
	RaceNumber int      `db:"race_number" json:"race_number,omitempty"`
	Results    []Result `db:"-" json:"results"`
}

// Clone deep-copies the class result
func (cr ClassResult) Clone() ClassResult {
	c := cr
	if cr.Results != nil {
		c.Results = make([]Result, len(cr.Results))
		for i, r := range cr.Results {
			c.Results[i] = r.Clone()
		}
	}
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
