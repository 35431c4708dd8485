package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/ol-results/internal/models"
)

// UnnamedClass replaces empty class names. Further unnamed classes of the
// same race are numbered "Unnamed 2", "Unnamed 3" and so on.
const UnnamedClass = "Unnamed"

// DataNormalizer brings parsed events into canonical form before validation
type DataNormalizer struct {
	logger *logrus.Entry
}

// NewDataNormalizer creates a new data normalizer
func NewDataNormalizer(log *logrus.Logger) *DataNormalizer {
	return &DataNormalizer{logger: log.WithField("component", "normalizer")}
}

// NormalizeEvent rewrites the event in place: names are trimmed and their
// whitespace collapsed, genders and statuses made canonical and timestamps
// converted to UTC.
func (n *DataNormalizer) NormalizeEvent(event *models.Event) {
	if event == nil {
		return
	}

	event.Organiser = sanitizeName(event.Organiser)
	if event.StartDate != nil {
		utc := event.StartDate.UTC()
		event.StartDate = &utc
	}

	taken := make(map[classKey]bool, len(event.ClassResults))
	for i := range event.ClassResults {
		cr := &event.ClassResults[i]
		cr.ClassName = sanitizeName(cr.ClassName)
		cr.ShortName = sanitizeName(cr.ShortName)
		if cr.ClassName != "" {
			taken[classKey{cr.ClassName, cr.RaceNumber}] = true
		}
		for j := range cr.Results {
			n.normalizeResult(&cr.Results[j])
		}
	}

	unnamed := 0
	for i := range event.ClassResults {
		cr := &event.ClassResults[i]
		if cr.ClassName != "" {
			continue
		}
		cr.ClassName = unnamedClassName(taken, cr.RaceNumber)
		taken[classKey{cr.ClassName, cr.RaceNumber}] = true
		unnamed++
	}

	if unnamed > 0 {
		n.logger.WithFields(logrus.Fields{
			"event_name": event.Name.String(),
			"classes":    unnamed,
		}).Warn("Classes without a name were renamed")
	}
}

func (n *DataNormalizer) normalizeResult(r *models.Result) {
	r.Person.GivenName = sanitizeName(r.Person.GivenName)
	r.Person.FamilyName = sanitizeName(r.Person.FamilyName)
	r.Person.ID = strings.TrimSpace(r.Person.ID)
	r.Person.Gender = models.ParseGender(string(r.Person.Gender))
	r.Organisation = sanitizeName(r.Organisation)
	r.BibNumber = strings.TrimSpace(r.BibNumber)

	if r.Status == "" {
		r.Status = models.StatusOK
	}
	if r.StartTime != nil {
		utc := r.StartTime.UTC()
		r.StartTime = &utc
	}
	if r.FinishTime != nil {
		utc := r.FinishTime.UTC()
		r.FinishTime = &utc
	}
	for k := range r.SplitTimes {
		r.SplitTimes[k].ControlCode = strings.TrimSpace(r.SplitTimes[k].ControlCode)
	}
}

// sanitizeName trims a name and collapses internal whitespace
func sanitizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// classKey identifies a class within an event
type classKey struct {
	name string
	race int
}

func unnamedClassName(taken map[classKey]bool, race int) string {
	name := UnnamedClass
	for n := 2; taken[classKey{name, race}]; n++ {
		name = fmt.Sprintf("%s %d", UnnamedClass, n)
	}
	return name
}
