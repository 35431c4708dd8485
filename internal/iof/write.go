package iof

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/ol-results/internal/models"
)

const creator = "ol-results"

// Write encodes the event as an IOF XML 3.0 ResultList. Output of Write is
// accepted by Parse and yields an equal event, identity aside.
func Write(w io.Writer, event *models.Event) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}

	doc := xmlResultList{
		Xmlns:      Namespace,
		IOFVersion: iofVersion,
		CreateTime: time.Now().UTC().Format(time.RFC3339),
		Creator:    creator,
		Status:     "Complete",
		Event:      buildEvent(event),
	}
	for _, cr := range event.ClassResults {
		doc.ClassResults = append(doc.ClassResults, buildClassResult(cr))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write xml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode result list: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("failed to write result list: %w", err)
	}
	return nil
}

func buildEvent(event *models.Event) xmlEvent {
	xe := xmlEvent{Name: event.Name.String()}
	if event.StartDate != nil {
		xe.StartTime = &xmlDateTime{Date: event.StartDate.Format(dateLayout)}
		if clock := event.StartDate.Format("15:04:05Z07:00"); clock != "00:00:00Z" {
			xe.StartTime.Time = clock
		}
	}
	if event.Organiser != "" {
		xe.Organisers = []xmlOrganisation{{Name: event.Organiser}}
	}
	for _, race := range event.Races {
		xr := xmlRace{RaceNumber: strconv.Itoa(race.Number)}
		if race.Name != nil {
			xr.Name = *race.Name
		}
		xe.Races = append(xe.Races, xr)
	}
	return xe
}

func buildClassResult(cr models.ClassResult) xmlClassResult {
	xc := xmlClassResult{
		Class: xmlClass{Name: cr.ClassName, ShortName: cr.ShortName},
	}
	for _, r := range cr.Results {
		xpr := xmlPersonResult{
			Person:  buildPerson(r.Person),
			Results: []xmlResult{buildResult(r, cr.RaceNumber)},
		}
		if r.Organisation != "" {
			xpr.Organisation = &xmlOrganisation{Name: r.Organisation}
		}
		xc.PersonResults = append(xc.PersonResults, xpr)
	}
	return xc
}

func buildPerson(p models.Person) xmlPerson {
	xp := xmlPerson{
		Sex:  string(p.Gender),
		Name: xmlPersonName{Family: p.FamilyName, Given: p.GivenName},
	}
	if p.ID != "" {
		xp.IDs = []string{p.ID}
	}
	if p.BirthDate != nil {
		xp.BirthDate = p.BirthDate.Format(dateLayout)
	}
	return xp
}

func buildResult(r models.Result, raceNumber int) xmlResult {
	xr := xmlResult{
		BibNumber:  r.BibNumber,
		StartTime:  formatDateTime(r.StartTime),
		FinishTime: formatDateTime(r.FinishTime),
		Time:       formatSeconds(r.Time),
		TimeBehind: formatSeconds(r.TimeBehind),
		Status:     string(r.Status),
	}
	if raceNumber > 0 {
		xr.RaceNumber = strconv.Itoa(raceNumber)
	}
	if r.Position.IsSet() {
		xr.Position = strconv.Itoa(*r.Position.Value)
	}
	for _, st := range r.SplitTimes {
		xs := xmlSplitTime{ControlCode: st.ControlCode, Time: formatSeconds(st.Time)}
		if st.Time == nil {
			xs.Status = "Missing"
		}
		xr.SplitTimes = append(xr.SplitTimes, xs)
	}
	return xr
}

func formatSeconds(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func formatDateTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}
