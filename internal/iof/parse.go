// Package iof reads and writes IOF XML 3.0 result lists.
package iof

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html/charset"

	"github.com/yourusername/ol-results/internal/models"
)

const (
	rootElement        = "ResultList"
	eventElement       = "Event"
	classResultElement = "ClassResult"
	dateLayout         = "2006-01-02"
)

// local date-times without an offset are read in UTC
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Parse decodes an IOF XML 3.0 ResultList into an Event without identity.
// Top-level elements are decoded one at a time so that errors carry the
// line of the element they occurred in.
func Parse(r io.Reader) (*models.Event, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	p := &parser{dec: dec}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.event, nil
}

type parser struct {
	dec     *xml.Decoder
	event   *models.Event
	classes []models.ClassResult
	nClass  int
}

func (p *parser) line() int {
	line, _ := p.dec.InputPos()
	return line
}

func (p *parser) run() error {
	sawRoot := false

	for {
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			if !sawRoot {
				return &ParseError{Err: ErrEmptyDocument}
			}
			return p.syntaxError(io.ErrUnexpectedEOF, rootElement)
		}
		if err != nil {
			return p.syntaxError(err, rootElement)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !sawRoot {
				if t.Name.Local != rootElement {
					return &ParseError{Line: p.line(), Element: t.Name.Local, Err: ErrUnexpectedRoot}
				}
				sawRoot = true
				continue
			}
			if err := p.child(t); err != nil {
				return err
			}
		case xml.EndElement:
			// children are consumed whole, so this closes the root
			return p.finish()
		}
	}
}

func (p *parser) child(start xml.StartElement) error {
	line := p.line()

	switch start.Name.Local {
	case eventElement:
		var xe xmlEvent
		if err := p.dec.DecodeElement(&xe, &start); err != nil {
			return p.syntaxError(err, eventElement)
		}
		event, err := convertEvent(xe)
		if err != nil {
			return wrapAt(line, eventElement, err)
		}
		p.event = event

	case classResultElement:
		p.nClass++
		element := fmt.Sprintf("%s[%d]", classResultElement, p.nClass)

		var xc xmlClassResult
		if err := p.dec.DecodeElement(&xc, &start); err != nil {
			return p.syntaxError(err, element)
		}
		classes, err := convertClassResult(xc)
		if err != nil {
			return wrapAt(line, element, err)
		}
		p.classes = append(p.classes, classes...)

	default:
		if err := p.dec.Skip(); err != nil {
			return p.syntaxError(err, start.Name.Local)
		}
	}
	return nil
}

func (p *parser) finish() error {
	if p.event == nil {
		return &ParseError{Element: eventElement, Err: ErrMissingEvent}
	}
	p.event.ClassResults = p.classes
	return nil
}

func (p *parser) syntaxError(err error, element string) error {
	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		return &ParseError{Line: syn.Line, Element: element, Err: err}
	}
	return &ParseError{Line: p.line(), Element: element, Err: err}
}

func wrapAt(line int, element string, err error) error {
	var fe *fieldError
	if errors.As(err, &fe) {
		return &ParseError{Line: line, Element: element + "/" + fe.path, Err: fe.err}
	}
	return &ParseError{Line: line, Element: element, Err: err}
}

func convertEvent(xe xmlEvent) (*models.Event, error) {
	name, err := models.NewEventName(xe.Name)
	if err != nil {
		return nil, fieldErr("Name", err)
	}
	event := models.NewEvent(name)

	if xe.StartTime != nil {
		start, err := parseDateAndOptionalTime(*xe.StartTime)
		if err != nil {
			return nil, fieldErr("StartTime", err)
		}
		event.StartDate = start
	}

	for _, org := range xe.Organisers {
		if n := collapse(org.Name); n != "" {
			event.Organiser = n
			break
		}
	}

	for i, xr := range xe.Races {
		number, err := parsePositiveInt(xr.RaceNumber)
		if err != nil {
			return nil, fieldErr(fmt.Sprintf("Race[%d]/RaceNumber", i+1), err)
		}
		event.Races = append(event.Races, models.NewRace(number, collapse(xr.Name), 0))
	}

	return event, nil
}

// convertClassResult splits a class into one ClassResult per race number,
// in order of first appearance.
func convertClassResult(xc xmlClassResult) ([]models.ClassResult, error) {
	var (
		out   []models.ClassResult
		index = make(map[int]int)
	)

	for i, xpr := range xc.PersonResults {
		path := fmt.Sprintf("PersonResult[%d]", i+1)

		person, err := convertPerson(xpr.Person)
		if err != nil {
			return nil, fieldErr(path+"/Person/"+pathOf(err), unwrapField(err))
		}
		organisation := ""
		if xpr.Organisation != nil {
			organisation = collapse(xpr.Organisation.Name)
		}

		for j, xr := range xpr.Results {
			resultPath := fmt.Sprintf("%s/Result[%d]", path, j+1)

			raceNumber := 0
			if strings.TrimSpace(xr.RaceNumber) != "" {
				raceNumber, err = parsePositiveInt(xr.RaceNumber)
				if err != nil {
					return nil, fieldErr(resultPath+"/@raceNumber", err)
				}
			}

			result, err := convertResult(xr)
			if err != nil {
				return nil, fieldErr(resultPath+"/"+pathOf(err), unwrapField(err))
			}
			result.Person = person
			result.Organisation = organisation

			k, ok := index[raceNumber]
			if !ok {
				k = len(out)
				index[raceNumber] = k
				out = append(out, models.ClassResult{
					ClassName:  collapse(xc.Class.Name),
					ShortName:  collapse(xc.Class.ShortName),
					RaceNumber: raceNumber,
					Results:    []models.Result{},
				})
			}
			out[k].Results = append(out[k].Results, result)
		}
	}

	if len(out) == 0 {
		out = append(out, models.ClassResult{
			ClassName: collapse(xc.Class.Name),
			ShortName: collapse(xc.Class.ShortName),
			Results:   []models.Result{},
		})
	}
	return out, nil
}

func convertPerson(xp xmlPerson) (models.Person, error) {
	person := models.Person{
		GivenName:  collapse(xp.Name.Given),
		FamilyName: collapse(xp.Name.Family),
		Gender:     models.ParseGender(xp.Sex),
	}
	for _, id := range xp.IDs {
		if id = strings.TrimSpace(id); id != "" {
			person.ID = id
			break
		}
	}
	if s := strings.TrimSpace(xp.BirthDate); s != "" {
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return models.Person{}, fieldErr("BirthDate", fmt.Errorf("%w %q", ErrInvalidDate, s))
		}
		person.BirthDate = &d
	}
	return person, nil
}

func convertResult(xr xmlResult) (models.Result, error) {
	var (
		result models.Result
		err    error
	)

	result.BibNumber = strings.TrimSpace(xr.BibNumber)

	if result.StartTime, err = parseOptionalDateTime(xr.StartTime); err != nil {
		return result, fieldErr("StartTime", err)
	}
	if result.FinishTime, err = parseOptionalDateTime(xr.FinishTime); err != nil {
		return result, fieldErr("FinishTime", err)
	}
	if result.Time, err = parseSeconds(xr.Time); err != nil {
		return result, fieldErr("Time", err)
	}
	if result.TimeBehind, err = parseSeconds(xr.TimeBehind); err != nil {
		return result, fieldErr("TimeBehind", err)
	}

	if s := strings.TrimSpace(xr.Position); s != "" {
		pos, err := parsePositiveInt(s)
		if err != nil {
			return result, fieldErr("Position", ErrInvalidPosition)
		}
		result.Position = models.NewPosition(pos)
	}

	result.Status = models.StatusOK
	if s := strings.TrimSpace(xr.Status); s != "" {
		status := models.ResultStatus(s)
		if !status.Known() {
			return result, fieldErr("Status", fmt.Errorf("%w %q", ErrUnknownStatus, s))
		}
		result.Status = status
	}

	for i, xs := range xr.SplitTimes {
		t, err := parseSeconds(xs.Time)
		if err != nil {
			return result, fieldErr(fmt.Sprintf("SplitTime[%d]/Time", i+1), err)
		}
		result.SplitTimes = append(result.SplitTimes, models.SplitTime{
			ControlCode: strings.TrimSpace(xs.ControlCode),
			Time:        t,
		})
	}

	return result, nil
}

func parseSeconds(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrInvalidTime, s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrNegativeTime, s)
	}
	return &d, nil
}

func parsePositiveInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrInvalidNumber, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidNumber, n)
	}
	return n, nil
}

func parseOptionalDateTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrInvalidDate, s)
}

func parseDateAndOptionalTime(dt xmlDateTime) (*time.Time, error) {
	date := strings.TrimSpace(dt.Date)
	clock := strings.TrimSpace(dt.Time)
	if date == "" {
		return nil, fmt.Errorf("%w: missing Date", ErrInvalidDate)
	}
	if clock == "" {
		d, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrInvalidDate, date)
		}
		return &d, nil
	}
	return parseOptionalDateTime(date + "T" + clock)
}

// collapse trims s and folds internal whitespace runs into single spaces
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func pathOf(err error) string {
	var fe *fieldError
	if errors.As(err, &fe) {
		return fe.path
	}
	return ""
}

func unwrapField(err error) error {
	var fe *fieldError
	if errors.As(err, &fe) {
		return fe.err
	}
	return err
}
