package iof

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ol-results/internal/models"
)

const (
	resultListPath = "testdata/result_list.xml"
	minimalPath    = "testdata/minimal.xml"
	latin1Path     = "testdata/latin1.xml"
)

func parseFile(t *testing.T, path string) *models.Event {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	event, err := Parse(f)
	require.NoError(t, err)
	return event
}

// resultListXML builds a document with the given number of classes, each
// holding perClass ranked competitors.
func resultListXML(eventName string, classes, perClass int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<ResultList xmlns="http://www.orienteering.org/datastandard/3.0" iofVersion="3.0">` + "\n")
	fmt.Fprintf(&b, "<Event><Name>%s</Name></Event>\n", eventName)
	for c := 1; c <= classes; c++ {
		fmt.Fprintf(&b, "<ClassResult><Class><Name>Class %02d</Name></Class>\n", c)
		for p := 1; p <= perClass; p++ {
			fmt.Fprintf(&b, `<PersonResult><Person><Id>%d-%d</Id><Name><Family>Runner%d</Family><Given>C%d</Given></Name></Person>`, c, p, p, c)
			fmt.Fprintf(&b, "<Result><Time>%d</Time><Position>%d</Position><Status>OK</Status></Result></PersonResult>\n", 1800+p*10, p)
		}
		b.WriteString("</ClassResult>\n")
	}
	b.WriteString("</ResultList>\n")
	return b.String()
}

func TestParseResultList(t *testing.T) {
	event := parseFile(t, resultListPath)

	assert.Equal(t, "Winter-OL 2023", event.Name.String())
	assert.False(t, event.HasIdentity())
	assert.Equal(t, "OLG Bern", event.Organiser)
	require.NotNil(t, event.StartDate)
	assert.True(t, event.StartDate.Equal(time.Date(2023, 2, 5, 9, 0, 0, 0, time.UTC)))

	require.Len(t, event.ClassResults, 2)
	h21 := event.ClassResults[0]
	assert.Equal(t, "H21", h21.ClassName)
	assert.Equal(t, "H21E", h21.ShortName)
	require.Len(t, h21.Results, 3)

	winner := h21.Results[0]
	assert.Equal(t, "1234", winner.Person.ID)
	assert.Equal(t, "Muster Hans", winner.Person.Name())
	assert.Equal(t, models.GenderMale, winner.Person.Gender)
	require.NotNil(t, winner.Person.BirthDate)
	assert.Equal(t, "1990-04-12", winner.Person.BirthDate.Format("2006-01-02"))
	assert.Equal(t, "OLG Bern", winner.Organisation)
	assert.Equal(t, "101", winner.BibNumber)
	require.NotNil(t, winner.Time)
	assert.True(t, winner.Time.Equal(decimal.NewFromInt(2074)))
	assert.Equal(t, 1, *winner.Position.Value)
	assert.Equal(t, models.StatusOK, winner.Status)
	require.NotNil(t, winner.FinishTime)
	assert.Equal(t, 34*time.Minute+34*time.Second, winner.FinishTime.Sub(*winner.StartTime))

	require.Len(t, winner.SplitTimes, 2)
	assert.Equal(t, "31", winner.SplitTimes[0].ControlCode)
	assert.True(t, winner.SplitTimes[0].Time.Equal(decimal.RequireFromString("301.5")))
	assert.Nil(t, winner.SplitTimes[1].Time)

	second := h21.Results[1]
	assert.True(t, second.TimeBehind.Equal(decimal.RequireFromString("36.4")))

	mp := h21.Results[2]
	assert.False(t, mp.Position.IsSet())
	assert.Nil(t, mp.Time)
	assert.Equal(t, models.StatusMissingPunch, mp.Status)
	assert.Equal(t, "Irrläufer Max", mp.Person.Name())

	d21 := event.ClassResults[1]
	assert.Equal(t, "D21", d21.ClassName)
	assert.Equal(t, models.GenderFemale, d21.Results[0].Person.Gender)
}

func TestParseMissingOptionalFields(t *testing.T) {
	event := parseFile(t, minimalPath)

	assert.Equal(t, "Domain", event.Name.String())
	assert.Nil(t, event.StartDate)
	assert.Empty(t, event.Organiser)

	require.Len(t, event.ClassResults, 1)
	require.Len(t, event.ClassResults[0].Results, 1)

	r := event.ClassResults[0].Results[0]
	assert.Equal(t, "Kim", r.Person.Name())
	assert.Empty(t, r.Person.ID)
	assert.Nil(t, r.Person.BirthDate)
	assert.Equal(t, models.GenderUnknown, r.Person.Gender)
	assert.Nil(t, r.Time)
	assert.Nil(t, r.TimeBehind)
	assert.False(t, r.Position.IsSet())
	assert.Equal(t, models.StatusOK, r.Status)
}

func TestParseLatin1(t *testing.T) {
	event := parseFile(t, latin1Path)
	assert.Equal(t, "Zürich Stadt-OL", event.Name.String())
	assert.Empty(t, event.ClassResults)
}

func TestParseManyClasses(t *testing.T) {
	event, err := Parse(strings.NewReader(resultListXML("Winter-OL 2023", 35, 4)))
	require.NoError(t, err)

	assert.Equal(t, "Winter-OL 2023", event.Name.String())
	require.Len(t, event.ClassResults, 35)
	assert.Equal(t, "Class 01", event.ClassResults[0].ClassName)
	assert.Equal(t, "Class 35", event.ClassResults[34].ClassName)
	assert.Equal(t, 140, event.ResultCount())
}

func TestParseMultiRaceSplitsClasses(t *testing.T) {
	doc := `<ResultList>
<Event><Name>Two Days</Name><Race><RaceNumber>1</RaceNumber><Name>Day 1</Name></Race><Race><RaceNumber>2</RaceNumber></Race></Event>
<ClassResult><Class><Name>H21</Name></Class>
<PersonResult><Person><Name><Family>A</Family><Given>B</Given></Name></Person>
<Result raceNumber="1"><Position>1</Position><Status>OK</Status></Result>
<Result raceNumber="2"><Position>3</Position><Status>OK</Status></Result>
</PersonResult>
</ClassResult>
</ResultList>`

	event, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	require.Len(t, event.Races, 2)
	assert.Equal(t, "Day 1", *event.Races[0].Name)
	assert.Nil(t, event.Races[1].Name)

	require.Len(t, event.ClassResults, 2)
	assert.Equal(t, 1, event.ClassResults[0].RaceNumber)
	assert.Equal(t, 2, event.ClassResults[1].RaceNumber)
	assert.Equal(t, 3, *event.ClassResults[1].Results[0].Position.Value)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		wantErr     error
		wantLine    int
		wantElement string
	}{
		{
			name:    "empty document",
			doc:     "",
			wantErr: ErrEmptyDocument,
		},
		{
			name:        "wrong root",
			doc:         "<EntryList></EntryList>",
			wantErr:     ErrUnexpectedRoot,
			wantLine:    1,
			wantElement: "EntryList",
		},
		{
			name:        "missing event",
			doc:         "<ResultList><ClassResult><Class><Name>X</Name></Class></ClassResult></ResultList>",
			wantErr:     ErrMissingEvent,
			wantElement: "Event",
		},
		{
			name:        "empty event name",
			doc:         "<ResultList>\n<Event><Name>  </Name></Event>\n</ResultList>",
			wantErr:     models.ErrEmptyEventName,
			wantLine:    2,
			wantElement: "Event/Name",
		},
		{
			name: "zero position",
			doc: "<ResultList>\n<Event><Name>E</Name></Event>\n<ClassResult><Class><Name>X</Name></Class>\n" +
				"<PersonResult><Person/><Result><Position>0</Position></Result></PersonResult></ClassResult></ResultList>",
			wantErr:     ErrInvalidPosition,
			wantLine:    3,
			wantElement: "ClassResult[1]/PersonResult[1]/Result[1]/Position",
		},
		{
			name: "negative time",
			doc: "<ResultList><Event><Name>E</Name></Event><ClassResult><Class><Name>X</Name></Class>" +
				"<PersonResult><Person/><Result><Time>-5</Time></Result></PersonResult></ClassResult></ResultList>",
			wantErr:     ErrNegativeTime,
			wantLine:    1,
			wantElement: "ClassResult[1]/PersonResult[1]/Result[1]/Time",
		},
		{
			name: "bad birth date",
			doc: "<ResultList><Event><Name>E</Name></Event><ClassResult><Class><Name>X</Name></Class>" +
				"<PersonResult><Person><BirthDate>12.04.1990</BirthDate></Person><Result/></PersonResult></ClassResult></ResultList>",
			wantErr:     ErrInvalidDate,
			wantElement: "ClassResult[1]/PersonResult[1]/Person/BirthDate",
		},
		{
			name: "unknown status",
			doc: "<ResultList><Event><Name>E</Name></Event><ClassResult><Class><Name>X</Name></Class>" +
				"<PersonResult><Person/><Result><Status>Lost</Status></Result></PersonResult></ClassResult></ResultList>",
			wantErr:     ErrUnknownStatus,
			wantElement: "ClassResult[1]/PersonResult[1]/Result[1]/Status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Nil(t, event)
			assert.ErrorIs(t, err, tt.wantErr)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			if tt.wantLine > 0 {
				assert.Equal(t, tt.wantLine, pe.Line)
			}
			if tt.wantElement != "" {
				assert.Equal(t, tt.wantElement, pe.Element)
			}
		})
	}
}

func TestParseMalformedXMLReportsLine(t *testing.T) {
	doc := "<ResultList>\n<Event><Name>E</Name></Event>\n<ClassResult>\n<Class><Name>X</Class>\n</ClassResult>\n</ResultList>"

	_, err := Parse(strings.NewReader(doc))
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 4, pe.Line)
	assert.Equal(t, "ClassResult[1]", pe.Element)
	assert.Contains(t, pe.Error(), "line 4")
}

func TestParseTruncatedDocument(t *testing.T) {
	_, err := Parse(strings.NewReader("<ResultList><Event><Name>E</Name></Event>"))

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}
