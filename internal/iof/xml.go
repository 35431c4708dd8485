package iof

import "encoding/xml"

// Namespace is the IOF Data Standard 3.0 namespace
const Namespace = "http://www.orienteering.org/datastandard/3.0"

const iofVersion = "3.0"

type xmlResultList struct {
	XMLName      xml.Name         `xml:"ResultList"`
	Xmlns        string           `xml:"xmlns,attr,omitempty"`
	IOFVersion   string           `xml:"iofVersion,attr,omitempty"`
	CreateTime   string           `xml:"createTime,attr,omitempty"`
	Creator      string           `xml:"creator,attr,omitempty"`
	Status       string           `xml:"status,attr,omitempty"`
	Event        xmlEvent         `xml:"Event"`
	ClassResults []xmlClassResult `xml:"ClassResult"`
}

type xmlEvent struct {
	Name       string            `xml:"Name"`
	StartTime  *xmlDateTime      `xml:"StartTime,omitempty"`
	Races      []xmlRace         `xml:"Race,omitempty"`
	Organisers []xmlOrganisation `xml:"Organiser,omitempty"`
}

type xmlDateTime struct {
	Date string `xml:"Date"`
	Time string `xml:"Time,omitempty"`
}

type xmlRace struct {
	RaceNumber string `xml:"RaceNumber"`
	Name       string `xml:"Name,omitempty"`
}

type xmlOrganisation struct {
	ID        string `xml:"Id,omitempty"`
	Name      string `xml:"Name"`
	ShortName string `xml:"ShortName,omitempty"`
}

type xmlClassResult struct {
	Class         xmlClass          `xml:"Class"`
	PersonResults []xmlPersonResult `xml:"PersonResult"`
}

type xmlClass struct {
	ID        string `xml:"Id,omitempty"`
	Name      string `xml:"Name"`
	ShortName string `xml:"ShortName,omitempty"`
}

type xmlPersonResult struct {
	Person       xmlPerson        `xml:"Person"`
	Organisation *xmlOrganisation `xml:"Organisation,omitempty"`
	Results      []xmlResult      `xml:"Result"`
}

type xmlPerson struct {
	Sex       string        `xml:"sex,attr,omitempty"`
	IDs       []string      `xml:"Id,omitempty"`
	Name      xmlPersonName `xml:"Name"`
	BirthDate string        `xml:"BirthDate,omitempty"`
}

type xmlPersonName struct {
	Family string `xml:"Family"`
	Given  string `xml:"Given"`
}

type xmlResult struct {
	RaceNumber string         `xml:"raceNumber,attr,omitempty"`
	BibNumber  string         `xml:"BibNumber,omitempty"`
	StartTime  string         `xml:"StartTime,omitempty"`
	FinishTime string         `xml:"FinishTime,omitempty"`
	Time       string         `xml:"Time,omitempty"`
	TimeBehind string         `xml:"TimeBehind,omitempty"`
	Position   string         `xml:"Position,omitempty"`
	Status     string         `xml:"Status"`
	SplitTimes []xmlSplitTime `xml:"SplitTime,omitempty"`
}

type xmlSplitTime struct {
	Status      string `xml:"status,attr,omitempty"`
	ControlCode string `xml:"ControlCode"`
	Time        string `xml:"Time,omitempty"`
}
