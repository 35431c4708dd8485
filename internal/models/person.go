package models

import (
	"strings"
	"time"
)

// Gender as carried by the IOF sex attribute
type Gender string

const (
	GenderUnknown Gender = ""
	GenderFemale  Gender = "F"
	GenderMale    Gender = "M"
)

// ParseGender maps free-form input to a Gender; unknown values yield GenderUnknown
func ParseGender(s string) Gender {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "F", "W", "FEMALE", "WOMAN":
		return GenderFemale
	case "M", "MALE", "MAN":
		return GenderMale
	default:
		return GenderUnknown
	}
}

// Person is a competitor
type Person struct {
	ID         string     `json:"id,omitempty"`
	GivenName  string     `json:"given_name"`
	FamilyName string     `json:"family_name"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Gender     Gender     `json:"gender,omitempty"`
}

// Name returns "Family Given", the key persons are ordered by.
func (p Person) Name() string {
	switch {
	case p.FamilyName == "":
		return p.GivenName
	case p.GivenName == "":
		return p.FamilyName
	}
	return p.FamilyName + " " + p.GivenName
}

func (p Person) clone() Person {
	c := p
	c.BirthDate = cloneTime(p.BirthDate)
	return c
}
