// Package ordering holds the comparators used whenever results are displayed,
// exported or ranked. Every comparator is a total order: keys that can collide
// are followed by a trailing identity key so sorts are reproducible.
package ordering

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/ol-results/internal/models"
)

// ComparePersons orders by name, birth date (nil last), gender, then id.
func ComparePersons(a, b models.Person) int {
	if c := cmp.Compare(a.Name(), b.Name()); c != 0 {
		return c
	}
	if c := compareTimesNilLast(a.BirthDate, b.BirthDate); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Gender, b.Gender); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// ComparePositions orders by value with absent values last
func ComparePositions(a, b models.Position) int {
	return compareIntsNilLast(a.Value, b.Value)
}

// CompareRaces orders by race number, race name (nil last), then event id.
func CompareRaces(a, b models.Race) int {
	if c := cmp.Compare(a.Number, b.Number); c != 0 {
		return c
	}
	if c := compareStringsNilLast(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.EventID, b.EventID)
}

// CompareResults orders by position, running time, then person.
func CompareResults(a, b models.Result) int {
	if c := ComparePositions(a.Position, b.Position); c != 0 {
		return c
	}
	if c := compareDecimalsNilLast(a.Time, b.Time); c != 0 {
		return c
	}
	return ComparePersons(a.Person, b.Person)
}

// SortPersons sorts in place
func SortPersons(persons []models.Person) {
	slices.SortStableFunc(persons, ComparePersons)
}

// SortRaces sorts in place
func SortRaces(races []models.Race) {
	slices.SortStableFunc(races, CompareRaces)
}

// SortResults sorts in place
func SortResults(results []models.Result) {
	slices.SortStableFunc(results, CompareResults)
}

func compareIntsNilLast(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}

func compareStringsNilLast(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}

func compareTimesNilLast(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

func compareDecimalsNilLast(a, b *decimal.Decimal) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Cmp(*b)
}
