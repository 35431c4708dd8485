package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/ol-results/internal/models"
)

func result(family string, pos *int) models.Result {
	return models.Result{Person: models.Person{FamilyName: family}, Position: models.Position{Value: pos}}
}

func intp(v int) *int { return &v }

func ranks(rr []RankedResult) []int {
	out := make([]int, len(rr))
	for i, r := range rr {
		out[i] = r.Rank
	}
	return out
}

func TestRank(t *testing.T) {
	input := []models.Result{
		result("Dahl", nil),
		result("Berg", intp(2)),
		result("Alm", intp(1)),
		result("Cedar", intp(2)),
		result("Ek", intp(4)),
	}

	tests := []struct {
		name string
		mode RankingMode
		want []int
	}{
		{name: "sequential", mode: RankingSequential, want: []int{1, 2, 3, 4, 0}},
		{name: "fair", mode: RankingFair, want: []int{1, 2, 2, 4, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := Rank(input, tt.mode)
			assert.Equal(t, tt.want, ranks(ranked))
			assert.Equal(t, "Alm", ranked[0].Result.Person.FamilyName)
			assert.Equal(t, "Berg", ranked[1].Result.Person.FamilyName)
			assert.Equal(t, "Cedar", ranked[2].Result.Person.FamilyName)
			assert.Equal(t, "Dahl", ranked[4].Result.Person.FamilyName)
		})
	}

	// input order is untouched
	assert.Equal(t, "Dahl", input[0].Person.FamilyName)
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil, RankingFair))
}

func TestParseRankingMode(t *testing.T) {
	m, ok := ParseRankingMode("fair")
	assert.True(t, ok)
	assert.Equal(t, RankingFair, m)

	_, ok = ParseRankingMode("olympic")
	assert.False(t, ok)
}
