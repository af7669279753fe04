package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKDRatio(t *testing.T) {
	tests := []struct {
		name   string
		elims  int
		deaths int
		want   float64
	}{
		{"simple ratio", 10, 4, 2.5},
		{"rounds to two decimals", 15, 7, 2.14},
		{"zero deaths floored at one", 12, 0, 12.0},
		{"no eliminations", 0, 8, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := PlayerRecord{Eliminations: tt.elims, Deaths: tt.deaths}
			assert.InDelta(t, tt.want, rec.KDRatio(), 0.0001)
		})
	}
}

func TestPerGameAverages(t *testing.T) {
	rec := PlayerRecord{
		GamesPlayed:  3,
		Eliminations: 10,
		Deaths:       7,
		Assists:      5,
		Damage:       4000,
		Plants:       2,
		Defuses:      1,
	}

	assert.InDelta(t, 3.33, rec.AvgEliminations(), 0.0001)
	assert.InDelta(t, 2.33, rec.AvgDeaths(), 0.0001)
	assert.InDelta(t, 1.67, rec.AvgAssists(), 0.0001)
	assert.InDelta(t, 1333.33, rec.AvgDamage(), 0.0001)
	assert.InDelta(t, 0.67, rec.AvgPlants(), 0.0001)
	assert.InDelta(t, 0.33, rec.AvgDefuses(), 0.0001)
}

func TestAveragesWithNoGames(t *testing.T) {
	rec := PlayerRecord{Eliminations: 10}
	assert.Zero(t, rec.AvgEliminations())
	assert.Zero(t, rec.AvgDamage())
}

func TestSortByKDRatioIsStable(t *testing.T) {
	records := []PlayerRecord{
		{DisplayUsername: "first", Eliminations: 4, Deaths: 2},
		{DisplayUsername: "second", Eliminations: 4, Deaths: 2},
		{DisplayUsername: "top", Eliminations: 9, Deaths: 1},
	}

	SortByKDRatio(records)

	assert.Equal(t, "top", records[0].DisplayUsername)
	assert.Equal(t, "first", records[1].DisplayUsername, "ties keep incoming order")
	assert.Equal(t, "second", records[2].DisplayUsername)
}
