package domain

import (
	"math"
	"sort"
	"time"
)

type Team string

const (
	TeamATK Team = "ATK"
	TeamDEF Team = "DEF"
)

type MatchResult string

const (
	ResultVictory MatchResult = "VICTORY"
	ResultDefeat  MatchResult = "DEFEAT"
)

// RawPlayerEntry is one player's stats as extracted from a single screenshot.
// The username is whatever the extraction model reported and may be noisy.
type RawPlayerEntry struct {
	Username     string `json:"username"`
	Team         Team   `json:"team"`
	Eliminations int    `json:"eliminations"`
	Deaths       int    `json:"deaths"`
	Assists      int    `json:"assists"`
	Damage       int    `json:"damage"`
	Plants       int    `json:"plants"`
	Defuses      int    `json:"defuses"`
}

// MatchInfo is the per-screenshot metadata. Timestamp is assigned at
// processing time, not extracted from the image.
type MatchInfo struct {
	Result        MatchResult `json:"match_result"`
	RoundsWon     int         `json:"rounds_won"`
	RoundsLost    int         `json:"rounds_lost"`
	Timestamp     time.Time   `json:"timestamp"`
	SourceImageID string      `json:"source_image_id"`
	ImageFile     string      `json:"image_file"`
}

// ImageResult is the structured output of one successfully processed image.
type ImageResult struct {
	Match   MatchInfo        `json:"match_info"`
	Players []RawPlayerEntry `json:"players"`
}

// PlayerRecord is the durable cumulative entry for one resolved player
// identity. DisplayUsername keeps the first raw spelling ever seen for the
// identity and is never recomputed once set.
type PlayerRecord struct {
	DisplayUsername string    `json:"username"`
	GamesPlayed     int       `json:"games_played"`
	Eliminations    int       `json:"total_eliminations"`
	Deaths          int       `json:"total_deaths"`
	Assists         int       `json:"total_assists"`
	Damage          int       `json:"total_damage"`
	Plants          int       `json:"total_plants"`
	Defuses         int       `json:"total_defuses"`
	Victories       int       `json:"victories"`
	Defeats         int       `json:"defeats"`
	LastTeam        Team      `json:"team"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
}

// KDRatio is eliminations over deaths, with deaths floored at 1 so the ratio
// is always defined. Rounded to 2 decimal places.
func (r PlayerRecord) KDRatio() float64 {
	deaths := r.Deaths
	if deaths < 1 {
		deaths = 1
	}
	return Round2(float64(r.Eliminations) / float64(deaths))
}

func (r PlayerRecord) AvgEliminations() float64 { return r.perGame(r.Eliminations) }
func (r PlayerRecord) AvgDeaths() float64       { return r.perGame(r.Deaths) }
func (r PlayerRecord) AvgAssists() float64      { return r.perGame(r.Assists) }
func (r PlayerRecord) AvgDamage() float64       { return r.perGame(r.Damage) }
func (r PlayerRecord) AvgPlants() float64       { return r.perGame(r.Plants) }
func (r PlayerRecord) AvgDefuses() float64      { return r.perGame(r.Defuses) }

func (r PlayerRecord) perGame(total int) float64 {
	if r.GamesPlayed == 0 {
		return 0
	}
	return Round2(float64(total) / float64(r.GamesPlayed))
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SortByKDRatio orders records by kd_ratio descending. The sort is stable so
// ties keep their incoming order.
func SortByKDRatio(records []PlayerRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].KDRatio() > records[j].KDRatio()
	})
}
