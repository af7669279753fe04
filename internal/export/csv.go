// Package export renders the aggregated snapshot to flat tabular output.
// The CSV path is the fallback artifact every run produces, independent of
// leaderboard sink availability.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"scorecard-tracker/internal/domain"
)

// FlatHeader is the column layout of the flat export, one row per player,
// kd_ratio descending.
var FlatHeader = []string{
	"username", "games_played",
	"total_eliminations", "total_assists", "total_deaths",
	"total_plants", "total_defuses",
	"avg_eliminations", "avg_assists", "avg_deaths", "avg_plants", "avg_defuses",
	"kd_ratio", "team", "total_damage", "avg_damage",
	"first_seen", "last_seen",
}

// WriteCSV writes the snapshot to path, sorted by kd_ratio descending.
func WriteCSV(path string, records []domain.PlayerRecord) error {
	sorted := make([]domain.PlayerRecord, len(records))
	copy(sorted, records)
	domain.SortByKDRatio(sorted)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(FlatHeader); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}
	for _, rec := range sorted {
		if err := w.Write(flatRow(rec)); err != nil {
			return fmt.Errorf("failed to write export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}
	return nil
}

// ReadCSV loads a flat export back into records. Export and import are
// lossless for the flat columns; rows with an empty username are skipped.
func ReadCSV(path string) ([]domain.PlayerRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[name] = i
	}

	var records []domain.PlayerRecord
	for _, row := range rows[1:] {
		get := func(name string) string {
			if idx, ok := cols[name]; ok && idx < len(row) {
				return row[idx]
			}
			return ""
		}
		username := get("username")
		if username == "" {
			continue
		}
		records = append(records, domain.PlayerRecord{
			DisplayUsername: username,
			GamesPlayed:     atoi(get("games_played")),
			Eliminations:    atoi(get("total_eliminations")),
			Assists:         atoi(get("total_assists")),
			Deaths:          atoi(get("total_deaths")),
			Plants:          atoi(get("total_plants")),
			Defuses:         atoi(get("total_defuses")),
			Damage:          atoi(get("total_damage")),
			LastTeam:        domain.Team(get("team")),
			FirstSeen:       parseTime(get("first_seen")),
			LastSeen:        parseTime(get("last_seen")),
		})
	}
	return records, nil
}

func flatRow(rec domain.PlayerRecord) []string {
	return []string{
		rec.DisplayUsername,
		strconv.Itoa(rec.GamesPlayed),
		strconv.Itoa(rec.Eliminations),
		strconv.Itoa(rec.Assists),
		strconv.Itoa(rec.Deaths),
		strconv.Itoa(rec.Plants),
		strconv.Itoa(rec.Defuses),
		formatFloat(rec.AvgEliminations()),
		formatFloat(rec.AvgAssists()),
		formatFloat(rec.AvgDeaths()),
		formatFloat(rec.AvgPlants()),
		formatFloat(rec.AvgDefuses()),
		formatFloat(rec.KDRatio()),
		string(rec.LastTeam),
		strconv.Itoa(rec.Damage),
		formatFloat(rec.AvgDamage()),
		formatTimestamp(rec.FirstSeen),
		formatTimestamp(rec.LastSeen),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
