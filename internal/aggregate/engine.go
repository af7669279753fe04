// Package aggregate folds per-image extraction results, plus an optional
// pre-existing leaderboard snapshot, into one canonical set of per-player
// cumulative statistics keyed by identity key.
//
// Merge is not safe for concurrent use; callers funnel all image results
// through a single call after extraction completes.
package aggregate

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"scorecard-tracker/internal/domain"
	"scorecard-tracker/internal/identity"
)

// Stats counts what a fold/merge did, for run reporting. Skipped entries are
// not errors: the run continues without them.
type Stats struct {
	EntriesMerged      int `json:"entries_merged"`
	SkippedEmpty       int `json:"skipped_empty"`
	SkippedPlaceholder int `json:"skipped_placeholder"`
	PlayersNew         int `json:"players_new"`
	PlayersUpdated     int `json:"players_updated"`
}

type Engine struct {
	norm   *identity.Normalizer
	logger zerolog.Logger
}

func NewEngine(norm *identity.Normalizer, logger zerolog.Logger) *Engine {
	return &Engine{norm: norm, logger: logger}
}

// Index keys snapshot records by the identity key of their display username.
// Rows with an empty username are ignored, per the snapshot read contract.
func (e *Engine) Index(records []domain.PlayerRecord) map[string]domain.PlayerRecord {
	indexed := make(map[string]domain.PlayerRecord, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec.DisplayUsername) == "" {
			continue
		}
		key := e.norm.Normalize(rec.DisplayUsername)
		if key == "" || key == identity.PlaceholderKey {
			continue
		}
		if existing, ok := indexed[key]; ok {
			// Two snapshot rows collapsing to one key means the snapshot
			// predates a table fix. Sum them under the first spelling.
			indexed[key] = addTotals(existing, rec)
			continue
		}
		indexed[key] = rec
	}
	return indexed
}

// Fold sums all entries sharing an identity key within one run. The display
// username is the first raw spelling seen for the key in processing order;
// team and last-seen take the most recent observation.
func (e *Engine) Fold(images []domain.ImageResult) (map[string]domain.PlayerRecord, Stats) {
	totals := make(map[string]domain.PlayerRecord)
	var stats Stats

	for _, img := range images {
		for _, p := range img.Players {
			if strings.TrimSpace(p.Username) == "" {
				stats.SkippedEmpty++
				e.logger.Warn().
					Str("team", string(p.Team)).
					Str("image", img.Match.ImageFile).
					Msg("skipping entry with empty username")
				continue
			}

			key := e.norm.Normalize(p.Username)
			if key == "" {
				stats.SkippedEmpty++
				e.logger.Warn().
					Str("username", p.Username).
					Msg("skipping entry: username empty after normalization")
				continue
			}
			if key == identity.PlaceholderKey {
				stats.SkippedPlaceholder++
				e.logger.Debug().
					Str("username", p.Username).
					Msg("skipping placeholder username")
				continue
			}

			rec, ok := totals[key]
			if !ok {
				rec = domain.PlayerRecord{
					DisplayUsername: p.Username,
					FirstSeen:       img.Match.Timestamp,
				}
			}

			rec.GamesPlayed++
			rec.Eliminations += p.Eliminations
			rec.Deaths += p.Deaths
			rec.Assists += p.Assists
			rec.Damage += p.Damage
			rec.Plants += p.Plants
			rec.Defuses += p.Defuses
			if img.Match.Result == domain.ResultVictory {
				rec.Victories++
			} else {
				rec.Defeats++
			}
			rec.LastTeam = p.Team
			rec.LastSeen = img.Match.Timestamp
			totals[key] = rec

			stats.EntriesMerged++
		}
	}

	return totals, stats
}

// Merge reconciles one run's image results against an existing snapshot.
// Cumulative fields sum; the existing record's display username and
// first-seen are kept; team and last-seen take the new run's most recent
// values. Existing records not observed this run carry forward unchanged.
// The input map is not mutated.
func (e *Engine) Merge(existing map[string]domain.PlayerRecord, images []domain.ImageResult) (map[string]domain.PlayerRecord, Stats) {
	fresh, stats := e.Fold(images)

	merged := make(map[string]domain.PlayerRecord, len(existing)+len(fresh))
	for key, rec := range existing {
		merged[key] = rec
	}

	for key, rec := range fresh {
		current, ok := merged[key]
		if !ok {
			merged[key] = rec
			stats.PlayersNew++
			e.logger.Debug().Str("username", rec.DisplayUsername).Str("key", key).Msg("new player on leaderboard")
			continue
		}
		merged[key] = addTotals(current, rec)
		stats.PlayersUpdated++
		e.logger.Debug().
			Str("username", current.DisplayUsername).
			Int("games_added", rec.GamesPlayed).
			Msg("combined stats into existing player")
	}

	return merged, stats
}

// addTotals folds incoming cumulative stats onto base. Base keeps its display
// username and first-seen; incoming supplies the most recent team/last-seen.
func addTotals(base, incoming domain.PlayerRecord) domain.PlayerRecord {
	base.GamesPlayed += incoming.GamesPlayed
	base.Eliminations += incoming.Eliminations
	base.Deaths += incoming.Deaths
	base.Assists += incoming.Assists
	base.Damage += incoming.Damage
	base.Plants += incoming.Plants
	base.Defuses += incoming.Defuses
	base.Victories += incoming.Victories
	base.Defeats += incoming.Defeats
	if incoming.LastTeam != "" {
		base.LastTeam = incoming.LastTeam
	}
	if !incoming.LastSeen.IsZero() {
		base.LastSeen = incoming.LastSeen
	}
	if base.FirstSeen.IsZero() {
		base.FirstSeen = incoming.FirstSeen
	}
	return base
}

// Rank flattens a snapshot map into rows sorted by kd_ratio descending.
// Records with zero games never make it out.
func Rank(snapshot map[string]domain.PlayerRecord) []domain.PlayerRecord {
	records := make([]domain.PlayerRecord, 0, len(snapshot))
	for _, rec := range snapshot {
		if rec.GamesPlayed == 0 {
			continue
		}
		records = append(records, rec)
	}
	// Pre-sort by name so map iteration order never leaks into tie-breaks.
	sort.Slice(records, func(i, j int) bool {
		return records[i].DisplayUsername < records[j].DisplayUsername
	})
	domain.SortByKDRatio(records)
	return records
}

// KnownPlayers lists display usernames for the extraction prompt, most games
// first with alphabetical tie-break, capped at limit.
func KnownPlayers(snapshot map[string]domain.PlayerRecord, limit int) []string {
	records := make([]domain.PlayerRecord, 0, len(snapshot))
	for _, rec := range snapshot {
		name := strings.TrimSpace(rec.DisplayUsername)
		if name == "" {
			continue
		}
		switch strings.ToLower(name) {
		case "username", "player":
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].GamesPlayed != records[j].GamesPlayed {
			return records[i].GamesPlayed > records[j].GamesPlayed
		}
		return records[i].DisplayUsername < records[j].DisplayUsername
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	names := make([]string, len(records))
	for i, rec := range records {
		names[i] = rec.DisplayUsername
	}
	return names
}
