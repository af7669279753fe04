package aggregate

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorecard-tracker/internal/domain"
	"scorecard-tracker/internal/identity"
)

func newTestEngine() *Engine {
	return NewEngine(identity.New(), zerolog.Nop())
}

func imageAt(ts time.Time, result domain.MatchResult, players ...domain.RawPlayerEntry) domain.ImageResult {
	return domain.ImageResult{
		Match:   domain.MatchInfo{Result: result, Timestamp: ts, ImageFile: "test.png"},
		Players: players,
	}
}

func TestFoldMergesUsernameVariants(t *testing.T) {
	e := newTestEngine()
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	totals, stats := e.Fold([]domain.ImageResult{
		imageAt(ts, domain.ResultVictory,
			domain.RawPlayerEntry{Username: "2AMDIBBS", Team: domain.TeamATK, Eliminations: 8, Deaths: 3},
		),
		imageAt(ts.Add(time.Hour), domain.ResultDefeat,
			domain.RawPlayerEntry{Username: "DIBBS", Team: domain.TeamDEF, Eliminations: 4, Deaths: 5},
		),
	})

	require.Len(t, totals, 1)
	rec, ok := totals["dibbs"]
	require.True(t, ok)

	assert.Equal(t, "2AMDIBBS", rec.DisplayUsername, "first spelling seen wins")
	assert.Equal(t, 2, rec.GamesPlayed)
	assert.Equal(t, 12, rec.Eliminations)
	assert.Equal(t, 8, rec.Deaths)
	assert.Equal(t, 1, rec.Victories)
	assert.Equal(t, 1, rec.Defeats)
	assert.Equal(t, domain.TeamDEF, rec.LastTeam, "most recent team wins")
	assert.Equal(t, ts, rec.FirstSeen)
	assert.Equal(t, ts.Add(time.Hour), rec.LastSeen)
	assert.Equal(t, 2, stats.EntriesMerged)
}

func TestFoldSkipsEmptyAndPlaceholderUsernames(t *testing.T) {
	e := newTestEngine()
	ts := time.Now()

	totals, stats := e.Fold([]domain.ImageResult{
		imageAt(ts, domain.ResultVictory,
			domain.RawPlayerEntry{Username: "", Eliminations: 5},
			domain.RawPlayerEntry{Username: "   ", Eliminations: 5},
			domain.RawPlayerEntry{Username: "Anonymous", Eliminations: 5},
			domain.RawPlayerEntry{Username: "Player 2", Eliminations: 5},
			domain.RawPlayerEntry{Username: "HOWLER", Eliminations: 5, Deaths: 2},
		),
	})

	require.Len(t, totals, 1)
	assert.Contains(t, totals, "howler")
	assert.Equal(t, 2, stats.SkippedEmpty)
	assert.Equal(t, 2, stats.SkippedPlaceholder)
	assert.Equal(t, 1, stats.EntriesMerged)
}

// Totals are sums, so folding the same images in any order produces the same
// cumulative numbers.
func TestFoldOrderIndependentTotals(t *testing.T) {
	e := newTestEngine()
	ts := time.Now()

	images := []domain.ImageResult{
		imageAt(ts, domain.ResultVictory,
			domain.RawPlayerEntry{Username: "WOLF", Eliminations: 7, Deaths: 2, Assists: 3, Damage: 900},
		),
		imageAt(ts, domain.ResultDefeat,
			domain.RawPlayerEntry{Username: "WOLF", Eliminations: 2, Deaths: 6, Assists: 1, Damage: 400},
		),
		imageAt(ts, domain.ResultVictory,
			domain.RawPlayerEntry{Username: "WOLF", Eliminations: 5, Deaths: 5, Assists: 0, Damage: 650},
		),
	}
	reversed := []domain.ImageResult{images[2], images[1], images[0]}

	forward, _ := e.Fold(images)
	backward, _ := e.Fold(reversed)

	f, b := forward["wolf"], backward["wolf"]
	assert.Equal(t, f.GamesPlayed, b.GamesPlayed)
	assert.Equal(t, f.Eliminations, b.Eliminations)
	assert.Equal(t, f.Deaths, b.Deaths)
	assert.Equal(t, f.Assists, b.Assists)
	assert.Equal(t, f.Damage, b.Damage)
	assert.Equal(t, f.Victories, b.Victories)
	assert.Equal(t, f.Defeats, b.Defeats)
}

func TestMergeCombinesSnapshotWithFreshResults(t *testing.T) {
	e := newTestEngine()
	firstSeen := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	ts := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)

	existing := map[string]domain.PlayerRecord{
		"quintin": {
			DisplayUsername: "ZQUINTIN",
			GamesPlayed:     3,
			Eliminations:    10,
			Deaths:          5,
			Victories:       2,
			Defeats:         1,
			LastTeam:        domain.TeamATK,
			FirstSeen:       firstSeen,
			LastSeen:        firstSeen,
		},
		"howler": {
			DisplayUsername: "HOWLER",
			GamesPlayed:     2,
			Eliminations:    9,
			Deaths:          4,
			FirstSeen:       firstSeen,
			LastSeen:        firstSeen,
		},
	}

	merged, stats := e.Merge(existing, []domain.ImageResult{
		imageAt(ts, domain.ResultVictory,
			domain.RawPlayerEntry{Username: "QUINTIN", Team: domain.TeamDEF, Eliminations: 5, Deaths: 2},
			domain.RawPlayerEntry{Username: "NVFHUNTER", Team: domain.TeamATK, Eliminations: 3, Deaths: 1},
		),
	})

	require.Len(t, merged, 3)

	quintin := merged["quintin"]
	assert.Equal(t, "ZQUINTIN", quintin.DisplayUsername, "existing display username is never overwritten")
	assert.Equal(t, 4, quintin.GamesPlayed)
	assert.Equal(t, 15, quintin.Eliminations)
	assert.Equal(t, 7, quintin.Deaths)
	assert.Equal(t, 3, quintin.Victories)
	assert.InDelta(t, 2.14, quintin.KDRatio(), 0.001)
	assert.Equal(t, domain.TeamDEF, quintin.LastTeam)
	assert.Equal(t, firstSeen, quintin.FirstSeen, "first seen is never overwritten")
	assert.Equal(t, ts, quintin.LastSeen)

	// Untouched records carry forward unchanged.
	assert.Equal(t, existing["howler"], merged["howler"])

	hunter := merged["hunter"]
	assert.Equal(t, "NVFHUNTER", hunter.DisplayUsername)
	assert.Equal(t, 1, hunter.GamesPlayed)

	assert.Equal(t, 1, stats.PlayersNew)
	assert.Equal(t, 1, stats.PlayersUpdated)
	assert.Equal(t, 2, stats.EntriesMerged)
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	e := newTestEngine()
	existing := map[string]domain.PlayerRecord{
		"wolf": {DisplayUsername: "WOLF", GamesPlayed: 1, Eliminations: 3, Deaths: 1},
	}

	_, _ = e.Merge(existing, []domain.ImageResult{
		imageAt(time.Now(), domain.ResultVictory,
			domain.RawPlayerEntry{Username: "WOLF", Eliminations: 4, Deaths: 2},
		),
	})

	assert.Equal(t, 1, existing["wolf"].GamesPlayed)
	assert.Equal(t, 3, existing["wolf"].Eliminations)
}

func TestIndexCollapsesRowsSharingAKey(t *testing.T) {
	e := newTestEngine()

	indexed := e.Index([]domain.PlayerRecord{
		{DisplayUsername: "2AMDIBBS", GamesPlayed: 2, Eliminations: 10},
		{DisplayUsername: "DIBBS", GamesPlayed: 1, Eliminations: 4},
		{DisplayUsername: "", GamesPlayed: 9},
		{DisplayUsername: "WOLF", GamesPlayed: 1},
	})

	require.Len(t, indexed, 2)
	assert.Equal(t, 3, indexed["dibbs"].GamesPlayed)
	assert.Equal(t, 14, indexed["dibbs"].Eliminations)
	assert.Equal(t, "2AMDIBBS", indexed["dibbs"].DisplayUsername)
}

func TestRankSortsByKDRatioAndDropsZeroGames(t *testing.T) {
	snapshot := map[string]domain.PlayerRecord{
		"a": {DisplayUsername: "alpha", GamesPlayed: 2, Eliminations: 10, Deaths: 2},  // 5.00
		"b": {DisplayUsername: "bravo", GamesPlayed: 1, Eliminations: 9, Deaths: 3},   // 3.00
		"c": {DisplayUsername: "charlie", GamesPlayed: 3, Eliminations: 4, Deaths: 8}, // 0.50
		"d": {DisplayUsername: "delta", GamesPlayed: 0},
		"e": {DisplayUsername: "echo", GamesPlayed: 1, Eliminations: 6, Deaths: 0}, // deaths floored at 1 -> 6.00
	}

	ranked := Rank(snapshot)

	require.Len(t, ranked, 4)
	assert.Equal(t, "echo", ranked[0].DisplayUsername)
	assert.Equal(t, "alpha", ranked[1].DisplayUsername)
	assert.Equal(t, "bravo", ranked[2].DisplayUsername)
	assert.Equal(t, "charlie", ranked[3].DisplayUsername)
}

func TestRankTieBreakIsDeterministic(t *testing.T) {
	snapshot := map[string]domain.PlayerRecord{
		"z": {DisplayUsername: "zulu", GamesPlayed: 1, Eliminations: 4, Deaths: 2},
		"m": {DisplayUsername: "mike", GamesPlayed: 1, Eliminations: 4, Deaths: 2},
		"a": {DisplayUsername: "alpha", GamesPlayed: 1, Eliminations: 4, Deaths: 2},
	}

	for i := 0; i < 20; i++ {
		ranked := Rank(snapshot)
		require.Len(t, ranked, 3)
		assert.Equal(t, "alpha", ranked[0].DisplayUsername)
		assert.Equal(t, "mike", ranked[1].DisplayUsername)
		assert.Equal(t, "zulu", ranked[2].DisplayUsername)
	}
}

func TestKnownPlayers(t *testing.T) {
	snapshot := map[string]domain.PlayerRecord{
		"a": {DisplayUsername: "alpha", GamesPlayed: 5},
		"b": {DisplayUsername: "bravo", GamesPlayed: 9},
		"c": {DisplayUsername: "charlie", GamesPlayed: 5},
		"h": {DisplayUsername: "username", GamesPlayed: 99}, // header artifact
		"p": {DisplayUsername: "Player", GamesPlayed: 99},
		"e": {DisplayUsername: "", GamesPlayed: 99},
	}

	names := KnownPlayers(snapshot, 2)
	assert.Equal(t, []string{"bravo", "alpha"}, names)

	all := KnownPlayers(snapshot, 0)
	assert.Equal(t, []string{"bravo", "alpha", "charlie"}, all)
}
