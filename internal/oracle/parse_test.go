package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorecard-tracker/internal/domain"
)

const sampleAnswer = `{
  "players": [
    {"username": "2AMDIBBS", "eliminations": 8, "deaths": 3, "assists": 2, "damage": 1240, "plants": 1, "defuses": 0, "team": "ATK"},
    {"username": "HOWLER", "eliminations": 5, "deaths": 6, "assists": 4, "damage": 890, "plants": 0, "defuses": 2, "team": "DEF"}
  ],
  "match_info": {"match_result": "victory", "rounds_won": 13, "rounds_lost": 7}
}`

func TestParseScoreboard(t *testing.T) {
	result, err := parseScoreboard(sampleAnswer)
	require.NoError(t, err)

	assert.Equal(t, domain.ResultVictory, result.Match.Result)
	assert.Equal(t, 13, result.Match.RoundsWon)
	assert.Equal(t, 7, result.Match.RoundsLost)

	require.Len(t, result.Players, 2)
	assert.Equal(t, "2AMDIBBS", result.Players[0].Username)
	assert.Equal(t, domain.TeamATK, result.Players[0].Team)
	assert.Equal(t, 8, result.Players[0].Eliminations)
	assert.Equal(t, domain.TeamDEF, result.Players[1].Team)
	assert.Equal(t, 2, result.Players[1].Defuses)
}

// Models wrap JSON answers in markdown fences more often than not.
func TestParseScoreboardStripsFences(t *testing.T) {
	for _, text := range []string{
		"```json\n" + sampleAnswer + "\n```",
		"```\n" + sampleAnswer + "\n```",
		"\n  " + sampleAnswer + "  \n",
	} {
		result, err := parseScoreboard(text)
		require.NoError(t, err)
		assert.Len(t, result.Players, 2)
	}
}

func TestParseScoreboardDefaults(t *testing.T) {
	result, err := parseScoreboard(`{
		"players": [{"username": "WOLF", "eliminations": -3, "deaths": 2, "team": "UNKNOWN"}],
		"match_info": {"match_result": "draw?"}
	}`)
	require.NoError(t, err)

	assert.Equal(t, domain.ResultDefeat, result.Match.Result, "unknown results default to defeat")
	require.Len(t, result.Players, 1)
	assert.Equal(t, domain.TeamATK, result.Players[0].Team, "unknown teams default to ATK")
	assert.Equal(t, 0, result.Players[0].Eliminations, "negative counters clamp to zero")
	assert.Equal(t, 2, result.Players[0].Deaths)
}

func TestParseScoreboardRejectsGarbage(t *testing.T) {
	_, err := parseScoreboard("I could not read the scoreboard, sorry.")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestMimeTypeFor(t *testing.T) {
	assert.Equal(t, "image/png", MimeTypeFor("match.png"))
	assert.Equal(t, "image/jpeg", MimeTypeFor("match.JPG"))
	assert.Equal(t, "image/jpeg", MimeTypeFor("match.jpeg"))
	assert.Equal(t, "image/png", MimeTypeFor("unknown.bin"))
}

func TestBuildPromptIncludesKnownPlayers(t *testing.T) {
	prompt := BuildPrompt([]string{"DIBBS", "HOWLER"})
	assert.Contains(t, prompt, "DIBBS")
	assert.Contains(t, prompt, "HOWLER")

	bare := BuildPrompt(nil)
	assert.NotContains(t, bare, "KNOWN PLAYERS CONTEXT")
}
