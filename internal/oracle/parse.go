package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"scorecard-tracker/internal/domain"
)

type scoreboardPayload struct {
	Players []struct {
		Username     string `json:"username"`
		Eliminations int    `json:"eliminations"`
		Deaths       int    `json:"deaths"`
		Assists      int    `json:"assists"`
		Damage       int    `json:"damage"`
		Plants       int    `json:"plants"`
		Defuses      int    `json:"defuses"`
		Team         string `json:"team"`
	} `json:"players"`
	MatchInfo struct {
		MatchResult string `json:"match_result"`
		RoundsWon   int    `json:"rounds_won"`
		RoundsLost  int    `json:"rounds_lost"`
	} `json:"match_info"`
}

// parseScoreboard decodes the model's answer, tolerating markdown code
// fences around the JSON body.
func parseScoreboard(text string) (*domain.ImageResult, error) {
	cleaned := stripFences(text)

	var payload scoreboardPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	result := &domain.ImageResult{
		Match: domain.MatchInfo{
			Result:     domain.MatchResult(strings.ToUpper(payload.MatchInfo.MatchResult)),
			RoundsWon:  payload.MatchInfo.RoundsWon,
			RoundsLost: payload.MatchInfo.RoundsLost,
		},
		Players: make([]domain.RawPlayerEntry, 0, len(payload.Players)),
	}
	if result.Match.Result != domain.ResultVictory && result.Match.Result != domain.ResultDefeat {
		result.Match.Result = domain.ResultDefeat
	}

	for _, p := range payload.Players {
		team := domain.Team(strings.ToUpper(p.Team))
		if team != domain.TeamATK && team != domain.TeamDEF {
			team = domain.TeamATK
		}
		result.Players = append(result.Players, domain.RawPlayerEntry{
			Username:     p.Username,
			Team:         team,
			Eliminations: clampNonNegative(p.Eliminations),
			Deaths:       clampNonNegative(p.Deaths),
			Assists:      clampNonNegative(p.Assists),
			Damage:       clampNonNegative(p.Damage),
			Plants:       clampNonNegative(p.Plants),
			Defuses:      clampNonNegative(p.Defuses),
		})
	}

	return result, nil
}

func stripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
