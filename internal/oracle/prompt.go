package oracle

import (
	"fmt"
	"strings"
)

// BuildPrompt assembles the extraction instructions, optionally seeded with
// known display usernames so the model biases near-matches toward spellings
// already on the leaderboard. That bias is probabilistic; the identity
// normalizer downstream still resolves whatever comes back.
func BuildPrompt(knownPlayers []string) string {
	var context string
	if len(knownPlayers) > 0 {
		context = fmt.Sprintf(`
KNOWN PLAYERS CONTEXT (be consistent with these):
%s

When a username looks similar to a known player, use the EXACT known spelling.
Examples:
- Image shows "2AMDIBBS" and "dibbs" is known -> use "dibbs"
- Image shows "NVFJJ7" and "jj" is known -> use "jj"
- Image shows "ZQUINTIN" and "quintin" is known -> use "quintin"

PRIORITIZE CONSISTENCY with known players over exact visual spelling.
`, strings.Join(knownPlayers, ", "))
	}

	return fmt.Sprintf(`You are an expert at extracting data from multiplayer match scoreboards.

Extract player usernames with PERFECT CONSISTENCY across all images.
%s
Return ONLY this JSON structure:
{
    "players": [
        {
            "username": "CONSISTENT_NAME",
            "eliminations": 0,
            "deaths": 0,
            "assists": 0,
            "damage": 0,
            "plants": 0,
            "defuses": 0,
            "team": "ATK" or "DEF"
        }
    ],
    "match_info": {
        "match_result": "VICTORY" or "DEFEAT",
        "rounds_won": 0,
        "rounds_lost": 0
    }
}

USERNAME RULES:
- If a username matches or looks similar to a KNOWN PLAYER above, use the known spelling exactly.
- Otherwise extract cleanly: remove only tiny micro-text clan tags (TTV, dvs, etc.).
- Keep all normal-sized letters and numbers; when in doubt preserve more rather than less.
- Never invent new variations of known players or add decorations to existing names.

Extract ALL players. Convert stats to integers. Use 0 if a stat is not visible.`, context)
}
