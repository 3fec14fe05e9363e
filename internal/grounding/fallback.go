package grounding

import (
	"fmt"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/analysis"
)

// Fallback is served when an answer fails validation or generation fails.
// It only quotes figures taken straight from res and never names a player.
func Fallback(res *analysis.Result) string {
	if res == nil {
		return "I couldn't load your squad data just now, so I can't give a reliable answer. Please try again shortly."
	}
	transfers := "free transfers"
	if res.FreeTransfers == 1 {
		transfers = "free transfer"
	}
	return fmt.Sprintf(
		"I couldn't produce an answer I can verify against your squad data. What I can confirm: you have %s in the bank, a team value of %s and %d %s available.",
		res.Bank, res.TeamValue, res.FreeTransfers, transfers,
	)
}
