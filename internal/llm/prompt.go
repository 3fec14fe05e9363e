package llm

import (
	"fmt"
	"strings"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/analysis"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/money"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/recommend"
)

// Context is the gameweek frame an answer is written in.
type Context struct {
	Season    string
	CurrentGW int
	NextGW    int
}

const systemTemplate = `You are a Fantasy Premier League assistant for the %s season. The current gameweek is %d and the next is %d.
Answer only from the FACTS block. Never mention a player who is not listed there and never refer to other seasons or to gameweeks you were not given.
Write every amount in pounds with one decimal and an m suffix, for example %s. Keep answers under 150 words.`

// Prompt renders the system and user prompts for question. Every figure and
// name in them comes from res.
func Prompt(res *analysis.Result, frame Context, question string) (system, user string) {
	system = fmt.Sprintf(systemTemplate, frame.Season, frame.CurrentGW, frame.NextGW, money.Price(123))

	var b strings.Builder
	b.WriteString("FACTS\n")
	fmt.Fprintf(&b, "Bank: %s\n", res.Bank)
	fmt.Fprintf(&b, "Team value: %s\n", res.TeamValue)
	fmt.Fprintf(&b, "Free transfers: %d\n", res.FreeTransfers)
	if !res.NextDeadline.IsZero() {
		fmt.Fprintf(&b, "Next deadline: %s\n", res.NextDeadline.UTC().Format("Mon 2 Jan 15:04 MST"))
	}
	fmt.Fprintf(&b, "Most you can spend on one incoming player: %s\n", res.MaxPlayerPrice)
	fmt.Fprintf(&b, "Squad risk: %s\n", res.RiskAssessment)

	b.WriteString("\nSquad:\n")
	for _, e := range res.Squad {
		role := "starter"
		if e.Bench {
			role = "bench"
		}
		if e.Captain {
			role += ", captain"
		}
		fmt.Fprintf(&b, "- %s (%s, %s) sells for %s, %s\n", e.Name, e.Club, e.Position, e.SellPrice, role)
	}

	writeUpgrades(&b, "Bench upgrades", res.BenchUpgrades)
	writeUpgrades(&b, "Starter targets", res.StarterTargets)

	if len(res.Warnings) > 0 {
		b.WriteString("\nData caveats:\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "- %s\n", w.Message)
		}
	}

	fmt.Fprintf(&b, "\nQUESTION\n%s\n", strings.TrimSpace(question))
	return system, b.String()
}

func writeUpgrades(b *strings.Builder, title string, ups []recommend.Upgrade) {
	fmt.Fprintf(b, "\n%s:\n", title)
	if len(ups) == 0 {
		b.WriteString("- none within budget\n")
		return
	}
	for _, u := range ups {
		fmt.Fprintf(b, "- %s out, %s (%s) in for %s (%s): %s",
			u.Outgoing.Name, u.Incoming.Name, u.Incoming.Club, u.Incoming.Price, u.PriceDelta.Signed(), u.Rationale)
		if u.PointsHit > 0 {
			fmt.Fprintf(b, "; costs a -%d points hit", u.PointsHit)
		}
		b.WriteString("\n")
	}
}
