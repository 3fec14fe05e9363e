package analysis

import (
	"time"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/money"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/squad"
)

// Valuation is the budget side of a snapshot.
type Valuation struct {
	Bank          money.Price
	TeamValue     money.Price
	FreeTransfers int
	NextDeadline  time.Time
	// MaxPlayerPrice is the single-swap ceiling: bank plus the most valuable
	// sellable pick, or just the bank when nothing resolved.
	MaxPlayerPrice money.Price
	// Usable counts picks whose player was found.
	Usable int
}

// Compute sums every pick's sell price, unresolved ones included, and
// derives the affordability ceiling from the resolved subset.
func Compute(resolved []squad.ResolvedPick, bank money.Price, freeTransfers int, deadline time.Time) Valuation {
	v := Valuation{
		Bank:           bank,
		FreeTransfers:  freeTransfers,
		NextDeadline:   deadline,
		MaxPlayerPrice: bank,
	}
	var maxSell money.Price
	for _, r := range resolved {
		v.TeamValue += r.SellPrice
		if !r.Resolved() {
			continue
		}
		if v.Usable == 0 || r.SellPrice > maxSell {
			maxSell = r.SellPrice
		}
		v.Usable++
	}
	if v.Usable > 0 {
		v.MaxPlayerPrice = bank + maxSell
	}
	return v
}
