// Package squad joins a manager's picks against the player catalog.
package squad

import (
	"fmt"
	"time"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/catalog"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/logger"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/money"
)

const (
	Size         = 15
	StarterSlots = 11
	MaxPerClub   = 3
)

// Quotas is the legal positional make-up of a full squad.
var Quotas = map[catalog.Position]int{
	catalog.GK:  2,
	catalog.DEF: 5,
	catalog.MID: 5,
	catalog.FWD: 3,
}

// Pick is one squad slot as reported by FPL.
type Pick struct {
	Element int `json:"element"`
	// Slot is 1..15; 1..11 start, 12..15 are the bench in priority order.
	Slot int `json:"position"`
	// SellingPrice is the buy-back adjusted sale value; zero means no override.
	SellingPrice  money.Price `json:"selling_price"`
	IsCaptain     bool        `json:"is_captain"`
	IsViceCaptain bool        `json:"is_vice_captain"`
}

func (p Pick) OnBench() bool { return p.Slot > StarterSlots }

// Snapshot is the manager state a single analysis runs over.
type Snapshot struct {
	TeamID        string      `json:"team_id"`
	Picks         []Pick      `json:"picks"`
	Bank          money.Price `json:"bank"`
	FreeTransfers int         `json:"free_transfers"`
	NextDeadline  time.Time   `json:"next_deadline"`
}

// ResolvedPick is a Pick joined with its catalog record. Player is nil when
// the catalog has no matching element.
type ResolvedPick struct {
	Pick
	Player    *catalog.Player `json:"-"`
	SellPrice money.Price     `json:"sell_price"`
}

func (r ResolvedPick) Resolved() bool { return r.Player != nil }

// Warning records a recoverable data-integrity problem.
type Warning struct {
	Element int    `json:"element,omitempty"`
	Slot    int    `json:"slot,omitempty"`
	Message string `json:"message"`
}

// SellPrice applies the resolution order: a non-zero override, else the
// player's current price, else zero.
func SellPrice(p Pick, player *catalog.Player) money.Price {
	if p.SellingPrice > 0 {
		return p.SellingPrice
	}
	if player != nil {
		return player.Price
	}
	return 0
}

// Build resolves every pick in input order. Unknown elements are not an
// error: they come back with a nil Player and a Warning.
func Build(picks []Pick, cat *catalog.Catalog) ([]ResolvedPick, []Warning) {
	out := make([]ResolvedPick, 0, len(picks))
	warnings := make([]Warning, 0)
	for _, p := range picks {
		player, ok := cat.Lookup(p.Element)
		if !ok {
			logger.Warnf("[analysis] player data missing for element %d (slot %d)", p.Element, p.Slot)
			warnings = append(warnings, Warning{
				Element: p.Element,
				Slot:    p.Slot,
				Message: fmt.Sprintf("player data missing for element %d", p.Element),
			})
		}
		out = append(out, ResolvedPick{
			Pick:      p,
			Player:    player,
			SellPrice: SellPrice(p, player),
		})
	}
	return out, warnings
}

// Filter keeps the picks whose player was resolved.
func Filter(resolved []ResolvedPick) []ResolvedPick {
	out := make([]ResolvedPick, 0, len(resolved))
	for _, r := range resolved {
		if r.Resolved() {
			out = append(out, r)
		}
	}
	return out
}

// SplitBySlot separates starters (slot <= 11) from the bench, keeping order.
func SplitBySlot(picks []ResolvedPick) (starters, bench []ResolvedPick) {
	starters = make([]ResolvedPick, 0, StarterSlots)
	bench = make([]ResolvedPick, 0, Size-StarterSlots)
	for _, p := range picks {
		if p.OnBench() {
			bench = append(bench, p)
		} else {
			starters = append(starters, p)
		}
	}
	return starters, bench
}

// ClubCounts counts resolved picks per club.
func ClubCounts(picks []ResolvedPick) map[int]int {
	out := make(map[int]int)
	for _, p := range picks {
		if p.Player == nil {
			continue
		}
		out[p.Player.ClubID]++
	}
	return out
}

// CheckComposition reports squad-shape problems (size, club cap, quotas).
// Input is trusted upstream, so these are warnings for best-effort runs.
func CheckComposition(resolved []ResolvedPick) []Warning {
	warnings := make([]Warning, 0)
	if len(resolved) != Size {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("squad has %d picks, expected %d", len(resolved), Size)})
	}
	for club, n := range ClubCounts(resolved) {
		if n > MaxPerClub {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("club %d has %d picks, cap is %d", club, n, MaxPerClub)})
		}
	}
	byPos := make(map[catalog.Position]int)
	unresolved := 0
	for _, r := range resolved {
		if r.Player == nil {
			unresolved++
			continue
		}
		byPos[r.Player.Position]++
	}
	if unresolved == 0 {
		for _, pos := range []catalog.Position{catalog.GK, catalog.DEF, catalog.MID, catalog.FWD} {
			if byPos[pos] != Quotas[pos] {
				warnings = append(warnings, Warning{Message: fmt.Sprintf("%s count is %d, expected %d", pos.Label(), byPos[pos], Quotas[pos])})
			}
		}
	}
	return warnings
}

// IDs returns every element id in the squad, resolved or not.
func IDs(picks []ResolvedPick) map[int]bool {
	out := make(map[int]bool, len(picks))
	for _, p := range picks {
		out[p.Element] = true
	}
	return out
}
