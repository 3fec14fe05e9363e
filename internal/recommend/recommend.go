// Package recommend ranks legal single-swap transfer targets for a squad.
package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/catalog"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/money"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/squad"
)

// PointsHit is the cost of a transfer beyond the free allowance.
const PointsHit = 4

// Weights is one scoring policy. Fixture, form and value components are
// min-max normalised across the pool before weighting.
type Weights struct {
	Fixtures float64 `json:"fixtures" mapstructure:"fixtures"`
	Form     float64 `json:"form" mapstructure:"form"`
	Value    float64 `json:"value" mapstructure:"value"`
	// Horizon is how many upcoming fixtures the fixture component averages.
	Horizon int `json:"horizon" mapstructure:"horizon"`
}

// Policy tunes ranking without changing the legality rules.
type Policy struct {
	Bench   Weights `mapstructure:"bench"`
	Starter Weights `mapstructure:"starter"`
	// PerSlot caps the bench upgrades emitted for each bench slot.
	PerSlot int `mapstructure:"per_slot"`
	// StarterLimit caps the whole starter target list.
	StarterLimit int `mapstructure:"starter_limit"`
}

// DefaultPolicy leans on the fixture run for the bench and on the very next
// fixture plus form for starters.
func DefaultPolicy() Policy {
	return Policy{
		Bench:        Weights{Fixtures: 0.45, Form: 0.35, Value: 0.20, Horizon: 3},
		Starter:      Weights{Fixtures: 0.30, Form: 0.55, Value: 0.15, Horizon: 1},
		PerSlot:      1,
		StarterLimit: 3,
	}
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.Bench == (Weights{}) {
		p.Bench = def.Bench
	}
	if p.Starter == (Weights{}) {
		p.Starter = def.Starter
	}
	if p.Bench.Horizon <= 0 {
		p.Bench.Horizon = def.Bench.Horizon
	}
	if p.Starter.Horizon <= 0 {
		p.Starter.Horizon = def.Starter.Horizon
	}
	if p.PerSlot <= 0 {
		p.PerSlot = def.PerSlot
	}
	if p.StarterLimit <= 0 {
		p.StarterLimit = def.StarterLimit
	}
	return p
}

// PlayerRef is the slice of a player an answer may quote.
type PlayerRef struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Club     string      `json:"club"`
	Position string      `json:"position"`
	Price    money.Price `json:"price"`
}

// Upgrade swaps Outgoing for Incoming. Outgoing.Price is the sell price.
type Upgrade struct {
	Slot       int         `json:"slot"`
	Outgoing   PlayerRef   `json:"outgoing"`
	Incoming   PlayerRef   `json:"incoming"`
	PriceDelta money.Price `json:"price_delta"`
	Score      float64     `json:"score"`
	Gain       float64     `json:"gain"`
	Rationale  string      `json:"rationale"`
	PointsHit  int         `json:"points_hit,omitempty"`
}

type Input struct {
	// Squad is every resolved pick, found or not; unknown ids still block
	// re-buying the same element.
	Squad          []squad.ResolvedPick
	Catalog        *catalog.Catalog
	Bank           money.Price
	MaxPlayerPrice money.Price
	FreeTransfers  int
	Policy         Policy
}

type Result struct {
	BenchUpgrades  []Upgrade `json:"bench_upgrades"`
	StarterTargets []Upgrade `json:"starter_targets"`
}

type components struct {
	fixturesRaw float64
	formRaw     float64
	valueRaw    float64
	avgDiff     float64
	hasFixtures bool
	weighted    float64
}

type scored struct {
	player *catalog.Player
	comp   components
}

// Generate emits, per slot, the candidates that beat the outgoing player.
// Every entry is position-legal, club-cap-legal and priced within both the
// single-swap budget and MaxPlayerPrice. Lists are empty, never nil.
func Generate(in Input) Result {
	res := Result{
		BenchUpgrades:  make([]Upgrade, 0),
		StarterTargets: make([]Upgrade, 0),
	}
	if in.Catalog == nil {
		return res
	}
	policy := in.Policy.withDefaults()
	owned := squad.IDs(in.Squad)
	clubs := squad.ClubCounts(in.Squad)
	starters, bench := squad.SplitBySlot(squad.Filter(in.Squad))

	for _, out := range bench {
		ups := upgradesFor(in, out, owned, clubs, policy.Bench)
		if len(ups) > policy.PerSlot {
			ups = ups[:policy.PerSlot]
		}
		res.BenchUpgrades = append(res.BenchUpgrades, ups...)
	}

	best := make([]Upgrade, 0, len(starters))
	for _, out := range starters {
		ups := upgradesFor(in, out, owned, clubs, policy.Starter)
		if len(ups) > 0 {
			best = append(best, ups[0])
		}
	}
	sort.SliceStable(best, func(i, j int) bool {
		if best[i].Gain != best[j].Gain {
			return best[i].Gain > best[j].Gain
		}
		return best[i].Slot < best[j].Slot
	})
	if len(best) > policy.StarterLimit {
		best = best[:policy.StarterLimit]
	}
	res.StarterTargets = append(res.StarterTargets, best...)
	return res
}

// Eligible reports whether cand may replace out under the budget and club rules.
func Eligible(cand *catalog.Player, out squad.ResolvedPick, owned map[int]bool, clubs map[int]int, bank, maxPrice money.Price) bool {
	if cand == nil || out.Player == nil {
		return false
	}
	if cand.Position != out.Player.Position || !cand.Available() || owned[cand.ID] {
		return false
	}
	if cand.Price > money.Min(maxPrice, bank+out.SellPrice) {
		return false
	}
	after := clubs[cand.ClubID] + 1
	if out.Player.ClubID == cand.ClubID {
		after--
	}
	return after <= squad.MaxPerClub
}

func upgradesFor(in Input, out squad.ResolvedPick, owned map[int]bool, clubs map[int]int, w Weights) []Upgrade {
	pool := make([]scored, 0)
	for _, cand := range in.Catalog.ByPosition(out.Player.Position) {
		if !Eligible(cand, out, owned, clubs, in.Bank, in.MaxPlayerPrice) {
			continue
		}
		pool = append(pool, scored{player: cand, comp: raw(cand, cand.Price, w.Horizon)})
	}
	if len(pool) == 0 {
		return nil
	}
	outgoing := scored{player: out.Player, comp: raw(out.Player, out.SellPrice, w.Horizon)}
	all := append([]scored{outgoing}, pool...)
	weigh(all, w)
	outgoing = all[0]
	pool = all[1:]

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].comp.weighted != pool[j].comp.weighted {
			return pool[i].comp.weighted > pool[j].comp.weighted
		}
		return pool[i].player.ID < pool[j].player.ID
	})

	hit := 0
	if in.FreeTransfers <= 0 {
		hit = PointsHit
	}
	ups := make([]Upgrade, 0, len(pool))
	for _, c := range pool {
		gain := round2(c.comp.weighted - outgoing.comp.weighted)
		if gain <= 0 {
			break
		}
		ups = append(ups, Upgrade{
			Slot:       out.Slot,
			Outgoing:   ref(out.Player, out.SellPrice),
			Incoming:   ref(c.player, c.player.Price),
			PriceDelta: c.player.Price - out.SellPrice,
			Score:      round2(c.comp.weighted),
			Gain:       gain,
			Rationale:  rationale(c, outgoing, w.Horizon),
			PointsHit:  hit,
		})
	}
	return ups
}

// raw scores fixture ease as 5 minus average difficulty, so larger is
// better on every component. Players without fixtures score neutral.
func raw(p *catalog.Player, price money.Price, horizon int) components {
	avg, ok := p.AvgDifficulty(horizon)
	c := components{avgDiff: avg, hasFixtures: ok, formRaw: p.Form}
	if ok {
		c.fixturesRaw = 5 - avg
	} else {
		c.fixturesRaw = 2
	}
	if m := price.Millions(); m > 0 {
		c.valueRaw = p.Form / m
	}
	return c
}

func weigh(players []scored, w Weights) {
	minFix, maxFix := math.Inf(1), math.Inf(-1)
	minForm, maxForm := math.Inf(1), math.Inf(-1)
	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, p := range players {
		minFix = math.Min(minFix, p.comp.fixturesRaw)
		maxFix = math.Max(maxFix, p.comp.fixturesRaw)
		minForm = math.Min(minForm, p.comp.formRaw)
		maxForm = math.Max(maxForm, p.comp.formRaw)
		minVal = math.Min(minVal, p.comp.valueRaw)
		maxVal = math.Max(maxVal, p.comp.valueRaw)
	}
	for i := range players {
		c := &players[i].comp
		c.weighted = w.Fixtures*minMax(c.fixturesRaw, minFix, maxFix) +
			w.Form*minMax(c.formRaw, minForm, maxForm) +
			w.Value*minMax(c.valueRaw, minVal, maxVal)
	}
}

func minMax(v, min, max float64) float64 {
	if math.IsInf(min, 1) || math.IsInf(max, -1) || min == max {
		return 0
	}
	return (v - min) / (max - min)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ref(p *catalog.Player, price money.Price) PlayerRef {
	return PlayerRef{
		ID:       p.ID,
		Name:     p.Name,
		Club:     p.ClubShort,
		Position: p.Position.Label(),
		Price:    price,
	}
}

func rationale(in, out scored, horizon int) string {
	reasons := make([]string, 0, 3)
	if in.comp.hasFixtures {
		reasons = append(reasons, fmt.Sprintf("avg difficulty %.1f over next %d (vs %.1f)", in.comp.avgDiff, horizon, out.comp.avgDiff))
	}
	reasons = append(reasons, fmt.Sprintf("form %.1f (vs %.1f)", in.comp.formRaw, out.comp.formRaw))
	reasons = append(reasons, fmt.Sprintf("costs %s", in.player.Price))
	return strings.Join(reasons, "; ")
}
