// Package analysis turns a squad snapshot into the immutable result every
// answer is grounded on.
package analysis

import (
	"time"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/money"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/recommend"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/risk"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/squad"
)

// Kind tags an Outcome.
type Kind string

const (
	Nominal      Kind = "nominal"
	Insufficient Kind = "insufficient"
)

// SquadEntry is one resolved pick as answers may describe it.
type SquadEntry struct {
	Slot      int         `json:"slot"`
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Club      string      `json:"club"`
	Position  string      `json:"position"`
	SellPrice money.Price `json:"sell_price"`
	Captain   bool        `json:"captain,omitempty"`
	Bench     bool        `json:"bench,omitempty"`
}

// Result is built once per request and never mutated afterwards.
type Result struct {
	TeamID         string              `json:"team_id,omitempty"`
	Bank           money.Price         `json:"bank"`
	TeamValue      money.Price         `json:"team_value"`
	FreeTransfers  int                 `json:"free_transfers"`
	NextDeadline   time.Time           `json:"next_deadline"`
	MaxPlayerPrice money.Price         `json:"max_player_price"`
	BenchUpgrades  []recommend.Upgrade `json:"bench_upgrades"`
	StarterTargets []recommend.Upgrade `json:"starter_targets"`
	RiskAssessment risk.Label          `json:"risk_assessment"`
	Squad          []SquadEntry        `json:"squad"`
	Warnings       []squad.Warning     `json:"warnings"`
}

// Outcome is either a full analysis or the minimal insufficient-data shape.
type Outcome struct {
	Kind   Kind    `json:"kind"`
	Result *Result `json:"result"`
}

// Names lists every player name the result mentions.
func (r *Result) Names() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]bool)
	out := make([]string, 0, len(r.Squad)+2*(len(r.BenchUpgrades)+len(r.StarterTargets)))
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, e := range r.Squad {
		add(e.Name)
	}
	for _, list := range [][]recommend.Upgrade{r.BenchUpgrades, r.StarterTargets} {
		for _, u := range list {
			add(u.Outgoing.Name)
			add(u.Incoming.Name)
		}
	}
	return out
}

// IDs lists every element id the result mentions.
func (r *Result) IDs() map[int]bool {
	out := make(map[int]bool)
	if r == nil {
		return out
	}
	for _, e := range r.Squad {
		out[e.ID] = true
	}
	for _, list := range [][]recommend.Upgrade{r.BenchUpgrades, r.StarterTargets} {
		for _, u := range list {
			out[u.Outgoing.ID] = true
			out[u.Incoming.ID] = true
		}
	}
	return out
}
