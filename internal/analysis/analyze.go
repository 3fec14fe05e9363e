package analysis

import (
	"github.com/frosttechequities/FPL-chips-optimizer/internal/catalog"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/logger"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/recommend"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/risk"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/squad"
)

// Analyze runs the whole pipeline over one snapshot. It never fails: missing
// players become warnings, and an empty or mostly unresolved squad yields
// the Insufficient outcome with no recommendations.
func Analyze(snap squad.Snapshot, cat *catalog.Catalog, policy recommend.Policy) Outcome {
	resolved, warnings := squad.Build(snap.Picks, cat)
	filtered := squad.Filter(resolved)
	val := Compute(resolved, snap.Bank, snap.FreeTransfers, snap.NextDeadline)

	res := &Result{
		TeamID:         snap.TeamID,
		Bank:           val.Bank,
		TeamValue:      val.TeamValue,
		FreeTransfers:  val.FreeTransfers,
		NextDeadline:   val.NextDeadline,
		MaxPlayerPrice: val.MaxPlayerPrice,
		BenchUpgrades:  make([]recommend.Upgrade, 0),
		StarterTargets: make([]recommend.Upgrade, 0),
		RiskAssessment: risk.InsufficientData,
		Squad:          make([]SquadEntry, 0, len(filtered)),
		Warnings:       warnings,
	}

	if len(filtered) == 0 {
		logger.Infof("[analysis] team %s: no usable picks out of %d", snap.TeamID, len(snap.Picks))
		return Outcome{Kind: Insufficient, Result: res}
	}

	if len(filtered) == len(resolved) {
		res.Warnings = append(res.Warnings, squad.CheckComposition(resolved)...)
	}
	for _, r := range filtered {
		res.Squad = append(res.Squad, SquadEntry{
			Slot:      r.Slot,
			ID:        r.Player.ID,
			Name:      r.Player.Name,
			Club:      r.Player.ClubShort,
			Position:  r.Player.Position.Label(),
			SellPrice: r.SellPrice,
			Captain:   r.IsCaptain,
			Bench:     r.OnBench(),
		})
	}

	if risk.TooSparse(len(filtered), len(resolved)) {
		logger.Infof("[analysis] team %s: only %d of %d picks resolved", snap.TeamID, len(filtered), len(resolved))
		return Outcome{Kind: Insufficient, Result: res}
	}

	recs := recommend.Generate(recommend.Input{
		Squad:          resolved,
		Catalog:        cat,
		Bank:           val.Bank,
		MaxPlayerPrice: val.MaxPlayerPrice,
		FreeTransfers:  val.FreeTransfers,
		Policy:         policy,
	})
	res.BenchUpgrades = recs.BenchUpgrades
	res.StarterTargets = recs.StarterTargets
	res.RiskAssessment = risk.Assess(filtered, len(resolved))

	logger.Debugf("[analysis] team %s: value %s, max price %s, %d bench upgrades, %d starter targets, risk %s",
		snap.TeamID, res.TeamValue, res.MaxPlayerPrice, len(res.BenchUpgrades), len(res.StarterTargets), res.RiskAssessment)
	return Outcome{Kind: Nominal, Result: res}
}
