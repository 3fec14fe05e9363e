// Package risk classifies a squad's exposure from its composition alone.
package risk

import (
	"github.com/frosttechequities/FPL-chips-optimizer/internal/money"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/squad"
)

type Label string

const (
	InsufficientData Label = "insufficient-data"
	Low              Label = "low"
	Medium           Label = "medium"
	High             Label = "high"
)

// Thresholds. Changing one changes labels, so each has a test.
const (
	// MaxUnresolvedShare is the share of unresolved picks above which no
	// label is given.
	MaxUnresolvedShare = 0.20
	// ConcentrationClubCount is the per-club count that starts to count as
	// concentration.
	ConcentrationClubCount = 3
	// MinBenchValueShare is the bench share of team value below which the
	// bench is considered too thin to cover absences.
	MinBenchValueShare = 0.12
	// ClusterHorizon and HardFixtureDifficulty define a starter with a hard run.
	ClusterHorizon        = 3
	HardFixtureDifficulty = 4.0
	// ClusterShareMedium and ClusterShareHigh grade the share of starters
	// with a hard run.
	ClusterShareMedium = 0.3
	ClusterShareHigh   = 0.5
)

// Signals is the breakdown behind a label.
type Signals struct {
	MaxClubCount       int     `json:"max_club_count"`
	ConcentrationScore int     `json:"concentration_score"`
	BenchValueShare    float64 `json:"bench_value_share"`
	BenchScore         int     `json:"bench_score"`
	HardRunShare       float64 `json:"hard_run_share"`
	ClusterScore       int     `json:"cluster_score"`
}

func (s Signals) Points() int {
	return s.ConcentrationScore + s.BenchScore + s.ClusterScore
}

// Label maps points to a label; more points never give a lower label.
func (s Signals) Label() Label {
	switch p := s.Points(); {
	case p <= 0:
		return Low
	case p <= 2:
		return Medium
	default:
		return High
	}
}

// Assess labels the usable squad. total is the number of picks before
// filtering and is only used for the unresolved-share threshold.
func Assess(filtered []squad.ResolvedPick, total int) Label {
	if TooSparse(len(filtered), total) {
		return InsufficientData
	}
	return Measure(filtered).Label()
}

// TooSparse reports whether usable out of total picks is too few to
// describe the squad: none at all, or more than MaxUnresolvedShare missing.
func TooSparse(usable, total int) bool {
	if usable <= 0 || total <= 0 {
		return true
	}
	return float64(total-usable)/float64(total) > MaxUnresolvedShare
}

// Measure computes the composition signals of the usable squad.
func Measure(filtered []squad.ResolvedPick) Signals {
	var s Signals
	for _, n := range squad.ClubCounts(filtered) {
		if n > s.MaxClubCount {
			s.MaxClubCount = n
		}
	}
	if s.MaxClubCount >= ConcentrationClubCount {
		s.ConcentrationScore = 1
	}
	if s.MaxClubCount > squad.MaxPerClub {
		s.ConcentrationScore = 2
	}

	starters, bench := squad.SplitBySlot(filtered)
	var teamValue, benchValue money.Price
	for _, p := range filtered {
		teamValue += p.SellPrice
	}
	for _, p := range bench {
		benchValue += p.SellPrice
	}
	if teamValue > 0 {
		s.BenchValueShare = float64(benchValue) / float64(teamValue)
		if s.BenchValueShare < MinBenchValueShare {
			s.BenchScore = 1
		}
	}

	withFixtures, hard := 0, 0
	for _, p := range starters {
		avg, ok := p.Player.AvgDifficulty(ClusterHorizon)
		if !ok {
			continue
		}
		withFixtures++
		if avg >= HardFixtureDifficulty {
			hard++
		}
	}
	if withFixtures > 0 {
		s.HardRunShare = float64(hard) / float64(withFixtures)
		switch {
		case s.HardRunShare >= ClusterShareHigh:
			s.ClusterScore = 2
		case s.HardRunShare >= ClusterShareMedium:
			s.ClusterScore = 1
		}
	}
	return s
}
