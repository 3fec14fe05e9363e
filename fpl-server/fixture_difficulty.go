package main

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/app"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/catalog"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/risk"
)

type FixtureDifficultyArgs struct {
	Horizon    int  `json:"horizon,omitempty" jsonschema:"Upcoming fixtures to average (default 5)"`
	Limit      int  `json:"limit,omitempty" jsonschema:"Limit clubs returned (0 = all)"`
	IncludeRaw bool `json:"include_raw,omitempty" jsonschema:"Include the per-fixture ratings"`
}

type FixtureDifficultyOutput struct {
	Season  string                  `json:"season"`
	NextGW  int                     `json:"next_gw"`
	Horizon int                     `json:"horizon"`
	Clubs   []FixtureDifficultyItem `json:"clubs"`
}

type FixtureDifficultyItem struct {
	Rank      int     `json:"rank"`
	TeamID    int     `json:"team_id"`
	TeamShort string  `json:"team_short"`
	Average   float64 `json:"average"`
	// HardRun marks clubs whose run averages at or above the risk threshold.
	HardRun  bool  `json:"hard_run"`
	Fixtures []int `json:"fixtures,omitempty"`
}

// buildFixtureDifficulty ranks clubs from easiest to hardest upcoming run.
func buildFixtureDifficulty(ctx context.Context, a *app.App, args FixtureDifficultyArgs) (FixtureDifficultyOutput, error) {
	h := args.Horizon
	if h <= 0 {
		h = 5
	}
	cat, meta, err := a.Source.Catalog(ctx, false)
	if err != nil {
		return FixtureDifficultyOutput{}, err
	}

	rows := rankClubs(cat, h)
	limit := args.Limit
	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}
	out := FixtureDifficultyOutput{
		Season:  meta.Season,
		NextGW:  meta.NextGW,
		Horizon: h,
		Clubs:   make([]FixtureDifficultyItem, 0, limit),
	}
	for i := 0; i < limit; i++ {
		r := rows[i]
		r.Rank = i + 1
		if !args.IncludeRaw {
			r.Fixtures = nil
		}
		out.Clubs = append(out.Clubs, r)
	}
	return out, nil
}

// rankClubs takes each club's ratings from its lowest-id player; every player
// of a club carries the same fixture list. Easiest run first.
func rankClubs(cat *catalog.Catalog, horizon int) []FixtureDifficultyItem {
	seen := make(map[int]bool)
	out := make([]FixtureDifficultyItem, 0, 20)
	for _, p := range cat.Players() {
		if seen[p.ClubID] {
			continue
		}
		seen[p.ClubID] = true
		avg, ok := p.AvgDifficulty(horizon)
		if !ok {
			continue
		}
		n := horizon
		if n > len(p.Fixtures) {
			n = len(p.Fixtures)
		}
		avg = math.Round(avg*100) / 100
		out = append(out, FixtureDifficultyItem{
			TeamID:    p.ClubID,
			TeamShort: p.ClubShort,
			Average:   avg,
			HardRun:   avg >= risk.HardFixtureDifficulty,
			Fixtures:  append([]int(nil), p.Fixtures[:n]...),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Average != out[j].Average {
			return out[i].Average < out[j].Average
		}
		return out[i].TeamShort < out[j].TeamShort
	})
	return out
}

func (o FixtureDifficultyOutput) String() string {
	if len(o.Clubs) == 0 {
		return "no upcoming fixtures"
	}
	return fmt.Sprintf("%d clubs over %d fixtures from GW%d, easiest %s (%.2f)", len(o.Clubs), o.Horizon, o.NextGW, o.Clubs[0].TeamShort, o.Clubs[0].Average)
}
