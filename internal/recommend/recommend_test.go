package recommend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/catalog"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/money"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/recommend"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/squad"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/squad/squadtest"
)

func input(t *testing.T, picks []squad.Pick, bank money.Price) recommend.Input {
	t.Helper()
	cat := squadtest.Catalog()
	resolved, _ := squad.Build(picks, cat)
	var maxSell money.Price
	for _, r := range squad.Filter(resolved) {
		maxSell = money.Max(maxSell, r.SellPrice)
	}
	return recommend.Input{
		Squad:          resolved,
		Catalog:        cat,
		Bank:           bank,
		MaxPlayerPrice: bank + maxSell,
		FreeTransfers:  1,
		Policy:         recommend.DefaultPolicy(),
	}
}

func assertLegal(t *testing.T, in recommend.Input, ups []recommend.Upgrade) {
	t.Helper()
	owned := squad.IDs(in.Squad)
	clubs := squad.ClubCounts(in.Squad)
	for _, u := range ups {
		incoming, ok := in.Catalog.Lookup(u.Incoming.ID)
		require.True(t, ok)
		outgoing, ok := in.Catalog.Lookup(u.Outgoing.ID)
		require.True(t, ok)

		assert.Equal(t, outgoing.Position, incoming.Position, "position for slot %d", u.Slot)
		assert.LessOrEqual(t, int64(u.Incoming.Price), int64(in.MaxPlayerPrice))
		assert.LessOrEqual(t, int64(u.Incoming.Price), int64(in.Bank+u.Outgoing.Price))
		assert.False(t, owned[incoming.ID], "incoming %d already owned", incoming.ID)
		assert.True(t, incoming.Available())

		after := clubs[incoming.ClubID] + 1
		if outgoing.ClubID == incoming.ClubID {
			after--
		}
		assert.LessOrEqual(t, after, squad.MaxPerClub)
		assert.Equal(t, u.Incoming.Price-u.Outgoing.Price, u.PriceDelta)
		assert.Greater(t, u.Gain, 0.0)
	}
}

func TestGenerateBenchUpgrades(t *testing.T) {
	in := input(t, squadtest.Picks(), 20)
	res := recommend.Generate(in)

	require.Len(t, res.BenchUpgrades, 4)
	assertLegal(t, in, res.BenchUpgrades)
	assertLegal(t, in, res.StarterTargets)

	want := []struct {
		slot, out, in int
	}{
		{12, 12, 101},
		{13, 13, 104},
		{14, 14, 110},
		{15, 15, 106},
	}
	for i, w := range want {
		u := res.BenchUpgrades[i]
		assert.Equal(t, w.slot, u.Slot)
		assert.Equal(t, w.out, u.Outgoing.ID)
		assert.Equal(t, w.in, u.Incoming.ID)
		assert.Zero(t, u.PointsHit)
		assert.NotEmpty(t, u.Rationale)
	}
	assert.Equal(t, money.Price(5), res.BenchUpgrades[0].PriceDelta)
	assert.Equal(t, "GK", res.BenchUpgrades[0].Incoming.Position)
	assert.LessOrEqual(t, len(res.StarterTargets), 3)
}

func TestGenerateRespectsClubCap(t *testing.T) {
	picks := squadtest.Picks()
	// Gordon (NEW) becomes Szoboszlai, the third LIV pick.
	picks[6].Element = 105
	in := input(t, picks, 20)
	res := recommend.Generate(in)

	require.NotEmpty(t, res.BenchUpgrades)
	assert.Equal(t, 12, res.BenchUpgrades[0].Slot)
	assert.Equal(t, 102, res.BenchUpgrades[0].Incoming.ID)
	for _, u := range append(res.BenchUpgrades, res.StarterTargets...) {
		assert.NotEqual(t, "LIV", u.Incoming.Club, "slot %d", u.Slot)
	}
	assertLegal(t, in, res.BenchUpgrades)
}

func TestGenerateNoBudgetGivesEmptyLists(t *testing.T) {
	in := input(t, squadtest.Picks(), 0)
	res := recommend.Generate(in)
	require.NotNil(t, res.BenchUpgrades)
	assert.Empty(t, res.BenchUpgrades)
	require.NotNil(t, res.StarterTargets)
	assertLegal(t, in, res.StarterTargets)
}

func TestGenerateNilCatalog(t *testing.T) {
	res := recommend.Generate(recommend.Input{})
	assert.NotNil(t, res.BenchUpgrades)
	assert.NotNil(t, res.StarterTargets)
	assert.Empty(t, res.BenchUpgrades)
}

func TestGeneratePointsHitWithoutFreeTransfers(t *testing.T) {
	in := input(t, squadtest.Picks(), 20)
	in.FreeTransfers = 0
	res := recommend.Generate(in)
	require.NotEmpty(t, res.BenchUpgrades)
	for _, u := range append(res.BenchUpgrades, res.StarterTargets...) {
		assert.Equal(t, recommend.PointsHit, u.PointsHit)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	in := input(t, squadtest.Picks(), 20)
	assert.Equal(t, recommend.Generate(in), recommend.Generate(in))
}

func TestGenerateSkipsWorseCandidates(t *testing.T) {
	cat := catalog.New([]catalog.Player{
		{ID: 1, Name: "Keeper", Position: catalog.GK, ClubID: 1, Price: 40, Form: 9, Status: "a", Fixtures: []int{1, 1, 1}},
		{ID: 2, Name: "Backup", Position: catalog.GK, ClubID: 2, Price: 40, Form: 2, Status: "a", Fixtures: []int{5, 5, 5}},
	})
	resolved, _ := squad.Build([]squad.Pick{{Element: 1, Slot: 12}}, cat)
	res := recommend.Generate(recommend.Input{
		Squad:          resolved,
		Catalog:        cat,
		Bank:           10,
		MaxPlayerPrice: 50,
		FreeTransfers:  1,
	})
	assert.Empty(t, res.BenchUpgrades)
}

func TestGenerateExcludesUnresolvedOwnedIDs(t *testing.T) {
	cat := squadtest.Catalog()
	picks := squadtest.Picks()
	resolved, _ := squad.Build(picks, cat)
	// An unresolved pick that shares an id with a market player still counts as owned.
	resolved = append(resolved, squad.ResolvedPick{Pick: squad.Pick{Element: 101, Slot: 16}})
	res := recommend.Generate(recommend.Input{
		Squad:          resolved,
		Catalog:        cat,
		Bank:           20,
		MaxPlayerPrice: 170,
		FreeTransfers:  1,
	})
	for _, u := range res.BenchUpgrades {
		assert.NotEqual(t, 101, u.Incoming.ID)
	}
}

func TestEligible(t *testing.T) {
	out := squad.ResolvedPick{
		Pick:      squad.Pick{Element: 1, Slot: 12},
		Player:    &catalog.Player{ID: 1, Position: catalog.GK, ClubID: 1, Price: 40},
		SellPrice: 40,
	}
	owned := map[int]bool{1: true, 7: true}
	clubs := map[int]int{1: 3, 2: 3, 3: 1}
	tests := []struct {
		name string
		cand *catalog.Player
		want bool
	}{
		{"Legal", &catalog.Player{ID: 2, Position: catalog.GK, ClubID: 3, Price: 50}, true},
		{"WrongPosition", &catalog.Player{ID: 2, Position: catalog.DEF, ClubID: 3, Price: 40}, false},
		{"Owned", &catalog.Player{ID: 7, Position: catalog.GK, ClubID: 3, Price: 40}, false},
		{"Unavailable", &catalog.Player{ID: 2, Position: catalog.GK, ClubID: 3, Price: 40, Status: "i"}, false},
		{"OverBudget", &catalog.Player{ID: 2, Position: catalog.GK, ClubID: 3, Price: 51}, false},
		{"ClubFull", &catalog.Player{ID: 2, Position: catalog.GK, ClubID: 2, Price: 40}, false},
		{"SameClubSwap", &catalog.Player{ID: 2, Position: catalog.GK, ClubID: 1, Price: 40}, true},
		{"Nil", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, recommend.Eligible(tc.cand, out, owned, clubs, 10, 60))
		})
	}
}
