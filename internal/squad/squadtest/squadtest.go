// Package squadtest provides a legal 15-man squad and a small transfer
// market for tests across the analysis packages.
package squadtest

import (
	"github.com/frosttechequities/FPL-chips-optimizer/internal/catalog"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/money"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/squad"
)

// Club ids used by the fixtures.
const (
	ARS = 1
	LIV = 2
	MCI = 3
	CHE = 4
	NEW = 5
	BRE = 6
	FUL = 7
	EVE = 8
)

var clubShort = map[int]string{
	ARS: "ARS", LIV: "LIV", MCI: "MCI", CHE: "CHE",
	NEW: "NEW", BRE: "BRE", FUL: "FUL", EVE: "EVE",
}

func player(id int, name string, pos catalog.Position, club int, price money.Price, form float64, fixtures ...int) catalog.Player {
	return catalog.Player{
		ID:            id,
		Name:          name,
		Position:      pos,
		ClubID:        club,
		ClubShort:     clubShort[club],
		Price:         price,
		Form:          form,
		PointsPerGame: form,
		Status:        "a",
		Fixtures:      fixtures,
	}
}

// SquadPlayers are elements 1..15, listed in slot order.
func SquadPlayers() []catalog.Player {
	return []catalog.Player{
		player(1, "Raya", catalog.GK, ARS, 55, 4.0, 2, 2, 3),
		player(2, "Robertson", catalog.DEF, LIV, 60, 5.0, 3, 3, 2),
		player(3, "Gvardiol", catalog.DEF, MCI, 55, 4.5, 2, 3, 3),
		player(4, "Colwill", catalog.DEF, CHE, 50, 3.0, 3, 2, 4),
		player(5, "Salah", catalog.MID, LIV, 131, 8.0, 3, 4, 2),
		player(6, "Saka", catalog.MID, ARS, 100, 6.5, 2, 2, 3),
		player(7, "Gordon", catalog.MID, NEW, 75, 5.5, 2, 3, 2),
		player(8, "Mbeumo", catalog.MID, BRE, 65, 4.0, 3, 3, 3),
		player(9, "Haaland", catalog.FWD, MCI, 150, 7.0, 2, 3, 4),
		player(10, "Jackson", catalog.FWD, CHE, 75, 4.0, 3, 4, 3),
		player(11, "Robinson", catalog.DEF, FUL, 45, 2.5, 4, 4, 3),
		player(12, "Pickford", catalog.GK, EVE, 40, 1.0, 4, 5, 4),
		player(13, "Tarkowski", catalog.DEF, EVE, 40, 1.5, 4, 4, 5),
		player(14, "Iwobi", catalog.MID, FUL, 45, 2.0, 3, 4, 4),
		player(15, "Wissa", catalog.FWD, BRE, 45, 1.0, 4, 4, 4),
	}
}

// MarketPlayers are elements 101+, not owned by the squad.
func MarketPlayers() []catalog.Player {
	injured := player(109, "Konate", catalog.DEF, LIV, 55, 6.0, 1, 2, 2)
	injured.Status = "i"
	return []catalog.Player{
		player(101, "Alisson", catalog.GK, LIV, 45, 5.0, 2, 2, 2),
		player(102, "Ederson", catalog.GK, MCI, 50, 4.0, 1, 2, 2),
		player(103, "Gabriel", catalog.DEF, ARS, 45, 4.5, 2, 2, 2),
		player(104, "Burn", catalog.DEF, NEW, 45, 5.5, 2, 1, 2),
		player(105, "Szoboszlai", catalog.MID, LIV, 70, 7.0, 2, 2, 2),
		player(106, "Isak", catalog.FWD, NEW, 65, 6.5, 2, 2, 3),
		player(107, "Marmoush", catalog.FWD, MCI, 140, 9.0, 1, 2, 2),
		player(108, "Odegaard", catalog.MID, ARS, 120, 9.0, 1, 1, 2),
		injured,
		player(110, "Palmer", catalog.MID, CHE, 60, 6.0, 2, 2, 1),
	}
}

// Catalog holds the squad and the market.
func Catalog() *catalog.Catalog {
	return catalog.New(append(SquadPlayers(), MarketPlayers()...))
}

// Picks puts element N in slot N with no selling-price overrides.
func Picks() []squad.Pick {
	players := SquadPlayers()
	out := make([]squad.Pick, 0, len(players))
	for i, p := range players {
		out = append(out, squad.Pick{
			Element:   p.ID,
			Slot:      i + 1,
			IsCaptain: p.ID == 9,
		})
	}
	return out
}

// Snapshot wraps Picks with the given bank and one free transfer.
func Snapshot(bank money.Price) squad.Snapshot {
	return squad.Snapshot{
		TeamID:        "7892155",
		Picks:         Picks(),
		Bank:          bank,
		FreeTransfers: 1,
	}
}
