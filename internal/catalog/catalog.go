// Package catalog is the read-only player dataset every analysis joins against.
//
// A Catalog is never mutated after New returns. Refreshes build a fresh
// Catalog and publish it through Store.Swap, so a request that grabbed
// Store.Current keeps a consistent view for its whole lifetime.
package catalog

import (
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/money"
)

// Position is the FPL element_type.
type Position int

const (
	GK  Position = 1
	DEF Position = 2
	MID Position = 3
	FWD Position = 4
)

func (p Position) Label() string {
	switch p {
	case GK:
		return "GK"
	case DEF:
		return "DEF"
	case MID:
		return "MID"
	case FWD:
		return "FWD"
	default:
		return "UNK"
	}
}

func (p Position) String() string { return p.Label() }

// Player holds the attributes recommendations and grounding need.
type Player struct {
	ID            int         `json:"id"`
	Name          string      `json:"name"`
	FirstName     string      `json:"first_name,omitempty"`
	SecondName    string      `json:"second_name,omitempty"`
	Position      Position    `json:"position_type"`
	ClubID        int         `json:"club_id"`
	ClubShort     string      `json:"club"`
	Price         money.Price `json:"price"`
	OwnershipPct  float64     `json:"ownership_pct"`
	Form          float64     `json:"form"`
	PointsPerGame float64     `json:"points_per_game"`
	TotalPoints   int         `json:"total_points"`
	Status        string      `json:"status"`
	// Fixtures is the ordered sequence of upcoming difficulty ratings (1 easy .. 5 hard).
	Fixtures []int `json:"fixtures"`
}

// Available mirrors the FPL status flag: only "a" players are transfer targets.
func (p *Player) Available() bool {
	return p.Status == "" || p.Status == "a"
}

func (p *Player) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.SecondName)
}

// AvgDifficulty averages the next n fixture ratings. ok is false when the
// player has no upcoming fixtures.
func (p *Player) AvgDifficulty(n int) (avg float64, ok bool) {
	if n <= 0 || len(p.Fixtures) == 0 {
		return 0, false
	}
	if n > len(p.Fixtures) {
		n = len(p.Fixtures)
	}
	sum := 0
	for _, d := range p.Fixtures[:n] {
		sum += d
	}
	return float64(sum) / float64(n), true
}

// Catalog is an immutable id → Player index.
type Catalog struct {
	version   uint64
	loadedAt  time.Time
	gameweeks Gameweeks
	players   map[int]*Player
	order     []int
}

// New copies players into a fresh catalog. Later entries win on duplicate ids.
func New(players []Player) *Catalog {
	c := &Catalog{
		loadedAt: time.Now().UTC(),
		players:  make(map[int]*Player, len(players)),
	}
	for i := range players {
		p := players[i]
		p.Fixtures = append([]int(nil), players[i].Fixtures...)
		c.players[p.ID] = &p
	}
	c.order = make([]int, 0, len(c.players))
	for id := range c.players {
		c.order = append(c.order, id)
	}
	sort.Ints(c.order)
	return c
}

// Lookup returns the shared record; callers must treat it as read-only.
func (c *Catalog) Lookup(id int) (*Player, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.players[id]
	return p, ok
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.players)
}

// Players returns every player ordered by id.
func (c *Catalog) Players() []*Player {
	if c == nil {
		return nil
	}
	out := make([]*Player, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.players[id])
	}
	return out
}

// ByPosition returns players of one position ordered by id.
func (c *Catalog) ByPosition(pos Position) []*Player {
	if c == nil {
		return nil
	}
	out := make([]*Player, 0)
	for _, id := range c.order {
		if p := c.players[id]; p.Position == pos {
			out = append(out, p)
		}
	}
	return out
}

// Version is assigned by Store.Swap; zero means never published.
func (c *Catalog) Version() uint64 {
	if c == nil {
		return 0
	}
	return c.version
}

// Gameweeks is the gameweek context of the bootstrap c was built from; it
// is zero for catalogs made with New.
func (c *Catalog) Gameweeks() Gameweeks {
	if c == nil {
		return Gameweeks{}
	}
	return c.gameweeks
}

func (c *Catalog) LoadedAt() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.loadedAt
}

// Store publishes catalog versions. The zero value is ready to use.
type Store struct {
	cur atomic.Pointer[Catalog]
	seq atomic.Uint64
}

// Current returns the latest published catalog or nil.
func (s *Store) Current() *Catalog {
	return s.cur.Load()
}

// Swap stamps c with the next version and publishes it, returning the
// previous catalog. c must not be published anywhere else.
func (s *Store) Swap(c *Catalog) *Catalog {
	if c == nil {
		return s.cur.Load()
	}
	c.version = s.seq.Add(1)
	return s.cur.Swap(c)
}
