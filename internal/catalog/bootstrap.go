package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/money"
)

// Bootstrap is the subset of /bootstrap-static/ the copilot reads.
type Bootstrap struct {
	Elements []Element `json:"elements"`
	Teams    []Team    `json:"teams"`
	Events   []Event   `json:"events"`
}

type Element struct {
	ID                int       `json:"id"`
	WebName           string    `json:"web_name"`
	FirstName         string    `json:"first_name"`
	SecondName        string    `json:"second_name"`
	Team              int       `json:"team"`
	ElementType       int       `json:"element_type"`
	NowCost           int       `json:"now_cost"`
	SelectedByPercent flexFloat `json:"selected_by_percent"`
	Form              flexFloat `json:"form"`
	PointsPerGame     flexFloat `json:"points_per_game"`
	TotalPoints       int       `json:"total_points"`
	Status            string    `json:"status"`
}

type Team struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

type Event struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DeadlineTime string `json:"deadline_time"`
	IsCurrent    bool   `json:"is_current"`
	IsNext       bool   `json:"is_next"`
	Finished     bool   `json:"finished"`
}

// Deadline parses DeadlineTime; the zero time means unknown.
func (e Event) Deadline() time.Time {
	t, err := time.Parse(time.RFC3339, e.DeadlineTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Fixture is one entry of /fixtures/. Event is nil for unscheduled matches.
type Fixture struct {
	ID              int    `json:"id"`
	Event           *int   `json:"event"`
	TeamH           int    `json:"team_h"`
	TeamA           int    `json:"team_a"`
	TeamHDifficulty int    `json:"team_h_difficulty"`
	TeamADifficulty int    `json:"team_a_difficulty"`
	KickoffTime     string `json:"kickoff_time"`
	Finished        bool   `json:"finished"`
}

// flexFloat decodes FPL's stringly numbers ("5.3") as well as plain numbers.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

func DecodeBootstrap(raw []byte) (Bootstrap, error) {
	var b Bootstrap
	if err := json.Unmarshal(raw, &b); err != nil {
		return Bootstrap{}, fmt.Errorf("parse bootstrap-static: %w", err)
	}
	if len(b.Elements) == 0 {
		return Bootstrap{}, fmt.Errorf("bootstrap-static has no elements")
	}
	return b, nil
}

// DecodeFixtures accepts the /fixtures/ array. An empty body means no fixtures.
func DecodeFixtures(raw []byte) ([]Fixture, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var out []Fixture
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return out, nil
}

// CurrentEvent returns the is_current event, falling back to the last
// finished one. ok is false before the season starts.
func (b Bootstrap) CurrentEvent() (Event, bool) {
	var last Event
	found := false
	for _, e := range b.Events {
		if e.IsCurrent {
			return e, true
		}
		if e.Finished && e.ID > last.ID {
			last = e
			found = true
		}
	}
	return last, found
}

// NextEvent returns the is_next event or the first unfinished one.
func (b Bootstrap) NextEvent() (Event, bool) {
	var first Event
	found := false
	for _, e := range b.Events {
		if e.IsNext {
			return e, true
		}
		if !e.Finished && !e.IsCurrent && (!found || e.ID < first.ID) {
			first = e
			found = true
		}
	}
	return first, found
}

// Season derives the "2025/26" label from the first event deadline.
func (b Bootstrap) Season() string {
	var first Event
	for _, e := range b.Events {
		if first.ID == 0 || e.ID < first.ID {
			first = e
		}
	}
	d := first.Deadline()
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d/%02d", d.Year(), (d.Year()+1)%100)
}

// Gameweeks is where the season stands in one bootstrap.
type Gameweeks struct {
	Current      int
	Next         int
	Season       string
	NextDeadline time.Time
}

func (b Bootstrap) Gameweeks() Gameweeks {
	gw := Gameweeks{Season: b.Season()}
	if cur, ok := b.CurrentEvent(); ok {
		gw.Current = cur.ID
	}
	if next, ok := b.NextEvent(); ok {
		gw.Next = next.ID
		gw.NextDeadline = next.Deadline()
	}
	return gw
}

// Build joins elements, teams and upcoming fixtures into a Catalog. Each
// player's Fixtures holds up to horizon difficulty ratings from fromGW on,
// ordered by gameweek then kickoff.
func Build(b Bootstrap, fixtures []Fixture, fromGW int, horizon int) *Catalog {
	teamShort := make(map[int]string, len(b.Teams))
	for _, t := range b.Teams {
		teamShort[t.ID] = t.ShortName
	}
	difficulty := fixtureIndex(fixtures, fromGW, horizon)

	players := make([]Player, 0, len(b.Elements))
	for _, e := range b.Elements {
		if e.ID == 0 {
			continue
		}
		name := strings.TrimSpace(e.WebName)
		if name == "" {
			name = strings.TrimSpace(e.FirstName + " " + e.SecondName)
		}
		players = append(players, Player{
			ID:            e.ID,
			Name:          name,
			FirstName:     e.FirstName,
			SecondName:    e.SecondName,
			Position:      Position(e.ElementType),
			ClubID:        e.Team,
			ClubShort:     teamShort[e.Team],
			Price:         money.Price(e.NowCost),
			OwnershipPct:  float64(e.SelectedByPercent),
			Form:          float64(e.Form),
			PointsPerGame: float64(e.PointsPerGame),
			TotalPoints:   e.TotalPoints,
			Status:        e.Status,
			Fixtures:      difficulty[e.Team],
		})
	}
	c := New(players)
	c.gameweeks = b.Gameweeks()
	return c
}

func fixtureIndex(fixtures []Fixture, fromGW int, horizon int) map[int][]int {
	upcoming := make([]Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		if f.Finished || f.Event == nil {
			continue
		}
		if fromGW > 0 && *f.Event < fromGW {
			continue
		}
		upcoming = append(upcoming, f)
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		if *upcoming[i].Event != *upcoming[j].Event {
			return *upcoming[i].Event < *upcoming[j].Event
		}
		if upcoming[i].KickoffTime != upcoming[j].KickoffTime {
			return upcoming[i].KickoffTime < upcoming[j].KickoffTime
		}
		return upcoming[i].ID < upcoming[j].ID
	})

	out := make(map[int][]int)
	add := func(team, rating int) {
		if horizon > 0 && len(out[team]) >= horizon {
			return
		}
		out[team] = append(out[team], rating)
	}
	for _, f := range upcoming {
		add(f.TeamH, f.TeamHDifficulty)
		add(f.TeamA, f.TeamADifficulty)
	}
	return out
}
