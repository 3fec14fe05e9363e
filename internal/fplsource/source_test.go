package fplsource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/catalog"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/fetch"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/money"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/store"
)

const bootstrapBody = `{
  "elements": [
    {"id": 1, "web_name": "Raya", "team": 1, "element_type": 1, "now_cost": 55, "form": "4.5", "status": "a"},
    {"id": 2, "web_name": "Salah", "team": 2, "element_type": 3, "now_cost": 131, "form": "8.1", "status": "a"}
  ],
  "teams": [
    {"id": 1, "name": "Arsenal", "short_name": "ARS"},
    {"id": 2, "name": "Liverpool", "short_name": "LIV"}
  ],
  "events": [
    {"id": 1, "deadline_time": "2025-08-15T17:30:00Z", "finished": true},
    {"id": 2, "deadline_time": "2025-08-22T17:30:00Z", "is_current": true},
    {"id": 3, "deadline_time": "2025-08-29T17:30:00Z", "is_next": true}
  ]
}`

const fixturesBody = `[
  {"id": 20, "event": 3, "team_h": 1, "team_a": 2, "team_h_difficulty": 2, "team_a_difficulty": 3}
]`

const entryBody = `{"id": 7, "current_event": 2, "last_deadline_bank": 9}`

const picksBody = `{
  "picks": [
    {"element": 1, "position": 1, "multiplier": 1, "is_captain": false},
    {"element": 2, "position": 12, "multiplier": 0, "is_captain": true}
  ],
  "entry_history": {"bank": 15, "value": 1000}
}`

const myTeamBody = `{
  "picks": [
    {"element": 1, "position": 1, "selling_price": 54, "purchase_price": 53},
    {"element": 2, "position": 12, "selling_price": 128, "purchase_price": 125}
  ],
  "transfers": {"bank": 23, "limit": 2, "made": 1, "status": "cost"}
}`

type fakeFPL struct {
	mu     sync.Mutex
	bodies map[string]string
	codes  map[string]int
	hits   map[string]int
}

func newFakeFPL() *fakeFPL {
	return &fakeFPL{
		bodies: map[string]string{
			"/bootstrap-static/":      bootstrapBody,
			"/fixtures/":              fixturesBody,
			"/entry/7/":               entryBody,
			"/entry/7/event/2/picks/": picksBody,
			"/my-team/7/":             myTeamBody,
		},
		codes: map[string]int{},
		hits:  map[string]int{},
	}
}

func (f *fakeFPL) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[r.URL.Path]++
	if code, ok := f.codes[r.URL.Path]; ok {
		http.Error(w, "upstream says no", code)
		return
	}
	body, ok := f.bodies[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func (f *fakeFPL) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func newSource(t *testing.T, fake *fakeFPL, cookie string) *Source {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	client := fetch.NewClient(store.NewJSONStore(t.TempDir()))
	client.BaseURL = srv.URL
	client.Sleep = 0
	client.Cookie = cookie
	return New(client, &catalog.Store{}, Options{FixtureHorizon: 3})
}

func TestLoadPublic(t *testing.T) {
	src := newSource(t, newFakeFPL(), "")
	b, err := src.Load(context.Background(), "7", false)
	require.NoError(t, err)

	assert.Equal(t, "7", b.Snapshot.TeamID)
	assert.Equal(t, money.Price(15), b.Snapshot.Bank)
	assert.Equal(t, 1, b.Snapshot.FreeTransfers)
	require.Len(t, b.Snapshot.Picks, 2)
	assert.Equal(t, 12, b.Snapshot.Picks[1].Slot)
	assert.True(t, b.Snapshot.Picks[1].IsCaptain)
	assert.Zero(t, b.Snapshot.Picks[1].SellingPrice)
	assert.Len(t, b.Warnings, 2)

	assert.Equal(t, Meta{
		CurrentGW:    2,
		NextGW:       3,
		Season:       "2025/26",
		NextDeadline: time.Date(2025, 8, 29, 17, 30, 0, 0, time.UTC),
	}, b.Meta)
	assert.Equal(t, b.Meta.NextDeadline, b.Snapshot.NextDeadline)
	assert.Same(t, b.Catalog, src.Store().Current())
	salah, ok := b.Catalog.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, []int{3}, salah.Fixtures)
}

func TestLoadAuthenticated(t *testing.T) {
	fake := newFakeFPL()
	src := newSource(t, fake, "pl_profile=abc")
	b, err := src.Load(context.Background(), "7", false)
	require.NoError(t, err)

	assert.Equal(t, money.Price(23), b.Snapshot.Bank)
	assert.Equal(t, 1, b.Snapshot.FreeTransfers)
	assert.Equal(t, money.Price(128), b.Snapshot.Picks[1].SellingPrice)
	assert.Empty(t, b.Warnings)
	assert.Zero(t, fake.count("/entry/7/event/2/picks/"))
}

func TestParseMyTeamUnlimitedTransfers(t *testing.T) {
	snap, err := parseMyTeam([]byte(`{"picks":[],"transfers":{"bank":0,"limit":null,"made":0}}`))
	require.NoError(t, err)
	assert.Equal(t, 15, snap.FreeTransfers)

	_, err = parseMyTeam([]byte(`{"picks":[]}`))
	assert.Error(t, err)
}

func TestLoadFallsBackWhenMyTeamRejected(t *testing.T) {
	fake := newFakeFPL()
	fake.codes["/my-team/7/"] = http.StatusForbidden
	src := newSource(t, fake, "pl_profile=expired")
	b, err := src.Load(context.Background(), "7", false)
	require.NoError(t, err)

	assert.Equal(t, money.Price(15), b.Snapshot.Bank)
	assert.Len(t, b.Warnings, 3)
	assert.Equal(t, 1, fake.count("/entry/7/event/2/picks/"))
}

func TestLoadUpstreamFailure(t *testing.T) {
	fake := newFakeFPL()
	fake.codes["/bootstrap-static/"] = http.StatusServiceUnavailable
	src := newSource(t, fake, "")

	_, err := src.Load(context.Background(), "7", false)
	require.Error(t, err)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "bootstrap-static", fe.Op)
	var se *fetch.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Nil(t, src.Store().Current())
}

func TestLoadInvalidTeamID(t *testing.T) {
	src := newSource(t, newFakeFPL(), "")
	for _, id := range []string{"", "abc", "-3", "0"} {
		_, err := src.Load(context.Background(), id, false)
		assert.ErrorIs(t, err, ErrInvalidTeamID, id)
	}
}

func TestCatalogIsReusedUntilForced(t *testing.T) {
	fake := newFakeFPL()
	src := newSource(t, fake, "")
	ctx := context.Background()

	first, _, err := src.Catalog(ctx, false)
	require.NoError(t, err)
	second, _, err := src.Catalog(ctx, false)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, fake.count("/bootstrap-static/"))

	third, _, err := src.Catalog(ctx, true)
	require.NoError(t, err)
	assert.Greater(t, third.Version(), first.Version())
	assert.Equal(t, 2, fake.count("/bootstrap-static/"))
}

func TestMetaTravelsWithPublishedCatalog(t *testing.T) {
	fake := newFakeFPL()
	src := newSource(t, fake, "")
	ctx := context.Background()

	first, meta, err := src.Catalog(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 3, meta.NextGW)

	// The next gameweek lands in the cache and the watcher publishes it.
	advanced := strings.NewReplacer(
		`"id": 2, "deadline_time": "2025-08-22T17:30:00Z", "is_current": true`, `"id": 2, "deadline_time": "2025-08-22T17:30:00Z", "finished": true`,
		`"id": 3, "deadline_time": "2025-08-29T17:30:00Z", "is_next": true`, `"id": 3, "deadline_time": "2025-08-29T17:30:00Z", "is_current": true}, {"id": 4, "deadline_time": "2025-09-05T17:30:00Z", "is_next": true`,
	).Replace(bootstrapBody)
	require.NoError(t, src.client.Store.WriteRaw(fetch.BootstrapRelPath, []byte(advanced), false))
	next, err := src.LoadCached()
	require.NoError(t, err)
	src.Store().Swap(next)

	cat, meta, err := src.Catalog(ctx, false)
	require.NoError(t, err)
	assert.Same(t, next, cat)
	assert.NotSame(t, first, cat)
	assert.Equal(t, 3, meta.CurrentGW)
	assert.Equal(t, 4, meta.NextGW)
	assert.Equal(t, time.Date(2025, 9, 5, 17, 30, 0, 0, time.UTC), meta.NextDeadline)

	published, ok := src.Meta()
	require.True(t, ok)
	assert.Equal(t, meta, published)
	assert.Equal(t, 1, fake.count("/bootstrap-static/"))
}

func TestLoadCachedReadsDisk(t *testing.T) {
	fake := newFakeFPL()
	src := newSource(t, fake, "")
	_, err := src.LoadCached()
	require.Error(t, err)

	_, _, err = src.Catalog(context.Background(), false)
	require.NoError(t, err)
	cat, err := src.LoadCached()
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
	meta, ok := src.Meta()
	require.True(t, ok)
	assert.Equal(t, 3, meta.NextGW)
}

func TestSquadBeforeSeasonStarts(t *testing.T) {
	fake := newFakeFPL()
	fake.bodies["/entry/7/"] = `{"id": 7, "current_event": null, "last_deadline_bank": 1000}`
	src := newSource(t, fake, "")
	snap, warnings, err := src.Squad(context.Background(), 7, false)
	require.NoError(t, err)
	assert.Empty(t, snap.Picks)
	assert.Equal(t, money.Price(1000), snap.Bank)
	assert.Len(t, warnings, 1)
}
