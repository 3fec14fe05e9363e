// Package fplsource loads a manager's squad and the player catalog from the
// FPL API through the raw cache.
package fplsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/catalog"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/fetch"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/logger"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/money"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/squad"
)

// ErrInvalidTeamID is returned for team ids that are not positive integers.
var ErrInvalidTeamID = errors.New("team id must be a positive integer")

// FetchError is an upstream failure: the FPL API was unreachable, answered
// with an error status, or returned something that does not decode.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fpl %s: %v", e.Op, e.Err) }

func (e *FetchError) Unwrap() error { return e.Err }

// Meta is the gameweek context of the loaded bootstrap.
type Meta struct {
	CurrentGW    int       `json:"current_gw"`
	NextGW       int       `json:"next_gw"`
	Season       string    `json:"season"`
	NextDeadline time.Time `json:"next_deadline"`
}

// Bundle is everything one analysis request needs.
type Bundle struct {
	Snapshot squad.Snapshot
	Catalog  *catalog.Catalog
	Meta     Meta
	// Warnings are data-source caveats, e.g. assumed free transfers.
	Warnings []squad.Warning
}

type Options struct {
	// FixtureHorizon caps the difficulty ratings kept per player.
	FixtureHorizon int
	// CatalogMaxAge and SquadMaxAge bound how old cached data may be.
	CatalogMaxAge time.Duration
	SquadMaxAge   time.Duration
}

type Source struct {
	client *fetch.Client
	store  *catalog.Store
	opts   Options
}

func New(client *fetch.Client, store *catalog.Store, opts Options) *Source {
	if opts.FixtureHorizon <= 0 {
		opts.FixtureHorizon = 5
	}
	return &Source{client: client, store: store, opts: opts}
}

func (s *Source) Store() *catalog.Store { return s.store }

// ParseTeamID accepts the numeric FPL entry id as a string.
func ParseTeamID(teamID string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(teamID))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTeamID, teamID)
	}
	return id, nil
}

// Load fetches the squad and the catalog concurrently.
func (s *Source) Load(ctx context.Context, teamID string, force bool) (*Bundle, error) {
	id, err := ParseTeamID(teamID)
	if err != nil {
		return nil, err
	}

	var (
		cat   *catalog.Catalog
		meta  Meta
		snap  squad.Snapshot
		warns []squad.Warning
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cat, meta, err = s.Catalog(gctx, force)
		return err
	})
	g.Go(func() error {
		var err error
		snap, warns, err = s.Squad(gctx, id, force)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.TeamID = strconv.Itoa(id)
	snap.NextDeadline = meta.NextDeadline
	return &Bundle{Snapshot: snap, Catalog: cat, Meta: meta, Warnings: warns}, nil
}

// Catalog returns the published catalog when it is fresh enough, otherwise
// fetches bootstrap-static and fixtures, builds a new version and swaps it in.
func (s *Source) Catalog(ctx context.Context, force bool) (*catalog.Catalog, Meta, error) {
	if !force {
		if cur := s.store.Current(); cur != nil && !s.expired(cur.LoadedAt(), s.opts.CatalogMaxAge) {
			return cur, metaOf(cur), nil
		}
	}

	refresh := force || s.staleFile(fetch.BootstrapRelPath, s.opts.CatalogMaxAge)
	var bootRaw, fixRaw []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bootRaw, err = s.client.BootstrapStatic(gctx, refresh)
		if err != nil {
			return &FetchError{Op: "bootstrap-static", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		fixRaw, err = s.client.Fixtures(gctx, refresh || s.staleFile(fetch.FixturesRelPath, s.opts.CatalogMaxAge))
		if err != nil {
			return &FetchError{Op: "fixtures", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, Meta{}, err
	}

	cat, meta, err := s.build(bootRaw, fixRaw)
	if err != nil {
		return nil, Meta{}, err
	}
	s.store.Swap(cat)
	logger.Infof("[fplsource] catalog version=%d players=%d gw=%d season=%s", cat.Version(), cat.Len(), meta.CurrentGW, meta.Season)
	return cat, meta, nil
}

// LoadCached builds a catalog from the raw cache only. It is the reload hook
// for the catalog watcher, which publishes the result itself.
func (s *Source) LoadCached() (*catalog.Catalog, error) {
	bootRaw, err := s.client.Store.ReadRaw(fetch.BootstrapRelPath)
	if err != nil {
		return nil, err
	}
	fixRaw, err := s.client.Store.ReadRaw(fetch.FixturesRelPath)
	if err != nil {
		fixRaw = nil
	}
	cat, _, err := s.build(bootRaw, fixRaw)
	return cat, err
}

func (s *Source) build(bootRaw, fixRaw []byte) (*catalog.Catalog, Meta, error) {
	boot, err := catalog.DecodeBootstrap(bootRaw)
	if err != nil {
		return nil, Meta{}, &FetchError{Op: "bootstrap-static", Err: err}
	}
	fixtures, err := catalog.DecodeFixtures(fixRaw)
	if err != nil {
		return nil, Meta{}, &FetchError{Op: "fixtures", Err: err}
	}

	gw := boot.Gameweeks()
	from := gw.Next
	if from == 0 {
		from = gw.Current
	}
	cat := catalog.Build(boot, fixtures, from, s.opts.FixtureHorizon)
	return cat, metaOf(cat), nil
}

// metaOf reads the gameweek context carried by cat, so a catalog and its
// meta always come from the same bootstrap.
func metaOf(cat *catalog.Catalog) Meta {
	gw := cat.Gameweeks()
	return Meta{
		CurrentGW:    gw.Current,
		NextGW:       gw.Next,
		Season:       gw.Season,
		NextDeadline: gw.NextDeadline,
	}
}

// Meta returns the gameweek context of the published catalog.
func (s *Source) Meta() (Meta, bool) {
	cur := s.store.Current()
	if cur == nil {
		return Meta{}, false
	}
	return metaOf(cur), true
}

type rawPick struct {
	Element       int  `json:"element"`
	Position      int  `json:"position"`
	SellingPrice  int  `json:"selling_price"`
	IsCaptain     bool `json:"is_captain"`
	IsViceCaptain bool `json:"is_vice_captain"`
}

type picksResponse struct {
	Picks []rawPick `json:"picks"`
}

// Squad loads the manager's picks. With an auth cookie it reads /my-team/,
// which carries selling prices, bank and free transfers; otherwise it falls
// back to the public picks of the current gameweek.
func (s *Source) Squad(ctx context.Context, entryID int, force bool) (squad.Snapshot, []squad.Warning, error) {
	warnings := make([]squad.Warning, 0)
	if s.client.Cookie != "" {
		raw, err := s.client.MyTeam(ctx, entryID)
		if err == nil {
			snap, perr := parseMyTeam(raw)
			if perr == nil {
				return snap, warnings, nil
			}
			err = perr
		}
		if ctx.Err() != nil {
			return squad.Snapshot{}, nil, &FetchError{Op: "my-team", Err: ctx.Err()}
		}
		logger.Warnf("[fplsource] my-team %d unavailable, using public picks: %v", entryID, err)
		warnings = append(warnings, squad.Warning{Message: "authenticated team data unavailable; using public picks"})
	}

	entryRaw, err := s.client.Entry(ctx, entryID, force || s.staleFile(fetch.EntryRelPath(entryID), s.opts.SquadMaxAge))
	if err != nil {
		return squad.Snapshot{}, nil, &FetchError{Op: "entry", Err: err}
	}
	gw := int(gjson.GetBytes(entryRaw, "current_event").Int())
	if gw <= 0 {
		warnings = append(warnings, squad.Warning{Message: "season has not started; no picks yet"})
		return squad.Snapshot{Bank: money.Price(gjson.GetBytes(entryRaw, "last_deadline_bank").Int())}, warnings, nil
	}

	picksRaw, err := s.client.EntryPicks(ctx, entryID, gw, force || s.staleFile(fetch.EntryPicksRelPath(entryID, gw), s.opts.SquadMaxAge))
	if err != nil {
		return squad.Snapshot{}, nil, &FetchError{Op: "picks", Err: err}
	}
	picks, err := decodePicks(picksRaw)
	if err != nil {
		return squad.Snapshot{}, nil, &FetchError{Op: "picks", Err: err}
	}

	bank := gjson.GetBytes(picksRaw, "entry_history.bank")
	if !bank.Exists() {
		bank = gjson.GetBytes(entryRaw, "last_deadline_bank")
	}
	warnings = append(warnings,
		squad.Warning{Message: "selling prices unavailable without login; current prices used"},
		squad.Warning{Message: "free transfers unavailable without login; assuming 1"},
	)
	return squad.Snapshot{
		Picks:         picks,
		Bank:          money.Price(bank.Int()),
		FreeTransfers: 1,
	}, warnings, nil
}

func decodePicks(raw []byte) ([]squad.Pick, error) {
	var resp picksResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("parse picks: %w", err)
	}
	out := make([]squad.Pick, 0, len(resp.Picks))
	for _, p := range resp.Picks {
		out = append(out, squad.Pick{
			Element:       p.Element,
			Slot:          p.Position,
			SellingPrice:  money.Price(p.SellingPrice),
			IsCaptain:     p.IsCaptain,
			IsViceCaptain: p.IsViceCaptain,
		})
	}
	return out, nil
}

func parseMyTeam(raw []byte) (squad.Snapshot, error) {
	picks, err := decodePicks(raw)
	if err != nil {
		return squad.Snapshot{}, err
	}
	transfers := gjson.GetBytes(raw, "transfers")
	if !transfers.Exists() {
		return squad.Snapshot{}, fmt.Errorf("my-team response has no transfers block")
	}
	free := squad.Size
	if limit := transfers.Get("limit"); limit.Exists() && limit.Type != gjson.Null {
		free = int(limit.Int() - transfers.Get("made").Int())
		if free < 0 {
			free = 0
		}
	}
	return squad.Snapshot{
		Picks:         picks,
		Bank:          money.Price(transfers.Get("bank").Int()),
		FreeTransfers: free,
	}, nil
}

func (s *Source) expired(at time.Time, maxAge time.Duration) bool {
	return maxAge > 0 && time.Since(at) > maxAge
}

func (s *Source) staleFile(rel string, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	mod, ok := s.client.Store.ModTime(rel)
	if !ok {
		return false
	}
	return s.expired(mod, maxAge)
}
