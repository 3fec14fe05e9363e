// Package app builds the dependency graph shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/catalog"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/chat"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/config"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/fetch"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/fplsource"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/llm"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/logger"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/store"
)

type App struct {
	Config   *config.Config
	Store    *store.JSONStore
	Client   *fetch.Client
	Catalogs *catalog.Store
	Source   *fplsource.Source
	Chat     *chat.Service

	watcher *catalog.Watcher
}

type Options struct {
	// Watch starts the catalog watcher when the config enables it.
	Watch bool
	// Offline serves only from the raw cache.
	Offline bool
}

// New wires everything from cfg without touching the network.
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.Log.Level)

	st := store.NewJSONStore(cfg.FPL.RawRoot)
	client := fetch.NewClient(st)
	client.BaseURL = cfg.FPL.BaseURL
	client.UserAgent = cfg.FPL.UserAgent
	client.Cookie = cfg.FPL.AuthCookie
	client.Sleep = time.Duration(cfg.FPL.SleepMS) * time.Millisecond
	client.UseCache = cfg.FPL.UseCache
	client.Offline = opts.Offline

	catalogs := &catalog.Store{}
	src := fplsource.New(client, catalogs, fplsource.Options{
		FixtureHorizon: cfg.FPL.FixtureHorizon,
		CatalogMaxAge:  cfg.FPL.CatalogMaxAge,
		SquadMaxAge:    cfg.FPL.SquadMaxAge,
	})

	var gen chat.Generator
	if cfg.LLM.Enabled && cfg.LLM.APIKey != "" {
		gen = &llm.Client{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			MaxRetries:  cfg.LLM.MaxRetries,
		}
	} else {
		logger.Warnf("[app] answer generation disabled (llm.enabled=%t, api key set=%t); serving fallbacks",
			cfg.LLM.Enabled, cfg.LLM.APIKey != "")
	}

	a := &App{
		Config:   cfg,
		Store:    st,
		Client:   client,
		Catalogs: catalogs,
		Source:   src,
		Chat: chat.NewService(src, gen, chat.Options{
			Timeout:  cfg.Chat.Timeout,
			Lookback: cfg.Chat.GameweekLookback,
			Horizon:  cfg.Chat.GameweekHorizon,
			Policy:   cfg.Recommend,
		}),
	}

	if opts.Watch && cfg.FPL.WatchCache {
		if err := a.startWatcher(); err != nil {
			logger.Warnf("[app] catalog watcher not started: %v", err)
		}
	}
	return a, nil
}

func (a *App) startWatcher() error {
	dir := a.Store.Path(fetch.BootstrapDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	w, err := catalog.Watch(a.Catalogs, dir, []string{fetch.BootstrapFile, fetch.FixturesFile}, a.Source.LoadCached)
	if err != nil {
		return err
	}
	a.watcher = w
	if a.Store.Exists(fetch.BootstrapRelPath) {
		w.Reload()
	}
	return nil
}

// Warm loads the catalog once so the first request does not pay for it.
func (a *App) Warm(ctx context.Context) error {
	cat, meta, err := a.Source.Catalog(ctx, false)
	if err != nil {
		return err
	}
	logger.Infof("[app] catalog v%d ready: %d players, season %s, gw %d", cat.Version(), cat.Len(), meta.Season, meta.CurrentGW)
	return nil
}

func (a *App) Close() error {
	if a == nil || a.watcher == nil {
		return nil
	}
	return a.watcher.Close()
}
