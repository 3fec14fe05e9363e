package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/app"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/chat"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/config"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/fetch"
)

func main() {
	var (
		configPath  = flag.String("config", os.Getenv("FPL_CONFIG"), "YAML config file (optional)")
		teamID      = flag.String("team", "", "FPL entry id (required)")
		refreshMode = flag.String("refresh", "scheduled", "refresh mode: none|scheduled|all")
		ask         = flag.String("ask", "", "question to run through the chat service")
		outPath     = flag.String("out", "", "also write the analysis JSON to this file")
		timeout     = flag.Duration("timeout", 60*time.Second, "overall timeout")
	)
	flag.Parse()

	if *teamID == "" {
		log.Fatal("-team is required")
	}
	mode := *refreshMode
	if mode != "none" && mode != "scheduled" && mode != "all" {
		log.Fatalf("invalid refresh mode: %s", mode)
	}

	cfg, err := config.Load(*configPath)
	must(err)

	// none: serve from the raw cache only; scheduled: refetch what has
	// outlived its max age; all: refetch everything.
	a, err := app.New(cfg, app.Options{Offline: mode == "none"})
	must(err)
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	force := mode == "all"
	rep, err := a.Chat.Analyze(ctx, *teamID, force)
	must(err)

	log.Printf("Season %s, GW %d (next %d), catalog v%d, outcome=%s\n",
		rep.Meta.Season, rep.Meta.CurrentGW, rep.Meta.NextGW, a.Catalogs.Current().Version(), rep.Outcome.Kind)
	for _, w := range rep.Outcome.Result.Warnings {
		log.Printf("warning: %s\n", w.Message)
	}

	must(printJSON(rep.Outcome))
	if *outPath != "" {
		must(writeJSON(*outPath, rep.Outcome))
		log.Printf("Wrote %s\n", *outPath)
	}

	if *ask == "" {
		return
	}
	resp := a.Chat.Answer(ctx, chat.Request{Message: *ask, TeamID: *teamID})
	log.Printf("%s\n", resp.Describe())
	for _, v := range resp.Violations {
		log.Printf("rejected: %s: %s\n", v.Kind, v.Detail)
	}
	fmt.Println()
	fmt.Println(resp.Message)
	if !resp.Success {
		os.Exit(1)
	}
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Println(string(b))
	return err
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

func must(err error) {
	if err != nil {
		var status *fetch.StatusError
		if errors.As(err, &status) && status.Code == 404 {
			log.Fatalf("not found upstream: %v (check -team)", err)
		}
		if errors.Is(err, os.ErrNotExist) {
			log.Fatal("missing cached data; run with -refresh=scheduled or -refresh=all")
		}
		log.Fatal(err)
	}
}
