package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/logger"
)

func main() {
	var (
		rawRoot  = flag.String("raw-root", "data/raw", "root directory for raw JSON")
		outPath  = flag.String("out", "data/derived/schema_inventory.json", "output path")
		maxFiles = flag.Int("max-files", 0, "max files per endpoint (0 = no limit)")
		strict   = flag.Bool("strict", false, "exit non-zero when a required field is missing")
	)
	flag.Parse()

	srcs := sources(*rawRoot)
	inv := Inventory{
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339),
		RawRoot:        *rawRoot,
		Endpoints:      make([]Endpoint, 0, len(srcs)),
	}

	missing := 0
	for _, src := range srcs {
		ep, ok, err := scan(src, *maxFiles)
		if err != nil {
			logger.Warnf("%v", err)
			continue
		}
		if !ok {
			logger.Warnf("no files for %s (%s)", src.Name, src.Glob)
			continue
		}
		for _, p := range ep.Missing {
			logger.Warnf("%s: required field %s missing", ep.Name, p)
		}
		missing += len(ep.Missing)
		inv.Endpoints = append(inv.Endpoints, ep)
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		fail(err)
	}
	payload, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		fail(err)
	}
	payload = append(payload, '\n')
	if err := os.WriteFile(*outPath, payload, 0o644); err != nil {
		fail(err)
	}
	fmt.Println("wrote", *outPath)

	if *strict && missing > 0 {
		fail(fmt.Errorf("%d required fields missing", missing))
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
