package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/gofrs/flock"
	"github.com/joho/godotenv"

	"leadparser-engine/internal/config"
	"leadparser-engine/internal/domain"
	"leadparser-engine/internal/events"
	"leadparser-engine/internal/pipeline"
	"leadparser-engine/internal/secrets"
	"leadparser-engine/internal/store"
)

func main() {
	var (
		exportOnly = flag.Bool("export-only", false, "skip scraping, re-export the current store")
		clearDB    = flag.Bool("clear", false, "remove all stored leads and exit")
		setKey     = flag.String("set-api-key", "", "store the places API key in the OS keychain and exit")
		listen     = flag.String("listen", "", "serve the dashboard API on this address instead of running once")
	)
	flag.Parse()

	// Optional .env for PLACES_API_KEY and similar overrides in local runs.
	_ = godotenv.Load()

	if *setKey != "" {
		if err := secrets.SetPlacesAPIKey(*setKey); err != nil {
			log.Fatalf("saving API key: %v", err)
		}
		fmt.Println("API key stored in keychain")
		return
	}

	// Data dir: use env if provided, else local folder.
	dataDir := os.Getenv("LEADPARSER_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One run at a time per data dir; two writers would fight over the
	// sqlite file and double-spend the rate budget.
	lock := flock.New(filepath.Join(dataDir, ".leadparser.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("run lock: %v", err)
	}
	if !locked {
		log.Fatalf("another run is already active in %s", dataDir)
	}
	defer lock.Unlock()

	userCfgPath, err := config.EnsureUserConfig(dataDir)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}
	cfg, err := config.Load(userCfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfg.App.DataDir = dataDir

	cfg, v := config.NormalizeAndValidate(cfg)
	for _, w := range v.Warnings {
		color.Yellow("warning: %s", w)
	}
	if !v.OK() {
		log.Fatalf("config invalid:\n%s", v.Error())
	}

	st, err := store.Open(cfg)
	if err != nil {
		log.Fatalf("opening lead store: %v", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *clearDB:
		if err := st.Clear(ctx); err != nil {
			log.Fatalf("clearing store: %v", err)
		}
		fmt.Println("store cleared")
		return
	case *exportOnly:
		p := pipeline.New(cfg, "", st, nil)
		path, err := p.Export(ctx)
		if err != nil {
			log.Fatalf("export failed: %v", err)
		}
		color.Green("exported %s", path)
		return
	}

	if *listen != "" {
		// Serve mode: runs are triggered over the API, missing credentials
		// fail the triggered run rather than startup.
		apiKey, err := secrets.GetPlacesAPIKey()
		if err != nil {
			log.Printf("[engine] %v; triggered runs will fail until a key is set", err)
		}
		serve(ctx, *listen, cfg, apiKey, st)
		return
	}

	apiKey, err := secrets.GetPlacesAPIKey()
	if err != nil {
		log.Fatalf("%v", err)
	}

	color.Cyan("lead acquisition run: %s, %s", cfg.Location.City, cfg.Location.State)
	color.Cyan("niches: %v", cfg.Niches)

	hub := events.NewHub()
	p := pipeline.New(cfg, apiKey, st, hub)

	stats, err := p.Run(ctx)
	printSummary(stats)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			color.Yellow("run cancelled")
			os.Exit(130)
		}
		log.Fatalf("run failed: %v", err)
	}
}

func printSummary(stats domain.RunStats) {
	bold := color.New(color.Bold)
	bold.Println("\nrun summary")
	for _, ns := range stats.Niches {
		fmt.Printf("  %-24s found=%-4d qualified=%-4d new=%-4d duplicates=%-4d errors=%d\n",
			ns.Niche, ns.Found, ns.Qualified, ns.Persisted, ns.Duplicates, ns.Errors)
	}
	fmt.Printf("  %-24s found=%-4d qualified=%-4d new=%-4d duplicates=%-4d errors=%d\n",
		"total", stats.Total, stats.Qualified, stats.New, stats.Duplicates, stats.Errors)
	if stats.FatalError != "" {
		color.Red("  fatal: %s", stats.FatalError)
	}
}
