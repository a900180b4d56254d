package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"StratForge/internal/di"
	"StratForge/pkg/config"
	"StratForge/pkg/util"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", "serve", "run mode: serve, train or backtest")
	runID := flag.String("run", "", "run id (train/backtest)")
	from := flag.String("from", "", "window start, RFC3339 or unix seconds (train/backtest)")
	to := flag.String("to", "", "window end, RFC3339 or unix seconds (train/backtest)")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s mode=%s strategy=%s", cfg.Environment, *mode, cfg.Strategy.File)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	switch *mode {
	case "serve":
		if err := app.Run(); err != nil {
			log.Printf("app error: %v", err)
			os.Exit(1)
		}
	case "train", "backtest":
		if *runID == "" {
			log.Fatal("-run is required for train/backtest")
		}
		now := time.Now().UTC()
		fromT := util.ParseTimeDefault(*from, now.AddDate(0, -6, 0))
		toT := util.ParseTimeDefault(*to, now)

		ctx := context.Background()
		if *mode == "train" {
			err = app.RunTraining(ctx, *runID, fromT, toT)
		} else {
			err = app.RunBacktest(ctx, *runID, fromT, toT)
		}
		if err != nil {
			log.Printf("%s run failed: %v", *mode, err)
			os.Exit(1)
		}
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}
