package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"camels_monitor/pkg/core/pipeline"
	"camels_monitor/pkg/core/store"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	var settings pipeline.Settings
	flag.StringVar(&settings.SourcesPath, "sources", "config/sources.yaml", "source catalog")
	flag.StringVar(&settings.BanksPath, "banks", "data/reference/banks.csv", "seed bank registry")
	flag.StringVar(&settings.ThresholdsPath, "thresholds", "config/thresholds.yaml", "scoring configuration (yaml or hjson)")
	flag.StringVar(&settings.DownloadDir, "downloads", "data/downloads", "download directory")
	flag.StringVar(&settings.ExportDir, "exports", "data/exports", "export directory")
	flag.IntVar(&settings.MinPeriods, "min-periods", 2, "warn when a bank/indicator has fewer periods of history")
	flag.Parse()

	ctx := context.Background()
	if err := store.InitDB(ctx); err != nil {
		fmt.Printf("[FATAL] Database init failed: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	orchestrator := pipeline.NewOrchestrator(settings)
	rc, err := orchestrator.Run(ctx)
	if err != nil {
		fmt.Printf("[FATAL] Pipeline failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Run %s: %d observations, %d banks scored, artifacts in %s\n",
		rc.RunID, len(rc.Observations), len(rc.Output.Scores), settings.ExportDir)
}
