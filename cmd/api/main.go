package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"camels_monitor/pkg/api/banks"
	"camels_monitor/pkg/api/scores"
	"camels_monitor/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	ctx := context.Background()
	if err := store.InitDB(ctx); err != nil {
		fmt.Printf("[FATAL] Database init failed: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	scores.InitHandler()
	banks.InitHandler()

	http.HandleFunc("/api/scores/latest", scores.HandleLatestScores)
	http.HandleFunc("/api/banks", banks.HandleListBanks)
	http.HandleFunc("/api/indicators", banks.HandleIndicators)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("API server starting on :%s...\n", port)
	fmt.Println("  - GET /api/scores/latest  (?run_id= for a specific run)")
	fmt.Println("  - GET /api/banks")
	fmt.Println("  - GET /api/indicators  (?bank_id= for latest snapshots)")

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
