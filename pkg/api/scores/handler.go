package scores

import (
	"encoding/json"
	"fmt"
	"net/http"

	"camels_monitor/pkg/core/store"
)

var scoreRepo *store.ScoreRepo

// InitHandler wires the handlers to the shared database pool.
func InitHandler() {
	scoreRepo = store.NewScoreRepo(nil)
}

// ScoresResponse is the payload for the latest scoring run.
type ScoresResponse struct {
	RunID  string `json:"run_id"`
	Scores any    `json:"scores"`
}

// HandleLatestScores serves GET /api/scores/latest. An explicit run can be
// requested with ?run_id=.
func HandleLatestScores(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		latest, err := scoreRepo.LatestRun(ctx)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to resolve latest run: %v", err), http.StatusInternalServerError)
			return
		}
		if latest == "" {
			http.Error(w, "no scoring runs available", http.StatusNotFound)
			return
		}
		runID = latest
	}

	composites, err := scoreRepo.CompositeScores(ctx, runID)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to load scores: %v", err), http.StatusInternalServerError)
		return
	}
	if len(composites) == 0 {
		http.Error(w, fmt.Sprintf("no scores for run %s", runID), http.StatusNotFound)
		return
	}

	fmt.Printf("[SCORES] Serving %d composite scores for run %s\n", len(composites), runID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ScoresResponse{RunID: runID, Scores: composites})
}
