package banks

import (
	"encoding/json"
	"fmt"
	"net/http"

	"camels_monitor/pkg/core/registry"
	"camels_monitor/pkg/core/store"
)

var (
	registryRepo    *store.RegistryRepo
	observationRepo *store.ObservationRepo
)

// InitHandler wires the handlers to the shared database pool.
func InitHandler() {
	registryRepo = store.NewRegistryRepo(nil)
	observationRepo = store.NewObservationRepo(nil)
}

func writeCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// HandleListBanks serves GET /api/banks with the registered bank profiles.
func HandleListBanks(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	banks, err := registryRepo.BankProfiles(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to load banks: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(banks)
}

// HandleIndicators serves GET /api/indicators: the static catalog, plus the
// latest snapshots for one bank when ?bank_id= is given.
func HandleIndicators(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	definitions := registry.DefaultIndicators()
	bankID := r.URL.Query().Get("bank_id")
	if bankID == "" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(definitions)
		return
	}

	snapshots, err := observationRepo.LatestSnapshots(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to load snapshots: %v", err), http.StatusInternalServerError)
		return
	}
	bankSnapshots, ok := snapshots[bankID]
	if !ok {
		http.Error(w, fmt.Sprintf("no observations for bank %s", bankID), http.StatusNotFound)
		return
	}
	fmt.Printf("[INDICATORS] Serving %d snapshots for %s\n", len(bankSnapshots), bankID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bankSnapshots)
}
