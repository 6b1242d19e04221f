package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"camels_monitor/pkg/core/normalize"
	"camels_monitor/pkg/core/score"
)

// UpsertSummary reports how many observations were inserted versus replaced.
type UpsertSummary struct {
	Inserted int
	Updated  int
}

// CoverageEntry counts distinct reporting periods per bank/indicator.
type CoverageEntry struct {
	BankID      string
	IndicatorID string
	Periods     int
}

// ObservationRepo persists canonical observations and serves snapshots.
type ObservationRepo struct {
	pool *pgxpool.Pool
}

func NewObservationRepo(pool *pgxpool.Pool) *ObservationRepo {
	if pool == nil {
		pool = GetPool()
	}
	return &ObservationRepo{pool: pool}
}

// Upsert writes observations keyed by
// (bank_id, indicator_id, period, source_id, run_id): re-running the same
// normalization run replaces rows in place, while a new run id appends a
// fresh historical row.
func (r *ObservationRepo) Upsert(ctx context.Context, observations []normalize.CanonicalObservation) (UpsertSummary, error) {
	summary := UpsertSummary{}
	query := `
		INSERT INTO indicator_history (
			bank_id, indicator_id, period, period_start, period_end,
			value, unit, raw_value, source_id, run_id, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (bank_id, indicator_id, period, source_id, run_id) DO UPDATE SET
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			value = EXCLUDED.value,
			unit = EXCLUDED.unit,
			raw_value = EXCLUDED.raw_value,
			metadata = EXCLUDED.metadata,
			ingested_at = now()
		RETURNING (xmax = 0) AS inserted
	`
	for _, obs := range observations {
		metadata, err := json.Marshal(obs.Metadata)
		if err != nil {
			return summary, fmt.Errorf("failed to marshal observation metadata: %w", err)
		}
		// xmax = 0 only holds for freshly inserted tuples, which is how the
		// upsert distinguishes inserts from replacements.
		var inserted bool
		err = r.pool.QueryRow(ctx, query,
			obs.BankID, obs.IndicatorID, obs.Period, obs.PeriodStart, obs.PeriodEnd,
			obs.Value, obs.Unit, obs.RawValue, obs.SourceID, obs.RunID, metadata,
		).Scan(&inserted)
		if err != nil {
			return summary, fmt.Errorf("failed to upsert observation %s/%s %s: %w",
				obs.BankID, obs.IndicatorID, obs.Period, err)
		}
		if inserted {
			summary.Inserted++
		} else {
			summary.Updated++
		}
	}
	return summary, nil
}

// LogEvent appends a normalization_log row for one observation outcome.
func (r *ObservationRepo) LogEvent(ctx context.Context, runID, sourceID, bankID, indicatorID, period, status, message string) error {
	var msg *string
	if message != "" {
		msg = &message
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO normalization_log (run_id, source_id, bank_id, indicator_id, period, status, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		runID, sourceID, bankID, indicatorID, period, status, msg)
	if err != nil {
		return fmt.Errorf("failed to log normalization event: %w", err)
	}
	return nil
}

// LatestSnapshots returns, per bank and indicator, the observation with the
// maximal period label, breaking ties by the latest ingested row. The result
// is keyed bank id → indicator id.
func (r *ObservationRepo) LatestSnapshots(ctx context.Context) (map[string]map[string]score.IndicatorSnapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (ih.bank_id, ih.indicator_id)
			ih.bank_id, ih.indicator_id, i.pillar, ih.period, ih.value, ih.unit,
			ih.source_id, ih.run_id, ih.metadata
		FROM indicator_history ih
		JOIN indicators i ON i.indicator_id = ih.indicator_id
		ORDER BY ih.bank_id, ih.indicator_id, ih.period DESC, ih.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make(map[string]map[string]score.IndicatorSnapshot)
	for rows.Next() {
		var snap score.IndicatorSnapshot
		var metadata []byte
		if err := rows.Scan(
			&snap.BankID, &snap.IndicatorID, &snap.Pillar, &snap.Period, &snap.Value,
			&snap.Unit, &snap.SourceID, &snap.NormalizationRunID, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &snap.Metadata)
		}
		if snapshots[snap.BankID] == nil {
			snapshots[snap.BankID] = make(map[string]score.IndicatorSnapshot)
		}
		snapshots[snap.BankID][snap.IndicatorID] = snap
	}
	return snapshots, rows.Err()
}

// Coverage counts distinct periods per bank/indicator so the pipeline can
// warn on thin history.
func (r *ObservationRepo) Coverage(ctx context.Context) ([]CoverageEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT bank_id, indicator_id, COUNT(DISTINCT period) AS periods
		FROM indicator_history
		GROUP BY bank_id, indicator_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query coverage: %w", err)
	}
	defer rows.Close()

	var entries []CoverageEntry
	for rows.Next() {
		var entry CoverageEntry
		if err := rows.Scan(&entry.BankID, &entry.IndicatorID, &entry.Periods); err != nil {
			return nil, fmt.Errorf("failed to scan coverage entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
