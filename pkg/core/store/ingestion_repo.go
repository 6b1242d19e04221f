package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// IngestionLogEntry is one recorded ingestion attempt for a source.
type IngestionLogEntry struct {
	RunID       string         `json:"run_id"`
	SourceID    string         `json:"source_id"`
	Bank        string         `json:"bank"`
	Country     string         `json:"country"`
	Regulator   string         `json:"regulator"`
	URL         string         `json:"url"`
	Format      string         `json:"format"`
	Frequency   string         `json:"frequency"`
	LocalPath   string         `json:"local_path"`
	Checksum    string         `json:"checksum"`
	RecordCount int            `json:"record_count"`
	Status      string         `json:"status"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	Metadata    map[string]any `json:"metadata"`
}

// IsSuccess reports whether the entry recorded a successful ingestion.
func (e IngestionLogEntry) IsSuccess() bool { return e.Status == "success" }

// IngestionRepo reads and writes the ingestion log.
type IngestionRepo struct {
	pool *pgxpool.Pool
}

func NewIngestionRepo(pool *pgxpool.Pool) *IngestionRepo {
	if pool == nil {
		pool = GetPool()
	}
	return &IngestionRepo{pool: pool}
}

// Record appends one ingestion attempt. The log is append-only: retries and
// re-runs accumulate rather than overwrite.
func (r *IngestionRepo) Record(ctx context.Context, entry IngestionLogEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal ingestion metadata: %w", err)
	}
	var errText *string
	if entry.Error != "" {
		errText = &entry.Error
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO ingestion_log (
			run_id, source_id, bank, country, regulator, url, format, frequency,
			local_path, checksum, record_count, status, error, started_at, completed_at, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		entry.RunID, entry.SourceID, entry.Bank, entry.Country, entry.Regulator,
		entry.URL, entry.Format, entry.Frequency, entry.LocalPath, entry.Checksum,
		entry.RecordCount, entry.Status, errText, entry.StartedAt, entry.CompletedAt, metadata)
	if err != nil {
		return fmt.Errorf("failed to record ingestion for %s: %w", entry.SourceID, err)
	}
	return nil
}

// LatestSuccessful returns the most recent successful entry per source,
// keyed by source id.
func (r *IngestionRepo) LatestSuccessful(ctx context.Context) (map[string]IngestionLogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (source_id)
			run_id, source_id, bank, country, regulator, url, format, frequency,
			local_path, checksum, record_count, status, COALESCE(error, ''),
			started_at, completed_at, metadata
		FROM ingestion_log
		WHERE status = 'success'
		ORDER BY source_id, completed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingestion log: %w", err)
	}
	defer rows.Close()

	results := make(map[string]IngestionLogEntry)
	for rows.Next() {
		var entry IngestionLogEntry
		var metadata []byte
		if err := rows.Scan(
			&entry.RunID, &entry.SourceID, &entry.Bank, &entry.Country, &entry.Regulator,
			&entry.URL, &entry.Format, &entry.Frequency, &entry.LocalPath, &entry.Checksum,
			&entry.RecordCount, &entry.Status, &entry.Error,
			&entry.StartedAt, &entry.CompletedAt, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan ingestion entry: %w", err)
		}
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &entry.Metadata)
		}
		results[entry.SourceID] = entry
	}
	return results, rows.Err()
}
