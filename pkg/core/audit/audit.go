package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"camels_monitor/pkg/core/score"
	"camels_monitor/pkg/core/store"
)

// Pipeline stage names recorded in the audit trail.
const (
	StageIngestion = "ingestion"
	StageScoring   = "scoring"
	StageExport    = "export"
)

// Entry is one audit trail row. Only the fields relevant to the stage are
// populated.
type Entry struct {
	RunID              string         `json:"run_id"`
	Stage              string         `json:"stage"`
	BankID             string         `json:"bank_id,omitempty"`
	Pillar             string         `json:"pillar,omitempty"`
	IndicatorID        string         `json:"indicator_id,omitempty"`
	SourceID           string         `json:"source_id,omitempty"`
	Period             string         `json:"period,omitempty"`
	ArtifactPath       string         `json:"artifact_path,omitempty"`
	URL                string         `json:"url,omitempty"`
	Checksum           string         `json:"checksum,omitempty"`
	Rating             string         `json:"rating,omitempty"`
	Status             string         `json:"status,omitempty"`
	IngestionRunID     string         `json:"ingestion_run_id,omitempty"`
	NormalizationRunID string         `json:"normalization_run_id,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// Trail writes audit entries tying scores back to their source documents.
type Trail struct {
	pool *pgxpool.Pool
}

func NewTrail(pool *pgxpool.Pool) *Trail {
	if pool == nil {
		pool = store.GetPool()
	}
	return &Trail{pool: pool}
}

// PrepareStage clears previous entries for one run/stage pair so a retried
// stage does not double-record.
func (t *Trail) PrepareStage(ctx context.Context, runID, stage string) error {
	_, err := t.pool.Exec(ctx,
		`DELETE FROM audit_trail WHERE run_id = $1 AND stage = $2`, runID, stage)
	if err != nil {
		return fmt.Errorf("failed to prepare audit stage %s: %w", stage, err)
	}
	return nil
}

// Record appends one audit entry.
func (t *Trail) Record(ctx context.Context, entry Entry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal audit metadata: %w", err)
	}
	_, err = t.pool.Exec(ctx, `
		INSERT INTO audit_trail (
			run_id, stage, bank_id, pillar, indicator_id, source_id, period,
			artifact_path, url, checksum, rating, status,
			ingestion_run_id, normalization_run_id, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		entry.RunID, entry.Stage,
		nullable(entry.BankID), nullable(entry.Pillar), nullable(entry.IndicatorID),
		nullable(entry.SourceID), nullable(entry.Period), nullable(entry.ArtifactPath),
		nullable(entry.URL), nullable(entry.Checksum), nullable(entry.Rating),
		nullable(entry.Status), nullable(entry.IngestionRunID),
		nullable(entry.NormalizationRunID), payload)
	if err != nil {
		return fmt.Errorf("failed to record audit entry for stage %s: %w", entry.Stage, err)
	}
	return nil
}

// RecordIngestion audits one ingestion attempt.
func (t *Trail) RecordIngestion(ctx context.Context, runID string, entry store.IngestionLogEntry) error {
	return t.Record(ctx, Entry{
		RunID:          runID,
		Stage:          StageIngestion,
		SourceID:       entry.SourceID,
		ArtifactPath:   entry.LocalPath,
		URL:            entry.URL,
		Checksum:       entry.Checksum,
		Status:         entry.Status,
		IngestionRunID: entry.RunID,
		Metadata: map[string]any{
			"format":       entry.Format,
			"record_count": entry.RecordCount,
		},
	})
}

// RecordScores audits every indicator score of a run, linking each rating
// back to the source and normalization run that produced its value.
func (t *Trail) RecordScores(ctx context.Context, runID string, scores []score.CompositeScore) error {
	for _, composite := range scores {
		for _, pillar := range composite.Pillars {
			for _, indicator := range pillar.Indicators {
				entry := Entry{
					RunID:              runID,
					Stage:              StageScoring,
					BankID:             indicator.BankID,
					Pillar:             indicator.Pillar,
					IndicatorID:        indicator.IndicatorID,
					SourceID:           indicator.SourceID,
					Period:             indicator.Period,
					Rating:             indicator.Rating,
					NormalizationRunID: indicator.NormalizationRunID,
					Metadata: map[string]any{
						"score":  indicator.Score,
						"weight": indicator.Weight,
					},
				}
				if err := t.Record(ctx, entry); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// RecordExport audits a written export artifact.
func (t *Trail) RecordExport(ctx context.Context, runID, path, checksum string) error {
	return t.Record(ctx, Entry{
		RunID:        runID,
		Stage:        StageExport,
		ArtifactPath: path,
		Checksum:     checksum,
		Status:       "success",
	})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
