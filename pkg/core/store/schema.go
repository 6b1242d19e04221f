package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates every table the pipeline writes to. All statements
// are idempotent so schema bootstrap can run on every start.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS banks (
			bank_id    TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			country    TEXT NOT NULL,
			regulator  TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS indicators (
			indicator_id TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			pillar       TEXT NOT NULL,
			unit         TEXT NOT NULL,
			description  TEXT,
			min_value    DOUBLE PRECISION,
			max_value    DOUBLE PRECISION,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS ingestion_log (
			id           BIGSERIAL PRIMARY KEY,
			run_id       TEXT NOT NULL,
			source_id    TEXT NOT NULL,
			bank         TEXT NOT NULL,
			country      TEXT NOT NULL,
			regulator    TEXT NOT NULL,
			url          TEXT NOT NULL,
			format       TEXT NOT NULL,
			frequency    TEXT NOT NULL,
			local_path   TEXT NOT NULL,
			checksum     TEXT NOT NULL,
			record_count INTEGER NOT NULL,
			status       TEXT NOT NULL,
			error        TEXT,
			started_at   TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL,
			metadata     JSONB NOT NULL DEFAULT '{}'::jsonb
		)`,
		`CREATE TABLE IF NOT EXISTS indicator_history (
			id           BIGSERIAL PRIMARY KEY,
			bank_id      TEXT NOT NULL REFERENCES banks(bank_id),
			indicator_id TEXT NOT NULL REFERENCES indicators(indicator_id),
			period       TEXT NOT NULL,
			period_start TEXT,
			period_end   TEXT,
			value        DOUBLE PRECISION,
			unit         TEXT NOT NULL,
			raw_value    TEXT,
			source_id    TEXT NOT NULL,
			run_id       TEXT NOT NULL,
			ingested_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			metadata     JSONB,
			UNIQUE (bank_id, indicator_id, period, source_id, run_id)
		)`,
		`CREATE TABLE IF NOT EXISTS normalization_log (
			id           BIGSERIAL PRIMARY KEY,
			run_id       TEXT NOT NULL,
			source_id    TEXT NOT NULL,
			bank_id      TEXT NOT NULL,
			indicator_id TEXT NOT NULL,
			period       TEXT NOT NULL,
			status       TEXT NOT NULL,
			message      TEXT,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS scores (
			id            BIGSERIAL PRIMARY KEY,
			run_id        TEXT NOT NULL,
			bank_id       TEXT NOT NULL REFERENCES banks(bank_id),
			score         DOUBLE PRECISION NOT NULL,
			rating        TEXT NOT NULL,
			period        TEXT,
			calculated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			details       JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS pillar_scores (
			id            BIGSERIAL PRIMARY KEY,
			run_id        TEXT NOT NULL,
			bank_id       TEXT NOT NULL REFERENCES banks(bank_id),
			pillar        TEXT NOT NULL,
			score         DOUBLE PRECISION NOT NULL,
			rating        TEXT NOT NULL,
			weight        DOUBLE PRECISION NOT NULL,
			period        TEXT,
			calculated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			details       JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS indicator_scores (
			id                   BIGSERIAL PRIMARY KEY,
			run_id               TEXT NOT NULL,
			bank_id              TEXT NOT NULL REFERENCES banks(bank_id),
			indicator_id         TEXT NOT NULL,
			pillar               TEXT NOT NULL,
			score                DOUBLE PRECISION NOT NULL,
			rating               TEXT NOT NULL,
			weight               DOUBLE PRECISION NOT NULL,
			value                DOUBLE PRECISION,
			period               TEXT,
			unit                 TEXT,
			source_id            TEXT,
			normalization_run_id TEXT,
			calculated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			details              JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS audit_trail (
			id                   BIGSERIAL PRIMARY KEY,
			run_id               TEXT NOT NULL,
			stage                TEXT NOT NULL,
			bank_id              TEXT,
			pillar               TEXT,
			indicator_id         TEXT,
			source_id            TEXT,
			period               TEXT,
			artifact_path        TEXT,
			url                  TEXT,
			checksum             TEXT,
			rating               TEXT,
			status               TEXT,
			ingestion_run_id     TEXT,
			normalization_run_id TEXT,
			recorded_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			metadata             JSONB NOT NULL DEFAULT '{}'::jsonb
		)`,
		`CREATE INDEX IF NOT EXISTS idx_indicator_history_lookup
			ON indicator_history (bank_id, indicator_id, period)`,
		`CREATE INDEX IF NOT EXISTS idx_indicator_history_source
			ON indicator_history (source_id, run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_normalization_log_run ON normalization_log (run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ingestion_log_run ON ingestion_log (run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_run ON scores (run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pillar_scores_run ON pillar_scores (run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_indicator_scores_run ON indicator_scores (run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_trail_run_stage ON audit_trail (run_id, stage)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
