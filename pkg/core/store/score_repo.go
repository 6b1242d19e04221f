package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"camels_monitor/pkg/core/score"
)

// ScoreRepo persists scoring runs at composite, pillar and indicator level.
type ScoreRepo struct {
	pool *pgxpool.Pool
}

func NewScoreRepo(pool *pgxpool.Pool) *ScoreRepo {
	if pool == nil {
		pool = GetPool()
	}
	return &ScoreRepo{pool: pool}
}

// SaveRun replaces any previous rows for runID and writes the full score
// tree in one transaction, so a re-run of the same scoring pass never leaves
// a partial mix of old and new rows.
func (r *ScoreRepo) SaveRun(ctx context.Context, runID string, scores []score.CompositeScore) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin score transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"indicator_scores", "pillar_scores", "scores"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE run_id = $1", table), runID); err != nil {
			return fmt.Errorf("failed to clear %s for run %s: %w", table, runID, err)
		}
	}

	for _, composite := range scores {
		if err := insertComposite(ctx, tx, runID, composite); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit score run %s: %w", runID, err)
	}
	return nil
}

func insertComposite(ctx context.Context, tx pgx.Tx, runID string, composite score.CompositeScore) error {
	details, err := json.Marshal(composite.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal composite metadata: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO scores (run_id, bank_id, score, rating, period, details)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		runID, composite.BankID, composite.Score, composite.Rating, nullable(composite.Period), details)
	if err != nil {
		return fmt.Errorf("failed to insert composite score for %s: %w", composite.BankID, err)
	}

	for _, pillar := range composite.Pillars {
		pillarDetails, err := json.Marshal(pillar.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal pillar metadata: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO pillar_scores (run_id, bank_id, pillar, score, rating, weight, period, details)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			runID, pillar.BankID, pillar.Pillar, pillar.Score, pillar.Rating,
			pillar.Weight, nullable(pillar.Period), pillarDetails)
		if err != nil {
			return fmt.Errorf("failed to insert pillar score %s/%s: %w", pillar.BankID, pillar.Pillar, err)
		}

		for _, indicator := range pillar.Indicators {
			indicatorDetails, err := json.Marshal(indicator.Metadata)
			if err != nil {
				return fmt.Errorf("failed to marshal indicator metadata: %w", err)
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO indicator_scores (
					run_id, bank_id, indicator_id, pillar, score, rating, weight,
					value, period, unit, source_id, normalization_run_id, details
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
				runID, indicator.BankID, indicator.IndicatorID, indicator.Pillar,
				indicator.Score, indicator.Rating, indicator.Weight, indicator.Value,
				nullable(indicator.Period), nullable(indicator.Unit),
				nullable(indicator.SourceID), nullable(indicator.NormalizationRunID),
				indicatorDetails)
			if err != nil {
				return fmt.Errorf("failed to insert indicator score %s/%s: %w",
					indicator.BankID, indicator.IndicatorID, err)
			}
		}
	}
	return nil
}

// LatestRun returns the run id of the most recently calculated composite
// scores, or "" when none exist.
func (r *ScoreRepo) LatestRun(ctx context.Context) (string, error) {
	var runID *string
	err := r.pool.QueryRow(ctx,
		`SELECT run_id FROM scores ORDER BY calculated_at DESC, id DESC LIMIT 1`).Scan(&runID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to query latest score run: %w", err)
	}
	if runID == nil {
		return "", nil
	}
	return *runID, nil
}

// CompositeScores loads the stored composite rows for a run, with their
// pillar and indicator children, ordered by bank id.
func (r *ScoreRepo) CompositeScores(ctx context.Context, runID string) ([]score.CompositeScore, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT bank_id, score, rating, COALESCE(period, ''), details
		FROM scores WHERE run_id = $1 ORDER BY bank_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query composite scores: %w", err)
	}
	defer rows.Close()

	var composites []score.CompositeScore
	for rows.Next() {
		var composite score.CompositeScore
		var details []byte
		if err := rows.Scan(&composite.BankID, &composite.Score, &composite.Rating,
			&composite.Period, &details); err != nil {
			return nil, fmt.Errorf("failed to scan composite score: %w", err)
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &composite.Metadata)
		}
		composites = append(composites, composite)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range composites {
		pillars, err := r.pillarScores(ctx, runID, composites[i].BankID)
		if err != nil {
			return nil, err
		}
		composites[i].Pillars = pillars
	}
	return composites, nil
}

func (r *ScoreRepo) pillarScores(ctx context.Context, runID, bankID string) ([]score.PillarScore, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pillar, score, rating, weight, COALESCE(period, ''), details
		FROM pillar_scores WHERE run_id = $1 AND bank_id = $2 ORDER BY id`, runID, bankID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pillar scores: %w", err)
	}
	defer rows.Close()

	var pillars []score.PillarScore
	for rows.Next() {
		pillar := score.PillarScore{BankID: bankID}
		var details []byte
		if err := rows.Scan(&pillar.Pillar, &pillar.Score, &pillar.Rating,
			&pillar.Weight, &pillar.Period, &details); err != nil {
			return nil, fmt.Errorf("failed to scan pillar score: %w", err)
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &pillar.Metadata)
		}
		pillars = append(pillars, pillar)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range pillars {
		indicators, err := r.indicatorScores(ctx, runID, bankID, pillars[i].Pillar)
		if err != nil {
			return nil, err
		}
		pillars[i].Indicators = indicators
	}
	return pillars, nil
}

func (r *ScoreRepo) indicatorScores(ctx context.Context, runID, bankID, pillar string) ([]score.IndicatorScore, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT indicator_id, score, rating, weight, value, COALESCE(period, ''),
			COALESCE(unit, ''), COALESCE(source_id, ''), COALESCE(normalization_run_id, ''), details
		FROM indicator_scores
		WHERE run_id = $1 AND bank_id = $2 AND pillar = $3 ORDER BY id`, runID, bankID, pillar)
	if err != nil {
		return nil, fmt.Errorf("failed to query indicator scores: %w", err)
	}
	defer rows.Close()

	var indicators []score.IndicatorScore
	for rows.Next() {
		indicator := score.IndicatorScore{BankID: bankID, Pillar: pillar}
		var details []byte
		if err := rows.Scan(&indicator.IndicatorID, &indicator.Score, &indicator.Rating,
			&indicator.Weight, &indicator.Value, &indicator.Period, &indicator.Unit,
			&indicator.SourceID, &indicator.NormalizationRunID, &details); err != nil {
			return nil, fmt.Errorf("failed to scan indicator score: %w", err)
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &indicator.Metadata)
		}
		indicators = append(indicators, indicator)
	}
	return indicators, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
