package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"camels_monitor/pkg/core/registry"
)

// RegistryRepo synchronizes the seed bank registry and the static indicator
// catalog into the database.
type RegistryRepo struct {
	pool *pgxpool.Pool
}

// NewRegistryRepo wraps the shared pool; a nil pool falls back to the
// package-level one.
func NewRegistryRepo(pool *pgxpool.Pool) *RegistryRepo {
	if pool == nil {
		pool = GetPool()
	}
	return &RegistryRepo{pool: pool}
}

// SyncBanks upserts the seed registry by bank id.
func (r *RegistryRepo) SyncBanks(ctx context.Context, banks []registry.BankProfile) error {
	query := `
		INSERT INTO banks (bank_id, name, country, regulator)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (bank_id) DO UPDATE SET
			name = EXCLUDED.name,
			country = EXCLUDED.country,
			regulator = EXCLUDED.regulator,
			updated_at = now()
	`
	for _, bank := range banks {
		if _, err := r.pool.Exec(ctx, query, bank.BankID, bank.Name, bank.Country, bank.Regulator); err != nil {
			return fmt.Errorf("failed to sync bank %s: %w", bank.BankID, err)
		}
	}
	return nil
}

// SyncIndicators upserts the indicator catalog by indicator id.
func (r *RegistryRepo) SyncIndicators(ctx context.Context, defs []registry.IndicatorDefinition) error {
	query := `
		INSERT INTO indicators (indicator_id, name, pillar, unit, description, min_value, max_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (indicator_id) DO UPDATE SET
			name = EXCLUDED.name,
			pillar = EXCLUDED.pillar,
			unit = EXCLUDED.unit,
			description = EXCLUDED.description,
			min_value = EXCLUDED.min_value,
			max_value = EXCLUDED.max_value,
			updated_at = now()
	`
	for _, def := range defs {
		if _, err := r.pool.Exec(ctx, query,
			def.ID, def.Name, def.Pillar, def.Unit, def.Description, def.MinValue, def.MaxValue); err != nil {
			return fmt.Errorf("failed to sync indicator %s: %w", def.ID, err)
		}
	}
	return nil
}

// BankProfiles returns every registered bank ordered by id.
func (r *RegistryRepo) BankProfiles(ctx context.Context) ([]registry.BankProfile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT bank_id, name, country, regulator FROM banks ORDER BY bank_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load bank profiles: %w", err)
	}
	defer rows.Close()

	var banks []registry.BankProfile
	for rows.Next() {
		var bank registry.BankProfile
		if err := rows.Scan(&bank.BankID, &bank.Name, &bank.Country, &bank.Regulator); err != nil {
			return nil, fmt.Errorf("failed to scan bank profile: %w", err)
		}
		banks = append(banks, bank)
	}
	return banks, rows.Err()
}
