package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/agrovista/agrovista-engine/pkg/database"
	"github.com/agrovista/agrovista-engine/pkg/models"
)

// ProviderPerformanceRepository provides data access for per-region provider
// accuracy aggregates.
type ProviderPerformanceRepository interface {
	Upsert(ctx context.Context, p *models.ProviderPerformance) error
	Get(ctx context.Context, regionKey string, provider models.WeatherProvider) (*models.ProviderPerformance, error)
	// ListByRegion returns all provider rows for a region ordered by
	// accuracy score descending.
	ListByRegion(ctx context.Context, regionKey string) ([]*models.ProviderPerformance, error)
}

type providerPerformanceRepository struct {
	db *database.DB
}

// NewProviderPerformanceRepository creates a new ProviderPerformanceRepository.
func NewProviderPerformanceRepository(db *database.DB) ProviderPerformanceRepository {
	return &providerPerformanceRepository{db: db}
}

var _ ProviderPerformanceRepository = (*providerPerformanceRepository)(nil)

func (r *providerPerformanceRepository) Upsert(ctx context.Context, p *models.ProviderPerformance) error {
	query := `
		INSERT INTO provider_performance (
			region_key, provider, rmse, mae, r2, accuracy_score,
			validation_count, period_start, period_end, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (region_key, provider)
		DO UPDATE SET
			rmse = EXCLUDED.rmse,
			mae = EXCLUDED.mae,
			r2 = EXCLUDED.r2,
			accuracy_score = EXCLUDED.accuracy_score,
			validation_count = EXCLUDED.validation_count,
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			last_updated = EXCLUDED.last_updated`

	_, err := r.db.Exec(ctx, query,
		p.RegionKey,
		p.Provider,
		p.RMSE,
		p.MAE,
		p.R2,
		p.AccuracyScore,
		p.ValidationCount,
		p.PeriodStart,
		p.PeriodEnd,
		p.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert provider performance: %w", err)
	}

	return nil
}

func (r *providerPerformanceRepository) Get(ctx context.Context, regionKey string, provider models.WeatherProvider) (*models.ProviderPerformance, error) {
	query := `
		SELECT region_key, provider, rmse, mae, r2, accuracy_score,
		       validation_count, period_start, period_end, last_updated
		FROM provider_performance
		WHERE region_key = $1 AND provider = $2`

	row := r.db.QueryRow(ctx, query, regionKey, provider)
	p, err := scanPerformance(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // No performance data for this provider yet
		}
		return nil, err
	}

	return p, nil
}

func (r *providerPerformanceRepository) ListByRegion(ctx context.Context, regionKey string) ([]*models.ProviderPerformance, error) {
	query := `
		SELECT region_key, provider, rmse, mae, r2, accuracy_score,
		       validation_count, period_start, period_end, last_updated
		FROM provider_performance
		WHERE region_key = $1
		ORDER BY accuracy_score DESC`

	rows, err := r.db.Query(ctx, query, regionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query provider performance: %w", err)
	}
	defer rows.Close()

	var records []*models.ProviderPerformance
	for rows.Next() {
		p, err := scanPerformance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provider performance: %w", err)
	}

	return records, nil
}

func scanPerformance(row pgx.Row) (*models.ProviderPerformance, error) {
	var p models.ProviderPerformance
	err := row.Scan(
		&p.RegionKey,
		&p.Provider,
		&p.RMSE,
		&p.MAE,
		&p.R2,
		&p.AccuracyScore,
		&p.ValidationCount,
		&p.PeriodStart,
		&p.PeriodEnd,
		&p.LastUpdated,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan provider performance: %w", err)
	}
	return &p, nil
}
