package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/agrovista/agrovista-engine/pkg/database"
	"github.com/agrovista/agrovista-engine/pkg/models"
)

// CalibrationRepository provides data access for regional calibration rows.
// Only the calibration recompute writes here; everything else reads.
type CalibrationRepository interface {
	// Upsert replaces the row for (region_key, provider, season) in full.
	// Stale data is never merged with fresh data.
	Upsert(ctx context.Context, c *models.RegionalCalibration) error
	Get(ctx context.Context, regionKey string, provider models.WeatherProvider, season models.Season) (*models.RegionalCalibration, error)
	GetByRegionAndProvider(ctx context.Context, regionKey string, provider models.WeatherProvider) ([]*models.RegionalCalibration, error)
}

type calibrationRepository struct {
	db *database.DB
}

// NewCalibrationRepository creates a new CalibrationRepository.
func NewCalibrationRepository(db *database.DB) CalibrationRepository {
	return &calibrationRepository{db: db}
}

var _ CalibrationRepository = (*calibrationRepository)(nil)

func (r *calibrationRepository) Upsert(ctx context.Context, c *models.RegionalCalibration) error {
	query := `
		INSERT INTO regional_calibrations (
			region_key, provider, season, correction_factor, bias,
			sample_size, confidence, rmse, mae, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (region_key, provider, season)
		DO UPDATE SET
			correction_factor = EXCLUDED.correction_factor,
			bias = EXCLUDED.bias,
			sample_size = EXCLUDED.sample_size,
			confidence = EXCLUDED.confidence,
			rmse = EXCLUDED.rmse,
			mae = EXCLUDED.mae,
			last_updated = EXCLUDED.last_updated`

	_, err := r.db.Exec(ctx, query,
		c.RegionKey,
		c.Provider,
		c.Season,
		c.CorrectionFactor,
		c.Bias,
		c.SampleSize,
		c.Confidence,
		c.RMSE,
		c.MAE,
		c.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert calibration: %w", err)
	}

	return nil
}

func (r *calibrationRepository) Get(ctx context.Context, regionKey string, provider models.WeatherProvider, season models.Season) (*models.RegionalCalibration, error) {
	query := `
		SELECT region_key, provider, season, correction_factor, bias,
		       sample_size, confidence, rmse, mae, last_updated
		FROM regional_calibrations
		WHERE region_key = $1 AND provider = $2 AND season = $3`

	row := r.db.QueryRow(ctx, query, regionKey, provider, season)
	c, err := scanCalibration(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // No calibration for this triple yet
		}
		return nil, err
	}

	return c, nil
}

func (r *calibrationRepository) GetByRegionAndProvider(ctx context.Context, regionKey string, provider models.WeatherProvider) ([]*models.RegionalCalibration, error) {
	query := `
		SELECT region_key, provider, season, correction_factor, bias,
		       sample_size, confidence, rmse, mae, last_updated
		FROM regional_calibrations
		WHERE region_key = $1 AND provider = $2
		ORDER BY season`

	rows, err := r.db.Query(ctx, query, regionKey, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to query calibrations: %w", err)
	}
	defer rows.Close()

	var calibrations []*models.RegionalCalibration
	for rows.Next() {
		c, err := scanCalibration(rows)
		if err != nil {
			return nil, err
		}
		calibrations = append(calibrations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating calibrations: %w", err)
	}

	return calibrations, nil
}

func scanCalibration(row pgx.Row) (*models.RegionalCalibration, error) {
	var c models.RegionalCalibration
	err := row.Scan(
		&c.RegionKey,
		&c.Provider,
		&c.Season,
		&c.CorrectionFactor,
		&c.Bias,
		&c.SampleSize,
		&c.Confidence,
		&c.RMSE,
		&c.MAE,
		&c.LastUpdated,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan calibration: %w", err)
	}
	return &c, nil
}
