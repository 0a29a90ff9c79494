package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agrovista/agrovista-engine/pkg/apperrors"
	"github.com/agrovista/agrovista-engine/pkg/database"
	"github.com/agrovista/agrovista-engine/pkg/models"
)

// SensorReadingRepository provides data access for daily sensor readings.
type SensorReadingRepository interface {
	// Upsert writes a reading, replacing any existing row for (farm, date).
	Upsert(ctx context.Context, reading *models.SensorReading) error
	GetByFarmAndDate(ctx context.Context, farmID uuid.UUID, date time.Time) (*models.SensorReading, error)
	Range(ctx context.Context, farmID uuid.UUID, from, to time.Time) ([]*models.SensorReading, error)
	// Delete is an explicit operator action; readings are never removed
	// implicitly.
	Delete(ctx context.Context, farmID uuid.UUID, date time.Time) error
	// HasQualityCheckedData reports whether the farm has any
	// quality-checked readings, which feeds the accuracy classifier.
	HasQualityCheckedData(ctx context.Context, farmID uuid.UUID) (bool, error)
}

type sensorReadingRepository struct {
	db *database.DB
}

// NewSensorReadingRepository creates a new SensorReadingRepository.
func NewSensorReadingRepository(db *database.DB) SensorReadingRepository {
	return &sensorReadingRepository{db: db}
}

var _ SensorReadingRepository = (*sensorReadingRepository)(nil)

func (r *sensorReadingRepository) Upsert(ctx context.Context, reading *models.SensorReading) error {
	query := `
		INSERT INTO sensor_readings (
			farm_id, date, temp_max, temp_min, temp_current, humidity,
			wind_speed, solar_radiation, rainfall, source, quality_checked,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		ON CONFLICT (farm_id, date)
		DO UPDATE SET
			temp_max = EXCLUDED.temp_max,
			temp_min = EXCLUDED.temp_min,
			temp_current = EXCLUDED.temp_current,
			humidity = EXCLUDED.humidity,
			wind_speed = EXCLUDED.wind_speed,
			solar_radiation = EXCLUDED.solar_radiation,
			rainfall = EXCLUDED.rainfall,
			source = EXCLUDED.source,
			quality_checked = EXCLUDED.quality_checked,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at`

	now := time.Now()
	err := r.db.QueryRow(ctx, query,
		reading.FarmID,
		reading.Date,
		reading.TempMax,
		reading.TempMin,
		reading.TempCurrent,
		reading.Humidity,
		reading.WindSpeed,
		reading.SolarRadiation,
		reading.Rainfall,
		reading.Source,
		reading.QualityChecked,
		now,
	).Scan(&reading.ID, &reading.CreatedAt, &reading.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert sensor reading: %w", err)
	}

	return nil
}

func (r *sensorReadingRepository) GetByFarmAndDate(ctx context.Context, farmID uuid.UUID, date time.Time) (*models.SensorReading, error) {
	query := `
		SELECT id, farm_id, date, temp_max, temp_min, temp_current, humidity,
		       wind_speed, solar_radiation, rainfall, source, quality_checked,
		       created_at, updated_at
		FROM sensor_readings
		WHERE farm_id = $1 AND date = $2`

	row := r.db.QueryRow(ctx, query, farmID, date)
	reading, err := scanSensorReading(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // No reading for this day
		}
		return nil, err
	}

	return reading, nil
}

func (r *sensorReadingRepository) Range(ctx context.Context, farmID uuid.UUID, from, to time.Time) ([]*models.SensorReading, error) {
	query := `
		SELECT id, farm_id, date, temp_max, temp_min, temp_current, humidity,
		       wind_speed, solar_radiation, rainfall, source, quality_checked,
		       created_at, updated_at
		FROM sensor_readings
		WHERE farm_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date`

	rows, err := r.db.Query(ctx, query, farmID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor readings: %w", err)
	}
	defer rows.Close()

	var readings []*models.SensorReading
	for rows.Next() {
		reading, err := scanSensorReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sensor readings: %w", err)
	}

	return readings, nil
}

func (r *sensorReadingRepository) Delete(ctx context.Context, farmID uuid.UUID, date time.Time) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM sensor_readings WHERE farm_id = $1 AND date = $2`,
		farmID, date)
	if err != nil {
		return fmt.Errorf("failed to delete sensor reading: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *sensorReadingRepository) HasQualityCheckedData(ctx context.Context, farmID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM sensor_readings
			WHERE farm_id = $1 AND quality_checked = TRUE
		)`, farmID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check sensor data presence: %w", err)
	}
	return exists, nil
}

func scanSensorReading(row pgx.Row) (*models.SensorReading, error) {
	var s models.SensorReading
	err := row.Scan(
		&s.ID,
		&s.FarmID,
		&s.Date,
		&s.TempMax,
		&s.TempMin,
		&s.TempCurrent,
		&s.Humidity,
		&s.WindSpeed,
		&s.SolarRadiation,
		&s.Rainfall,
		&s.Source,
		&s.QualityChecked,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan sensor reading: %w", err)
	}
	return &s, nil
}
