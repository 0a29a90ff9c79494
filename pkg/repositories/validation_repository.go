package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agrovista/agrovista-engine/pkg/database"
	"github.com/agrovista/agrovista-engine/pkg/models"
)

// ValidationRepository provides data access for the append-only validation
// ledger. There is deliberately no update or delete: comparison events are
// immutable once written.
type ValidationRepository interface {
	Create(ctx context.Context, v *models.ETOValidation) error
	GetByFarm(ctx context.Context, farmID uuid.UUID, limit int) ([]*models.ETOValidation, error)
	GetByRegionAndProvider(ctx context.Context, regionKey string, provider models.WeatherProvider) ([]*models.ETOValidation, error)
	CountByFarm(ctx context.Context, farmID uuid.UUID) (int, error)
}

type validationRepository struct {
	db *database.DB
}

// NewValidationRepository creates a new ValidationRepository.
func NewValidationRepository(db *database.DB) ValidationRepository {
	return &validationRepository{db: db}
}

var _ ValidationRepository = (*validationRepository)(nil)

func (r *validationRepository) Create(ctx context.Context, v *models.ETOValidation) error {
	query := `
		INSERT INTO eto_validations (
			farm_id, date, latitude, longitude, region_key, provider,
			api_eto, measured_eto, validation_source, confidence, context,
			created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`

	now := time.Now()
	err := r.db.QueryRow(ctx, query,
		v.FarmID,
		v.Date,
		v.Latitude,
		v.Longitude,
		v.RegionKey,
		v.Provider,
		v.APIETo,
		v.MeasuredETo,
		v.Source,
		v.Confidence,
		jsonbValue(v.Context),
		v.CreatedBy,
		now,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create validation record: %w", err)
	}

	return nil
}

func (r *validationRepository) GetByFarm(ctx context.Context, farmID uuid.UUID, limit int) ([]*models.ETOValidation, error) {
	query := `
		SELECT id, farm_id, date, latitude, longitude, region_key, provider,
		       api_eto, measured_eto, validation_source, confidence, context,
		       created_by, created_at
		FROM eto_validations
		WHERE farm_id = $1
		ORDER BY date DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, farmID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query validations: %w", err)
	}
	defer rows.Close()

	return collectValidations(rows)
}

func (r *validationRepository) GetByRegionAndProvider(ctx context.Context, regionKey string, provider models.WeatherProvider) ([]*models.ETOValidation, error) {
	query := `
		SELECT id, farm_id, date, latitude, longitude, region_key, provider,
		       api_eto, measured_eto, validation_source, confidence, context,
		       created_by, created_at
		FROM eto_validations
		WHERE region_key = $1 AND provider = $2
		ORDER BY date`

	rows, err := r.db.Query(ctx, query, regionKey, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to query validations by region: %w", err)
	}
	defer rows.Close()

	return collectValidations(rows)
}

func (r *validationRepository) CountByFarm(ctx context.Context, farmID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM eto_validations WHERE farm_id = $1`, farmID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count validations: %w", err)
	}
	return count, nil
}

func collectValidations(rows pgx.Rows) ([]*models.ETOValidation, error) {
	var records []*models.ETOValidation
	for rows.Next() {
		v, err := scanValidation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating validations: %w", err)
	}
	return records, nil
}

func scanValidation(row pgx.Row) (*models.ETOValidation, error) {
	var v models.ETOValidation
	var contextJSON []byte

	err := row.Scan(
		&v.ID,
		&v.FarmID,
		&v.Date,
		&v.Latitude,
		&v.Longitude,
		&v.RegionKey,
		&v.Provider,
		&v.APIETo,
		&v.MeasuredETo,
		&v.Source,
		&v.Confidence,
		&contextJSON,
		&v.CreatedBy,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan validation record: %w", err)
	}

	if len(contextJSON) > 0 && string(contextJSON) != "null" {
		if err := json.Unmarshal(contextJSON, &v.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal validation context: %w", err)
		}
	}

	return &v, nil
}

// jsonbValue converts a map to JSONB for insertion, storing NULL when empty.
func jsonbValue(m map[string]any) any {
	if len(m) == 0 {
		return nil
	}
	return m
}
