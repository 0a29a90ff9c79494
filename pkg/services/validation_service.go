package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/apperrors"
	"github.com/agrovista/agrovista-engine/pkg/auth"
	"github.com/agrovista/agrovista-engine/pkg/metrics"
	"github.com/agrovista/agrovista-engine/pkg/models"
	"github.com/agrovista/agrovista-engine/pkg/repositories"
)

const (
	defaultValidationConfidence = 0.8
	defaultHistoryLimit         = 50
)

// RecordValidationInput carries one provider-vs-measured comparison event.
type RecordValidationInput struct {
	FarmID      uuid.UUID
	Provider    string
	APIETo      float64
	MeasuredETo float64
	Latitude    float64
	Longitude   float64
	Date        time.Time
	Source      models.ValidationSource
	Confidence  *float64
	Context     map[string]any
}

// ValidationService maintains the append-only validation ledger.
type ValidationService interface {
	// Record appends one validation and triggers a calibration and
	// performance recompute for the affected region. Requires an
	// authenticated actor.
	Record(ctx context.Context, in RecordValidationInput) (*models.ETOValidation, error)

	// History returns a farm's validations ordered by date descending.
	History(ctx context.Context, farmID uuid.UUID, limit int) ([]*models.ETOValidation, error)

	// Stats derives error statistics over a record set.
	Stats(records []*models.ETOValidation) models.ValidationStats

	// FarmStats is History followed by Stats.
	FarmStats(ctx context.Context, farmID uuid.UUID) (models.ValidationStats, error)
}

type validationService struct {
	validations repositories.ValidationRepository
	calibration CalibrationService
	performance ProviderPerformanceService
	logger      *zap.Logger
}

// NewValidationService creates a new ValidationService.
func NewValidationService(
	validations repositories.ValidationRepository,
	calibration CalibrationService,
	performance ProviderPerformanceService,
	logger *zap.Logger,
) ValidationService {
	return &validationService{
		validations: validations,
		calibration: calibration,
		performance: performance,
		logger:      logger.Named("validation-service"),
	}
}

var _ ValidationService = (*validationService)(nil)

func (s *validationService) Record(ctx context.Context, in RecordValidationInput) (*models.ETOValidation, error) {
	userID, err := auth.RequireUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	provider, err := models.ParseProvider(in.Provider)
	if err != nil {
		return nil, err
	}

	confidence := defaultValidationConfidence
	if in.Confidence != nil {
		confidence = *in.Confidence
	}
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %.2f outside [0,1]", apperrors.ErrInvalidInput, confidence)
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: missing validation date", apperrors.ErrInvalidInput)
	}

	record := &models.ETOValidation{
		FarmID:      in.FarmID,
		Date:        in.Date,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		RegionKey:   models.RegionKey(in.Latitude, in.Longitude),
		Provider:    provider,
		APIETo:      in.APIETo,
		MeasuredETo: in.MeasuredETo,
		Source:      in.Source,
		Confidence:  confidence,
		Context:     in.Context,
		CreatedBy:   userID,
	}

	if err := s.validations.Create(ctx, record); err != nil {
		s.logger.Error("Failed to record validation",
			zap.String("farm_id", in.FarmID.String()),
			zap.String("provider", provider.String()),
			zap.Error(err))
		return nil, fmt.Errorf("record validation: %w", err)
	}

	metrics.ValidationsRecorded.WithLabelValues(provider.String(), string(record.Source)).Inc()

	// The record itself is durable; a failed recompute only delays the next
	// calibration refresh, so it is logged rather than surfaced.
	if err := s.calibration.Recompute(ctx, in.Latitude, in.Longitude, provider); err != nil {
		s.logger.Warn("Calibration recompute after record failed",
			zap.String("region_key", record.RegionKey),
			zap.String("provider", provider.String()),
			zap.Error(err))
	}
	if err := s.performance.Recompute(ctx, in.Latitude, in.Longitude, provider); err != nil {
		s.logger.Warn("Performance recompute after record failed",
			zap.String("region_key", record.RegionKey),
			zap.String("provider", provider.String()),
			zap.Error(err))
	}

	return record, nil
}

func (s *validationService) History(ctx context.Context, farmID uuid.UUID, limit int) ([]*models.ETOValidation, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	records, err := s.validations.GetByFarm(ctx, farmID, limit)
	if err != nil {
		s.logger.Warn("Failed to load validation history, returning empty",
			zap.String("farm_id", farmID.String()),
			zap.Error(err))
		return []*models.ETOValidation{}, nil
	}
	return records, nil
}

func (s *validationService) Stats(records []*models.ETOValidation) models.ValidationStats {
	return models.ComputeStats(records)
}

func (s *validationService) FarmStats(ctx context.Context, farmID uuid.UUID) (models.ValidationStats, error) {
	records, err := s.History(ctx, farmID, defaultHistoryLimit)
	if err != nil {
		return models.ValidationStats{}, err
	}
	return models.ComputeStats(records), nil
}
