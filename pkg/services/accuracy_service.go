package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/models"
	"github.com/agrovista/agrovista-engine/pkg/repositories"
)

// AccuracySummary is the dashboard payload describing a farm's calibration
// maturity. EstimatedErrorPercent is a published messaging heuristic, not a
// value measured from the farm's own error statistics.
type AccuracySummary struct {
	Level                 models.AccuracyLevel `json:"level"`
	EstimatedErrorPercent float64              `json:"estimated_error_percent"`
	ProgressToNext        float64              `json:"progress_to_next"`
	ValidationCount       int                  `json:"validation_count"`
	HasSensorData         bool                 `json:"has_sensor_data"`
}

// AccuracyService classifies a farm's calibration maturity. Levels are never
// stored; every query derives them fresh from the underlying signals, so a
// level can regress when readings are deleted.
type AccuracyService interface {
	LevelForFarm(ctx context.Context, farmID uuid.UUID) (models.AccuracyLevel, error)
	ProgressToNext(level models.AccuracyLevel, validationCount int, hasSensorData bool) float64
	Summary(ctx context.Context, farmID uuid.UUID) (*AccuracySummary, error)
}

type accuracyService struct {
	validations repositories.ValidationRepository
	sensors     repositories.SensorReadingRepository
	logger      *zap.Logger
}

// NewAccuracyService creates a new AccuracyService.
func NewAccuracyService(
	validations repositories.ValidationRepository,
	sensors repositories.SensorReadingRepository,
	logger *zap.Logger,
) AccuracyService {
	return &accuracyService{
		validations: validations,
		sensors:     sensors,
		logger:      logger.Named("accuracy-service"),
	}
}

var _ AccuracyService = (*accuracyService)(nil)

func (s *accuracyService) LevelForFarm(ctx context.Context, farmID uuid.UUID) (models.AccuracyLevel, error) {
	summary, err := s.Summary(ctx, farmID)
	if err != nil {
		return models.AccuracyBasic, err
	}
	return summary.Level, nil
}

func (s *accuracyService) ProgressToNext(level models.AccuracyLevel, validationCount int, hasSensorData bool) float64 {
	return models.ProgressToNext(level, validationCount, hasSensorData)
}

func (s *accuracyService) Summary(ctx context.Context, farmID uuid.UUID) (*AccuracySummary, error) {
	// Both signals degrade softly: a storage hiccup renders the farm as
	// uncalibrated rather than failing the dashboard.
	count, err := s.validations.CountByFarm(ctx, farmID)
	if err != nil {
		s.logger.Warn("Failed to count validations, treating as zero",
			zap.String("farm_id", farmID.String()),
			zap.Error(err))
		count = 0
	}

	hasSensor, err := s.sensors.HasQualityCheckedData(ctx, farmID)
	if err != nil {
		s.logger.Warn("Failed to check sensor presence, treating as absent",
			zap.String("farm_id", farmID.String()),
			zap.Error(err))
		hasSensor = false
	}

	level := models.DeriveAccuracyLevel(count, hasSensor)
	return &AccuracySummary{
		Level:                 level,
		EstimatedErrorPercent: level.EstimatedErrorPercent(),
		ProgressToNext:        models.ProgressToNext(level, count, hasSensor),
		ValidationCount:       count,
		HasSensorData:         hasSensor,
	}, nil
}
