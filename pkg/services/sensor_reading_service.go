package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/apperrors"
	"github.com/agrovista/agrovista-engine/pkg/auth"
	"github.com/agrovista/agrovista-engine/pkg/eto"
	"github.com/agrovista/agrovista-engine/pkg/metrics"
	"github.com/agrovista/agrovista-engine/pkg/models"
	"github.com/agrovista/agrovista-engine/pkg/repositories"
)

// SensorReadingService manages the per-farm daily observation store that
// supplies ground truth to the validation ledger.
type SensorReadingService interface {
	// Upsert writes a reading, replacing any existing one for the same
	// (farm, date). Requires an authenticated actor.
	Upsert(ctx context.Context, reading *models.SensorReading) error

	Range(ctx context.Context, farmID uuid.UUID, from, to time.Time) ([]*models.SensorReading, error)

	// Delete removes a reading. Explicit operator action only; requires an
	// authenticated actor.
	Delete(ctx context.Context, farmID uuid.UUID, date time.Time) error

	HasSensorData(ctx context.Context, farmID uuid.UUID) (bool, error)

	// MeasuredETo computes ground-truth ETo from a stored quality-checked
	// reading, the input for sensor_calculation validations.
	MeasuredETo(ctx context.Context, farmID uuid.UUID, date time.Time, lat, elevation float64) (float64, error)
}

type sensorReadingService struct {
	sensors repositories.SensorReadingRepository
	logger  *zap.Logger
}

// NewSensorReadingService creates a new SensorReadingService.
func NewSensorReadingService(sensors repositories.SensorReadingRepository, logger *zap.Logger) SensorReadingService {
	return &sensorReadingService{
		sensors: sensors,
		logger:  logger.Named("sensor-reading-service"),
	}
}

var _ SensorReadingService = (*sensorReadingService)(nil)

func (s *sensorReadingService) Upsert(ctx context.Context, reading *models.SensorReading) error {
	if _, err := auth.RequireUserIDFromContext(ctx); err != nil {
		return err
	}
	if reading.FarmID == uuid.Nil || reading.Date.IsZero() {
		return fmt.Errorf("%w: sensor reading needs farm and date", apperrors.ErrInvalidInput)
	}
	if reading.Source == "" {
		reading.Source = models.SensorSourceManual
	}

	if err := s.sensors.Upsert(ctx, reading); err != nil {
		s.logger.Error("Failed to upsert sensor reading",
			zap.String("farm_id", reading.FarmID.String()),
			zap.Time("date", reading.Date),
			zap.Error(err))
		return fmt.Errorf("upsert sensor reading: %w", err)
	}

	metrics.SensorReadingsUpserted.Inc()
	return nil
}

func (s *sensorReadingService) Range(ctx context.Context, farmID uuid.UUID, from, to time.Time) ([]*models.SensorReading, error) {
	readings, err := s.sensors.Range(ctx, farmID, from, to)
	if err != nil {
		s.logger.Warn("Failed to load sensor readings, returning empty",
			zap.String("farm_id", farmID.String()),
			zap.Error(err))
		return []*models.SensorReading{}, nil
	}
	return readings, nil
}

func (s *sensorReadingService) Delete(ctx context.Context, farmID uuid.UUID, date time.Time) error {
	if _, err := auth.RequireUserIDFromContext(ctx); err != nil {
		return err
	}

	if err := s.sensors.Delete(ctx, farmID, date); err != nil {
		if err != apperrors.ErrNotFound {
			s.logger.Error("Failed to delete sensor reading",
				zap.String("farm_id", farmID.String()),
				zap.Time("date", date),
				zap.Error(err))
		}
		return err
	}
	return nil
}

func (s *sensorReadingService) HasSensorData(ctx context.Context, farmID uuid.UUID) (bool, error) {
	return s.sensors.HasQualityCheckedData(ctx, farmID)
}

func (s *sensorReadingService) MeasuredETo(ctx context.Context, farmID uuid.UUID, date time.Time, lat, elevation float64) (float64, error) {
	reading, err := s.sensors.GetByFarmAndDate(ctx, farmID, date)
	if err != nil {
		return 0, fmt.Errorf("load sensor reading: %w", err)
	}
	if reading == nil {
		return 0, apperrors.ErrNotFound
	}
	if !reading.QualityChecked {
		return 0, fmt.Errorf("%w: reading for %s is not quality-checked", apperrors.ErrInvalidInput, date.Format("2006-01-02"))
	}
	if reading.TempMax == nil || reading.TempMin == nil || reading.Humidity == nil || reading.SolarRadiation == nil {
		return 0, fmt.Errorf("%w: reading for %s is missing variables required for ETo", apperrors.ErrInvalidInput, date.Format("2006-01-02"))
	}

	return eto.Calculate(eto.Input{
		Date:      reading.Date,
		Latitude:  lat,
		Elevation: elevation,
		TempMax:   *reading.TempMax,
		TempMin:   *reading.TempMin,
		// A single daily humidity observation bounds both sides.
		RHMax:          *reading.Humidity,
		RHMin:          *reading.Humidity,
		WindSpeed:      reading.WindSpeed,
		SolarRadiation: *reading.SolarRadiation,
	})
}
