package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/agrovista/agrovista-engine/pkg/auth"
	"github.com/agrovista/agrovista-engine/pkg/models"
	"github.com/agrovista/agrovista-engine/pkg/services"
)

// stubValidator accepts the literal token "valid-token" and rejects all
// others, simulating the JWKS validator.
type stubValidator struct{}

func (stubValidator) ValidateToken(tokenString string) (*auth.Claims, error) {
	if tokenString != "valid-token" {
		return nil, errors.New("invalid token")
	}
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}, nil
}

// stubValidationService is a canned services.ValidationService.
type stubValidationService struct {
	record     *models.ETOValidation
	recordErr  error
	lastInput  services.RecordValidationInput
	history    []*models.ETOValidation
	historyErr error
	stats      models.ValidationStats
}

var _ services.ValidationService = (*stubValidationService)(nil)

func (s *stubValidationService) Record(ctx context.Context, in services.RecordValidationInput) (*models.ETOValidation, error) {
	s.lastInput = in
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	return s.record, nil
}

func (s *stubValidationService) History(_ context.Context, _ uuid.UUID, _ int) ([]*models.ETOValidation, error) {
	return s.history, s.historyErr
}

func (s *stubValidationService) Stats(_ []*models.ETOValidation) models.ValidationStats {
	return s.stats
}

func (s *stubValidationService) FarmStats(_ context.Context, _ uuid.UUID) (models.ValidationStats, error) {
	return s.stats, nil
}

// stubAccuracyService is a canned services.AccuracyService.
type stubAccuracyService struct {
	summary    *services.AccuracySummary
	summaryErr error
}

var _ services.AccuracyService = (*stubAccuracyService)(nil)

func (s *stubAccuracyService) LevelForFarm(_ context.Context, _ uuid.UUID) (models.AccuracyLevel, error) {
	if s.summaryErr != nil {
		return models.AccuracyBasic, s.summaryErr
	}
	return s.summary.Level, nil
}

func (s *stubAccuracyService) ProgressToNext(level models.AccuracyLevel, validationCount int, hasSensorData bool) float64 {
	return models.ProgressToNext(level, validationCount, hasSensorData)
}

func (s *stubAccuracyService) Summary(_ context.Context, _ uuid.UUID) (*services.AccuracySummary, error) {
	return s.summary, s.summaryErr
}

// stubCalibrationService is a canned services.CalibrationService.
type stubCalibrationService struct {
	calibration  *models.RegionalCalibration
	lookupErr    error
	recomputeErr error
	recomputes   int
	factor       float64
}

var _ services.CalibrationService = (*stubCalibrationService)(nil)

func (s *stubCalibrationService) Recompute(_ context.Context, _, _ float64, _ models.WeatherProvider) error {
	s.recomputes++
	return s.recomputeErr
}

func (s *stubCalibrationService) Lookup(_ context.Context, _, _ float64, _ models.WeatherProvider, _ *models.Season) (*models.RegionalCalibration, error) {
	return s.calibration, s.lookupErr
}

func (s *stubCalibrationService) CorrectedEstimate(_ context.Context, _, _ float64, _ models.WeatherProvider, _ time.Time, apiETo float64) float64 {
	if s.factor == 0 {
		return apiETo
	}
	return apiETo * s.factor
}

// stubEstimateService is a canned services.EstimateService.
type stubEstimateService struct {
	estimates    []services.ETOEstimate
	estimatesErr error
	blended      []services.BlendedEstimate
	blendedErr   error
}

var _ services.EstimateService = (*stubEstimateService)(nil)

func (s *stubEstimateService) CorrectedForProvider(_ context.Context, _, _, _ float64, _ models.WeatherProvider, _, _ time.Time) ([]services.ETOEstimate, error) {
	return s.estimates, s.estimatesErr
}

func (s *stubEstimateService) Blended(_ context.Context, _, _, _ float64, _, _ time.Time) ([]services.BlendedEstimate, error) {
	return s.blended, s.blendedErr
}
