package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/auth"
	"github.com/agrovista/agrovista-engine/pkg/metrics"
	"github.com/agrovista/agrovista-engine/pkg/models"
	"github.com/agrovista/agrovista-engine/pkg/repositories"
)

// minCorrectionConfidence is the calibration confidence below which a
// correction factor is not applied to estimates.
const minCorrectionConfidence = 0.3

// CalibrationService maintains the regional-seasonal calibration store. It is
// the only writer of calibration rows; everyone else reads.
type CalibrationService interface {
	// Recompute rebuilds every qualifying (region, provider, season) row
	// from the full validation history of the region. Season groups with
	// fewer than models.MinCalibrationSamples members are skipped and any
	// existing row for them is left untouched.
	Recompute(ctx context.Context, lat, lon float64, provider models.WeatherProvider) error

	// Lookup returns the calibration for the exact triple, or nil when none
	// exists. A nil season defaults to the season of the current date.
	Lookup(ctx context.Context, lat, lon float64, provider models.WeatherProvider, season *models.Season) (*models.RegionalCalibration, error)

	// CorrectedEstimate applies the regional correction factor to a
	// provider estimate for the given date. When no sufficiently confident
	// calibration exists the raw estimate passes through unchanged.
	CorrectedEstimate(ctx context.Context, lat, lon float64, provider models.WeatherProvider, date time.Time, apiETo float64) float64
}

type calibrationService struct {
	validations  repositories.ValidationRepository
	calibrations repositories.CalibrationRepository
	clock        clockwork.Clock
	logger       *zap.Logger
}

// NewCalibrationService creates a new CalibrationService.
func NewCalibrationService(
	validations repositories.ValidationRepository,
	calibrations repositories.CalibrationRepository,
	clock clockwork.Clock,
	logger *zap.Logger,
) CalibrationService {
	return &calibrationService{
		validations:  validations,
		calibrations: calibrations,
		clock:        clock,
		logger:       logger.Named("calibration-service"),
	}
}

var _ CalibrationService = (*calibrationService)(nil)

func (s *calibrationService) Recompute(ctx context.Context, lat, lon float64, provider models.WeatherProvider) error {
	if _, err := auth.RequireUserIDFromContext(ctx); err != nil {
		return err
	}

	regionKey := models.RegionKey(lat, lon)

	// The whole aggregate is computed from one snapshot before any write,
	// so a cancelled recompute never leaves a partially-written row, and
	// identical snapshots always produce identical rows.
	records, err := s.validations.GetByRegionAndProvider(ctx, regionKey, provider)
	if err != nil {
		s.logger.Error("Failed to load validation snapshot for recompute",
			zap.String("region_key", regionKey),
			zap.String("provider", provider.String()),
			zap.Error(err))
		return fmt.Errorf("load validations for recompute: %w", err)
	}

	groups := make(map[models.Season][]*models.ETOValidation)
	for _, v := range records {
		season := models.SeasonForDate(v.Date)
		groups[season] = append(groups[season], v)
	}

	now := s.clock.Now()
	for _, season := range models.AllSeasons() {
		group := groups[season]
		if len(group) < models.MinCalibrationSamples {
			if len(group) > 0 {
				metrics.CalibrationSeasonsSkipped.Inc()
				s.logger.Debug("Skipping season with insufficient samples",
					zap.String("region_key", regionKey),
					zap.String("provider", provider.String()),
					zap.String("season", season.String()),
					zap.Int("samples", len(group)))
			}
			continue
		}

		calibration, ok := buildCalibration(regionKey, provider, season, group, now)
		if !ok {
			s.logger.Warn("Season group had no usable ratios, skipping",
				zap.String("region_key", regionKey),
				zap.String("season", season.String()))
			continue
		}

		if err := s.calibrations.Upsert(ctx, calibration); err != nil {
			s.logger.Error("Failed to upsert calibration",
				zap.String("region_key", regionKey),
				zap.String("provider", provider.String()),
				zap.String("season", season.String()),
				zap.Error(err))
			return fmt.Errorf("upsert calibration for %s/%s/%s: %w", regionKey, provider, season, err)
		}
	}

	metrics.CalibrationRecomputes.WithLabelValues(provider.String()).Inc()
	return nil
}

// buildCalibration folds one season group into a calibration row. Pairs with
// a zero provider estimate cannot contribute a measured/api ratio and are
// excluded from the correction factor only; their errors still count toward
// bias, rmse and mae. Returns ok=false when no pair yields a usable ratio.
func buildCalibration(regionKey string, provider models.WeatherProvider, season models.Season, group []*models.ETOValidation, now time.Time) (*models.RegionalCalibration, bool) {
	var ratioSum float64
	ratioCount := 0
	for _, v := range group {
		if v.APIETo == 0 {
			continue
		}
		ratioSum += v.MeasuredETo / v.APIETo
		ratioCount++
	}
	if ratioCount == 0 {
		return nil, false
	}

	stats := models.ComputeStats(group)

	return &models.RegionalCalibration{
		RegionKey:        regionKey,
		Provider:         provider,
		Season:           season,
		CorrectionFactor: ratioSum / float64(ratioCount),
		Bias:             stats.AvgError,
		SampleSize:       len(group),
		Confidence:       models.CalibrationConfidence(len(group)),
		RMSE:             stats.RMSE,
		MAE:              stats.MAE,
		LastUpdated:      now,
	}, true
}

func (s *calibrationService) Lookup(ctx context.Context, lat, lon float64, provider models.WeatherProvider, season *models.Season) (*models.RegionalCalibration, error) {
	regionKey := models.RegionKey(lat, lon)

	effective := models.SeasonForDate(s.clock.Now())
	if season != nil {
		effective = *season
	}

	calibration, err := s.calibrations.Get(ctx, regionKey, provider, effective)
	if err != nil {
		// Read path degrades softly: a missing calibration must never
		// break a dashboard render.
		s.logger.Warn("Calibration lookup failed",
			zap.String("region_key", regionKey),
			zap.String("provider", provider.String()),
			zap.String("season", effective.String()),
			zap.Error(err))
		return nil, nil
	}

	if calibration == nil {
		metrics.CalibrationLookups.WithLabelValues("miss").Inc()
	} else {
		metrics.CalibrationLookups.WithLabelValues("hit").Inc()
	}
	return calibration, nil
}

func (s *calibrationService) CorrectedEstimate(ctx context.Context, lat, lon float64, provider models.WeatherProvider, date time.Time, apiETo float64) float64 {
	season := models.SeasonForDate(date)
	calibration, _ := s.Lookup(ctx, lat, lon, provider, &season)
	if calibration == nil || calibration.Confidence < minCorrectionConfidence {
		return apiETo
	}
	return apiETo * calibration.CorrectionFactor
}
