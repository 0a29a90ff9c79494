package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/apperrors"
	"github.com/agrovista/agrovista-engine/pkg/eto"
	"github.com/agrovista/agrovista-engine/pkg/models"
)

// ETOEstimate is one corrected daily ETo value together with the calibration
// context it was produced under.
type ETOEstimate struct {
	Date         time.Time              `json:"date"`
	Provider     models.WeatherProvider `json:"provider"`
	RawETo       float64                `json:"raw_eto"`
	CorrectedETo float64                `json:"corrected_eto"`
	Corrected    bool                   `json:"corrected"`
}

// BlendedEstimate is the weight-averaged multi-provider estimate for one day.
type BlendedEstimate struct {
	Date      time.Time                          `json:"date"`
	ETo       float64                            `json:"eto"`
	Providers map[models.WeatherProvider]float64 `json:"providers"`
	Weights   map[models.WeatherProvider]float64 `json:"weights"`
}

// EstimateService produces corrected ETo estimates from provider forecasts.
// Raw provider values flow through the regional calibration store before they
// reach irrigation planning.
type EstimateService interface {
	// CorrectedForProvider fetches one provider's forecast for the range and
	// returns the region-corrected daily estimates.
	CorrectedForProvider(ctx context.Context, lat, lon, elevation float64, provider models.WeatherProvider, from, to time.Time) ([]ETOEstimate, error)

	// Blended fetches every available provider and averages their corrected
	// estimates using the region's accuracy-derived blend weights.
	Blended(ctx context.Context, lat, lon, elevation float64, from, to time.Time) ([]BlendedEstimate, error)
}

type estimateService struct {
	providers   WeatherProviderManager
	calibration CalibrationService
	performance ProviderPerformanceService
	logger      *zap.Logger
}

// NewEstimateService creates a new EstimateService.
func NewEstimateService(
	providers WeatherProviderManager,
	calibration CalibrationService,
	performance ProviderPerformanceService,
	logger *zap.Logger,
) EstimateService {
	return &estimateService{
		providers:   providers,
		calibration: calibration,
		performance: performance,
		logger:      logger.Named("estimate-service"),
	}
}

var _ EstimateService = (*estimateService)(nil)

func (s *estimateService) CorrectedForProvider(ctx context.Context, lat, lon, elevation float64, provider models.WeatherProvider, from, to time.Time) ([]ETOEstimate, error) {
	byProvider, err := s.providers.Daily(ctx, lat, lon, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch provider weather: %w", err)
	}

	days, ok := byProvider[provider]
	if !ok {
		return nil, fmt.Errorf("%w: no forecast from %s", apperrors.ErrNotFound, provider)
	}

	estimates := make([]ETOEstimate, 0, len(days))
	for _, day := range days {
		raw, err := s.rawETo(day, lat, elevation)
		if err != nil {
			s.logger.Warn("Skipping day with unusable weather variables",
				zap.String("provider", provider.String()),
				zap.Time("date", day.Date),
				zap.Error(err))
			continue
		}

		corrected := s.calibration.CorrectedEstimate(ctx, lat, lon, provider, day.Date, raw)
		estimates = append(estimates, ETOEstimate{
			Date:         day.Date,
			Provider:     provider,
			RawETo:       raw,
			CorrectedETo: corrected,
			Corrected:    corrected != raw,
		})
	}
	return estimates, nil
}

func (s *estimateService) Blended(ctx context.Context, lat, lon, elevation float64, from, to time.Time) ([]BlendedEstimate, error) {
	byProvider, err := s.providers.Daily(ctx, lat, lon, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch provider weather: %w", err)
	}
	if len(byProvider) == 0 {
		return nil, fmt.Errorf("%w: no provider returned a forecast", apperrors.ErrNotFound)
	}

	weights, err := s.performance.Weights(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("load provider weights: %w", err)
	}

	// Corrected values grouped per day; map key is midnight UTC so providers
	// reporting different time-of-day stamps still merge.
	type contribution struct {
		provider models.WeatherProvider
		eto      float64
	}
	byDay := make(map[time.Time][]contribution)

	for provider, days := range byProvider {
		for _, day := range days {
			raw, err := s.rawETo(day, lat, elevation)
			if err != nil {
				s.logger.Warn("Skipping day with unusable weather variables",
					zap.String("provider", provider.String()),
					zap.Time("date", day.Date),
					zap.Error(err))
				continue
			}
			corrected := s.calibration.CorrectedEstimate(ctx, lat, lon, provider, day.Date, raw)
			key := day.Date.UTC().Truncate(24 * time.Hour)
			byDay[key] = append(byDay[key], contribution{provider: provider, eto: corrected})
		}
	}

	estimates := make([]BlendedEstimate, 0, len(byDay))
	for date, contributions := range byDay {
		var weightedSum, weightSum float64
		providerValues := make(map[models.WeatherProvider]float64, len(contributions))
		dayWeights := make(map[models.WeatherProvider]float64, len(contributions))

		for _, c := range contributions {
			w, ok := weights[c.provider]
			if !ok {
				w = neutralProviderWeight
			}
			weightedSum += w * c.eto
			weightSum += w
			providerValues[c.provider] = c.eto
			dayWeights[c.provider] = w
		}
		if weightSum == 0 {
			continue
		}

		estimates = append(estimates, BlendedEstimate{
			Date:      date,
			ETo:       weightedSum / weightSum,
			Providers: providerValues,
			Weights:   dayWeights,
		})
	}

	sort.Slice(estimates, func(i, j int) bool {
		return estimates[i].Date.Before(estimates[j].Date)
	})
	return estimates, nil
}

// rawETo prefers the provider's own published ETo and otherwise derives it
// from the raw daily variables.
func (s *estimateService) rawETo(day DailyWeather, lat, elevation float64) (float64, error) {
	if day.ETo != nil {
		return *day.ETo, nil
	}
	return eto.Calculate(eto.Input{
		Date:           day.Date,
		Latitude:       lat,
		Elevation:      elevation,
		TempMax:        day.TempMax,
		TempMin:        day.TempMin,
		RHMax:          day.RHMax,
		RHMin:          day.RHMin,
		WindSpeed:      day.WindSpeed,
		SolarRadiation: day.SolarRadiation,
	})
}
