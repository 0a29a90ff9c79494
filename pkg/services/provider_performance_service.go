package services

import (
	"context"
	"fmt"
	"math"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/auth"
	"github.com/agrovista/agrovista-engine/pkg/models"
	"github.com/agrovista/agrovista-engine/pkg/repositories"
)

// Weight bounds for ranked providers and the neutral default for providers
// the region has never evaluated. An unevaluated source must never be zeroed
// out of an ensemble.
const (
	minProviderWeight     = 0.1
	maxProviderWeight     = 1.0
	neutralProviderWeight = 0.5
)

// ProviderPerformanceService ranks weather providers per spatial cell and
// derives ensemble blend weights from their historical accuracy.
type ProviderPerformanceService interface {
	// Recompute rebuilds the performance aggregate for (region, provider)
	// from the region's full validation history.
	Recompute(ctx context.Context, lat, lon float64, provider models.WeatherProvider) error

	// Ranked returns the region's provider rows sorted by accuracy score
	// descending.
	Ranked(ctx context.Context, lat, lon float64) ([]*models.ProviderPerformance, error)

	// Best returns the top-ranked provider for the region, or nil when the
	// region has no performance data; callers fall back to the configured
	// default provider.
	Best(ctx context.Context, lat, lon float64) (*models.ProviderPerformance, error)

	// Weights returns an ensemble blend weight for every known provider.
	Weights(ctx context.Context, lat, lon float64) (map[models.WeatherProvider]float64, error)
}

type providerPerformanceService struct {
	validations repositories.ValidationRepository
	performance repositories.ProviderPerformanceRepository
	clock       clockwork.Clock
	logger      *zap.Logger
}

// NewProviderPerformanceService creates a new ProviderPerformanceService.
func NewProviderPerformanceService(
	validations repositories.ValidationRepository,
	performance repositories.ProviderPerformanceRepository,
	clock clockwork.Clock,
	logger *zap.Logger,
) ProviderPerformanceService {
	return &providerPerformanceService{
		validations: validations,
		performance: performance,
		clock:       clock,
		logger:      logger.Named("provider-performance-service"),
	}
}

var _ ProviderPerformanceService = (*providerPerformanceService)(nil)

func (s *providerPerformanceService) Recompute(ctx context.Context, lat, lon float64, provider models.WeatherProvider) error {
	if _, err := auth.RequireUserIDFromContext(ctx); err != nil {
		return err
	}

	regionKey := models.RegionKey(lat, lon)
	records, err := s.validations.GetByRegionAndProvider(ctx, regionKey, provider)
	if err != nil {
		return fmt.Errorf("load validations for performance recompute: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	stats := models.ComputeStats(records)
	r2 := rSquared(records)

	perf := &models.ProviderPerformance{
		RegionKey:       regionKey,
		Provider:        provider,
		RMSE:            stats.RMSE,
		MAE:             stats.MAE,
		R2:              r2,
		AccuracyScore:   models.AccuracyScore(stats.RMSE, stats.MAE, r2),
		ValidationCount: len(records),
		PeriodStart:     records[0].Date,
		PeriodEnd:       records[0].Date,
		LastUpdated:     s.clock.Now(),
	}
	for _, v := range records {
		if v.Date.Before(perf.PeriodStart) {
			perf.PeriodStart = v.Date
		}
		if v.Date.After(perf.PeriodEnd) {
			perf.PeriodEnd = v.Date
		}
	}

	if err := s.performance.Upsert(ctx, perf); err != nil {
		s.logger.Error("Failed to upsert provider performance",
			zap.String("region_key", regionKey),
			zap.String("provider", provider.String()),
			zap.Error(err))
		return fmt.Errorf("upsert provider performance: %w", err)
	}

	return nil
}

// rSquared measures how well provider estimates explain the variance of the
// measured values. Returns 0 when the measured values have no variance.
func rSquared(records []*models.ETOValidation) float64 {
	var sumMeasured float64
	for _, v := range records {
		sumMeasured += v.MeasuredETo
	}
	mean := sumMeasured / float64(len(records))

	var ssRes, ssTot float64
	for _, v := range records {
		ssRes += (v.MeasuredETo - v.APIETo) * (v.MeasuredETo - v.APIETo)
		ssTot += (v.MeasuredETo - mean) * (v.MeasuredETo - mean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func (s *providerPerformanceService) Ranked(ctx context.Context, lat, lon float64) ([]*models.ProviderPerformance, error) {
	regionKey := models.RegionKey(lat, lon)
	records, err := s.performance.ListByRegion(ctx, regionKey)
	if err != nil {
		s.logger.Warn("Failed to load provider ranking, returning empty",
			zap.String("region_key", regionKey),
			zap.Error(err))
		return []*models.ProviderPerformance{}, nil
	}
	return records, nil
}

func (s *providerPerformanceService) Best(ctx context.Context, lat, lon float64) (*models.ProviderPerformance, error) {
	ranked, err := s.Ranked(ctx, lat, lon)
	if err != nil || len(ranked) == 0 {
		return nil, err
	}
	return ranked[0], nil
}

func (s *providerPerformanceService) Weights(ctx context.Context, lat, lon float64) (map[models.WeatherProvider]float64, error) {
	ranked, err := s.Ranked(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	weights := make(map[models.WeatherProvider]float64, len(models.AllProviders()))

	if len(ranked) == 0 {
		// Cold start: before any regional data exists every provider gets
		// its prior.
		for _, p := range models.AllProviders() {
			weights[p] = p.ColdStartWeight()
		}
		return weights, nil
	}

	scored := make(map[models.WeatherProvider]float64, len(ranked))
	for _, perf := range ranked {
		scored[perf.Provider] = perf.AccuracyScore
	}

	for _, p := range models.AllProviders() {
		score, ok := scored[p]
		if !ok {
			weights[p] = neutralProviderWeight
			continue
		}
		weights[p] = math.Min(maxProviderWeight, math.Max(minProviderWeight, score/100))
	}
	return weights, nil
}
