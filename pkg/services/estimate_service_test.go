package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/apperrors"
	"github.com/agrovista/agrovista-engine/pkg/models"
)

func forecastDay(t *testing.T, date string, etoValue float64) DailyWeather {
	t.Helper()
	return DailyWeather{Date: mustDate(t, date), ETo: floatPtr(etoValue)}
}

func TestCorrectedForProvider(t *testing.T) {
	manager := &stubProviderManager{data: map[models.WeatherProvider][]DailyWeather{
		models.ProviderOpenMeteo: {
			forecastDay(t, "2026-07-01", 4.0),
			forecastDay(t, "2026-07-02", 5.0),
		},
	}}
	calibration := &stubCalibrationService{apply: true, factor: 1.1}
	svc := NewEstimateService(manager, calibration, &stubPerformanceService{}, zap.NewNop())

	from, to := mustDate(t, "2026-07-01"), mustDate(t, "2026-07-02")
	estimates, err := svc.CorrectedForProvider(context.Background(), testLat, testLon, 14, models.ProviderOpenMeteo, from, to)
	require.NoError(t, err)
	require.Len(t, estimates, 2)

	assert.InDelta(t, 4.0, estimates[0].RawETo, 1e-9)
	assert.InDelta(t, 4.4, estimates[0].CorrectedETo, 1e-9)
	assert.True(t, estimates[0].Corrected)
	assert.InDelta(t, 5.5, estimates[1].CorrectedETo, 1e-9)
}

func TestCorrectedForProviderPassthroughWithoutCalibration(t *testing.T) {
	manager := &stubProviderManager{data: map[models.WeatherProvider][]DailyWeather{
		models.ProviderOpenMeteo: {forecastDay(t, "2026-07-01", 4.0)},
	}}
	svc := NewEstimateService(manager, &stubCalibrationService{}, &stubPerformanceService{}, zap.NewNop())

	from, to := mustDate(t, "2026-07-01"), mustDate(t, "2026-07-01")
	estimates, err := svc.CorrectedForProvider(context.Background(), testLat, testLon, 14, models.ProviderOpenMeteo, from, to)
	require.NoError(t, err)
	require.Len(t, estimates, 1)
	assert.False(t, estimates[0].Corrected)
	assert.InDelta(t, 4.0, estimates[0].CorrectedETo, 1e-9)
}

func TestCorrectedForProviderMissingForecast(t *testing.T) {
	manager := &stubProviderManager{data: map[models.WeatherProvider][]DailyWeather{}}
	svc := NewEstimateService(manager, &stubCalibrationService{}, &stubPerformanceService{}, zap.NewNop())

	from, to := mustDate(t, "2026-07-01"), mustDate(t, "2026-07-01")
	_, err := svc.CorrectedForProvider(context.Background(), testLat, testLon, 14, models.ProviderOpenMeteo, from, to)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCorrectedForProviderDerivesEToFromRawVariables(t *testing.T) {
	// No published ETo; the estimator must derive it from the daily variables.
	day := DailyWeather{
		Date:           mustDate(t, "2026-07-01"),
		TempMax:        31.5,
		TempMin:        24.0,
		RHMax:          85,
		RHMin:          60,
		WindSpeed:      floatPtr(2.3),
		SolarRadiation: 18.5,
	}
	manager := &stubProviderManager{data: map[models.WeatherProvider][]DailyWeather{
		models.ProviderOpenMeteo: {day},
	}}
	svc := NewEstimateService(manager, &stubCalibrationService{}, &stubPerformanceService{}, zap.NewNop())

	from, to := mustDate(t, "2026-07-01"), mustDate(t, "2026-07-01")
	estimates, err := svc.CorrectedForProvider(context.Background(), testLat, testLon, 14, models.ProviderOpenMeteo, from, to)
	require.NoError(t, err)
	require.Len(t, estimates, 1)
	assert.Greater(t, estimates[0].RawETo, 0.0)
}

func TestBlended(t *testing.T) {
	manager := &stubProviderManager{data: map[models.WeatherProvider][]DailyWeather{
		models.ProviderOpenMeteo:  {forecastDay(t, "2026-07-02", 4.0), forecastDay(t, "2026-07-01", 3.0)},
		models.ProviderTomorrowIO: {forecastDay(t, "2026-07-02", 6.0)},
	}}
	performance := &stubPerformanceService{weights: map[models.WeatherProvider]float64{
		models.ProviderOpenMeteo:  1.0,
		models.ProviderTomorrowIO: 0.5,
	}}
	svc := NewEstimateService(manager, &stubCalibrationService{}, performance, zap.NewNop())

	from, to := mustDate(t, "2026-07-01"), mustDate(t, "2026-07-02")
	estimates, err := svc.Blended(context.Background(), testLat, testLon, 14, from, to)
	require.NoError(t, err)
	require.Len(t, estimates, 2)

	// Output is ordered by date.
	assert.True(t, estimates[0].Date.Before(estimates[1].Date))

	// Day one has a single contributor.
	assert.InDelta(t, 3.0, estimates[0].ETo, 1e-9)

	// Day two blends 4.0 at weight 1.0 with 6.0 at weight 0.5.
	assert.InDelta(t, (4.0*1.0+6.0*0.5)/1.5, estimates[1].ETo, 1e-9)
	assert.InDelta(t, 1.0, estimates[1].Weights[models.ProviderOpenMeteo], 1e-9)
	assert.InDelta(t, 0.5, estimates[1].Weights[models.ProviderTomorrowIO], 1e-9)
}

func TestBlendedUnknownProviderGetsNeutralWeight(t *testing.T) {
	manager := &stubProviderManager{data: map[models.WeatherProvider][]DailyWeather{
		models.ProviderVisualCrossing: {forecastDay(t, "2026-07-01", 4.0)},
	}}
	// Weights map omits the contributing provider entirely.
	performance := &stubPerformanceService{weights: map[models.WeatherProvider]float64{}}
	svc := NewEstimateService(manager, &stubCalibrationService{}, performance, zap.NewNop())

	from, to := mustDate(t, "2026-07-01"), mustDate(t, "2026-07-01")
	estimates, err := svc.Blended(context.Background(), testLat, testLon, 14, from, to)
	require.NoError(t, err)
	require.Len(t, estimates, 1)
	assert.InDelta(t, 4.0, estimates[0].ETo, 1e-9)
	assert.InDelta(t, neutralProviderWeight, estimates[0].Weights[models.ProviderVisualCrossing], 1e-9)
}

func TestBlendedNoForecasts(t *testing.T) {
	manager := &stubProviderManager{data: map[models.WeatherProvider][]DailyWeather{}}
	svc := NewEstimateService(manager, &stubCalibrationService{}, &stubPerformanceService{}, zap.NewNop())

	from, to := mustDate(t, "2026-07-01"), mustDate(t, "2026-07-01")
	_, err := svc.Blended(context.Background(), testLat, testLon, 14, from, to)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBlendedMergesDifferentTimestampsOnSameDay(t *testing.T) {
	morning := DailyWeather{Date: mustDate(t, "2026-07-01").Add(6 * time.Hour), ETo: floatPtr(4.0)}
	noon := DailyWeather{Date: mustDate(t, "2026-07-01").Add(12 * time.Hour), ETo: floatPtr(6.0)}
	manager := &stubProviderManager{data: map[models.WeatherProvider][]DailyWeather{
		models.ProviderOpenMeteo:  {morning},
		models.ProviderTomorrowIO: {noon},
	}}
	performance := &stubPerformanceService{weights: map[models.WeatherProvider]float64{
		models.ProviderOpenMeteo:  1.0,
		models.ProviderTomorrowIO: 1.0,
	}}
	svc := NewEstimateService(manager, &stubCalibrationService{}, performance, zap.NewNop())

	from, to := mustDate(t, "2026-07-01"), mustDate(t, "2026-07-01")
	estimates, err := svc.Blended(context.Background(), testLat, testLon, 14, from, to)
	require.NoError(t, err)
	require.Len(t, estimates, 1)
	assert.InDelta(t, 5.0, estimates[0].ETo, 1e-9)
}
