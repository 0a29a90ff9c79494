package services

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/apperrors"
	"github.com/agrovista/agrovista-engine/pkg/models"
)

func newTestValidationService(repo *memValidationRepo, calibration *stubCalibrationService, performance *stubPerformanceService) ValidationService {
	return NewValidationService(repo, calibration, performance, zap.NewNop())
}

func TestRecordValidation(t *testing.T) {
	repo := &memValidationRepo{}
	calibration := &stubCalibrationService{}
	performance := &stubPerformanceService{}
	svc := newTestValidationService(repo, calibration, performance)

	farmID := uuid.New()
	record, err := svc.Record(authedCtx(), RecordValidationInput{
		FarmID:      farmID,
		Provider:    "open_meteo",
		APIETo:      4.2,
		MeasuredETo: 4.8,
		Latitude:    19.076,
		Longitude:   72.877,
		Date:        mustDate(t, "2026-07-15"),
		Source:      models.SourceWeatherStation,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ProviderOpenMeteo, record.Provider)
	assert.Equal(t, "19.0_72.5", record.RegionKey)
	assert.Equal(t, 0.8, record.Confidence)
	assert.Equal(t, "user-1", record.CreatedBy)
	assert.NotEqual(t, uuid.Nil, record.ID)

	require.Len(t, repo.records, 1)
	assert.Equal(t, 1, calibration.recomputes)
	assert.Equal(t, 1, performance.recomputes)
}

func TestRecordValidationRequiresAuth(t *testing.T) {
	svc := newTestValidationService(&memValidationRepo{}, &stubCalibrationService{}, &stubPerformanceService{})

	_, err := svc.Record(context.Background(), RecordValidationInput{
		FarmID:   uuid.New(),
		Provider: "open_meteo",
		Date:     mustDate(t, "2026-07-15"),
	})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestRecordValidationRejectsBadInput(t *testing.T) {
	repo := &memValidationRepo{}
	svc := newTestValidationService(repo, &stubCalibrationService{}, &stubPerformanceService{})

	_, err := svc.Record(authedCtx(), RecordValidationInput{
		FarmID:   uuid.New(),
		Provider: "accuweather",
		Date:     mustDate(t, "2026-07-15"),
	})
	assert.ErrorIs(t, err, apperrors.ErrUnknownProvider)

	_, err = svc.Record(authedCtx(), RecordValidationInput{
		FarmID:     uuid.New(),
		Provider:   "open_meteo",
		Date:       mustDate(t, "2026-07-15"),
		Confidence: floatPtr(1.4),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Record(authedCtx(), RecordValidationInput{
		FarmID:   uuid.New(),
		Provider: "open_meteo",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	assert.Empty(t, repo.records)
}

func TestRecordValidationToleratesRecomputeFailure(t *testing.T) {
	repo := &memValidationRepo{}
	calibration := &stubCalibrationService{recomputeErr: assert.AnError}
	performance := &stubPerformanceService{recomputeErr: assert.AnError}
	svc := newTestValidationService(repo, calibration, performance)

	record, err := svc.Record(authedCtx(), RecordValidationInput{
		FarmID:      uuid.New(),
		Provider:    "tomorrow_io",
		APIETo:      3.1,
		MeasuredETo: 2.9,
		Date:        mustDate(t, "2026-07-15"),
	})
	require.NoError(t, err)
	assert.NotNil(t, record)
	assert.Len(t, repo.records, 1)
}

func TestValidationHistorySoftFailsToEmpty(t *testing.T) {
	repo := &memValidationRepo{listErr: assert.AnError}
	svc := newTestValidationService(repo, &stubCalibrationService{}, &stubPerformanceService{})

	records, err := svc.History(context.Background(), uuid.New(), 10)
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestValidationStats(t *testing.T) {
	svc := newTestValidationService(&memValidationRepo{}, &stubCalibrationService{}, &stubPerformanceService{})

	stats := svc.Stats([]*models.ETOValidation{
		{APIETo: 5.0, MeasuredETo: 4.0},
		{APIETo: 3.0, MeasuredETo: 3.5},
	})

	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 0.25, stats.AvgError, 1e-9)
	assert.InDelta(t, math.Sqrt(1.25/2), stats.RMSE, 1e-9)
	assert.InDelta(t, 0.75, stats.MAE, 1e-9)
}

func TestValidationStatsEmpty(t *testing.T) {
	svc := newTestValidationService(&memValidationRepo{}, &stubCalibrationService{}, &stubPerformanceService{})

	stats := svc.Stats(nil)
	assert.Zero(t, stats.Count)
	assert.Zero(t, stats.RMSE)
}

func TestValidationStatsExcludesZeroMeasuredFromPercent(t *testing.T) {
	svc := newTestValidationService(&memValidationRepo{}, &stubCalibrationService{}, &stubPerformanceService{})

	stats := svc.Stats([]*models.ETOValidation{
		{APIETo: 2.0, MeasuredETo: 0.0},
		{APIETo: 4.4, MeasuredETo: 4.0},
	})

	// Both records carry error weight, but only the nonzero measured record
	// contributes to the percent average.
	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 10.0, stats.AvgErrorPercent, 1e-9)
	assert.InDelta(t, (2.0+0.4)/2, stats.MAE, 1e-9)
}

func TestFarmStats(t *testing.T) {
	farmID := uuid.New()
	repo := &memValidationRepo{records: []*models.ETOValidation{
		{FarmID: farmID, Date: mustDate(t, "2026-07-01"), APIETo: 5.0, MeasuredETo: 4.0},
		{FarmID: farmID, Date: mustDate(t, "2026-07-02"), APIETo: 3.0, MeasuredETo: 3.5},
		{FarmID: uuid.New(), Date: mustDate(t, "2026-07-02"), APIETo: 9.0, MeasuredETo: 1.0},
	}}
	svc := newTestValidationService(repo, &stubCalibrationService{}, &stubPerformanceService{})

	stats, err := svc.FarmStats(context.Background(), farmID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 0.25, stats.AvgError, 1e-9)
}
