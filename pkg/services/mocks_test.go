package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/agrovista/agrovista-engine/pkg/apperrors"
	"github.com/agrovista/agrovista-engine/pkg/auth"
	"github.com/agrovista/agrovista-engine/pkg/models"
)

// authedCtx returns a context carrying validated claims for a test user.
func authedCtx() context.Context {
	return auth.WithClaims(context.Background(), &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
}

func floatPtr(v float64) *float64 { return &v }

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return d
}

// memValidationRepo is an in-memory ValidationRepository.
type memValidationRepo struct {
	records []*models.ETOValidation

	createErr error
	listErr   error
	countErr  error
}

func (m *memValidationRepo) Create(_ context.Context, v *models.ETOValidation) error {
	if m.createErr != nil {
		return m.createErr
	}
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	m.records = append(m.records, v)
	return nil
}

func (m *memValidationRepo) GetByFarm(_ context.Context, farmID uuid.UUID, limit int) ([]*models.ETOValidation, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.ETOValidation
	for _, v := range m.records {
		if v.FarmID == farmID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memValidationRepo) GetByRegionAndProvider(_ context.Context, regionKey string, provider models.WeatherProvider) ([]*models.ETOValidation, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.ETOValidation
	for _, v := range m.records {
		if v.RegionKey == regionKey && v.Provider == provider {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memValidationRepo) CountByFarm(_ context.Context, farmID uuid.UUID) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	count := 0
	for _, v := range m.records {
		if v.FarmID == farmID {
			count++
		}
	}
	return count, nil
}

// memCalibrationRepo is an in-memory CalibrationRepository.
type memCalibrationRepo struct {
	rows map[string]*models.RegionalCalibration

	upsertErr error
	getErr    error
	upserts   int
}

func newMemCalibrationRepo() *memCalibrationRepo {
	return &memCalibrationRepo{rows: make(map[string]*models.RegionalCalibration)}
}

func calibrationKey(regionKey string, provider models.WeatherProvider, season models.Season) string {
	return regionKey + "|" + provider.String() + "|" + season.String()
}

func (m *memCalibrationRepo) Upsert(_ context.Context, c *models.RegionalCalibration) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	copied := *c
	m.rows[calibrationKey(c.RegionKey, c.Provider, c.Season)] = &copied
	return nil
}

func (m *memCalibrationRepo) Get(_ context.Context, regionKey string, provider models.WeatherProvider, season models.Season) (*models.RegionalCalibration, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.rows[calibrationKey(regionKey, provider, season)], nil
}

func (m *memCalibrationRepo) GetByRegionAndProvider(_ context.Context, regionKey string, provider models.WeatherProvider) ([]*models.RegionalCalibration, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []*models.RegionalCalibration
	for _, c := range m.rows {
		if c.RegionKey == regionKey && c.Provider == provider {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Season < out[j].Season })
	return out, nil
}

// memPerformanceRepo is an in-memory ProviderPerformanceRepository.
type memPerformanceRepo struct {
	rows map[string]*models.ProviderPerformance

	upsertErr error
	listErr   error
}

func newMemPerformanceRepo() *memPerformanceRepo {
	return &memPerformanceRepo{rows: make(map[string]*models.ProviderPerformance)}
}

func (m *memPerformanceRepo) Upsert(_ context.Context, p *models.ProviderPerformance) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	copied := *p
	m.rows[p.RegionKey+"|"+p.Provider.String()] = &copied
	return nil
}

func (m *memPerformanceRepo) Get(_ context.Context, regionKey string, provider models.WeatherProvider) (*models.ProviderPerformance, error) {
	return m.rows[regionKey+"|"+provider.String()], nil
}

func (m *memPerformanceRepo) ListByRegion(_ context.Context, regionKey string) ([]*models.ProviderPerformance, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.ProviderPerformance
	for _, p := range m.rows {
		if p.RegionKey == regionKey {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccuracyScore > out[j].AccuracyScore })
	return out, nil
}

// memSensorRepo is an in-memory SensorReadingRepository.
type memSensorRepo struct {
	readings map[string]*models.SensorReading

	upsertErr error
	getErr    error
	rangeErr  error
	hasErr    error
}

func newMemSensorRepo() *memSensorRepo {
	return &memSensorRepo{readings: make(map[string]*models.SensorReading)}
}

func sensorKey(farmID uuid.UUID, date time.Time) string {
	return farmID.String() + "|" + date.Format("2006-01-02")
}

func (m *memSensorRepo) Upsert(_ context.Context, reading *models.SensorReading) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if reading.ID == uuid.Nil {
		reading.ID = uuid.New()
	}
	copied := *reading
	m.readings[sensorKey(reading.FarmID, reading.Date)] = &copied
	return nil
}

func (m *memSensorRepo) GetByFarmAndDate(_ context.Context, farmID uuid.UUID, date time.Time) (*models.SensorReading, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.readings[sensorKey(farmID, date)], nil
}

func (m *memSensorRepo) Range(_ context.Context, farmID uuid.UUID, from, to time.Time) ([]*models.SensorReading, error) {
	if m.rangeErr != nil {
		return nil, m.rangeErr
	}
	var out []*models.SensorReading
	for _, r := range m.readings {
		if r.FarmID == farmID && !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memSensorRepo) Delete(_ context.Context, farmID uuid.UUID, date time.Time) error {
	key := sensorKey(farmID, date)
	if _, ok := m.readings[key]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.readings, key)
	return nil
}

func (m *memSensorRepo) HasQualityCheckedData(_ context.Context, farmID uuid.UUID) (bool, error) {
	if m.hasErr != nil {
		return false, m.hasErr
	}
	for _, r := range m.readings {
		if r.FarmID == farmID && r.QualityChecked {
			return true, nil
		}
	}
	return false, nil
}

// stubCalibrationService records recompute calls and applies a fixed
// correction factor.
type stubCalibrationService struct {
	recomputes   int
	recomputeErr error
	factor       float64
	apply        bool
}

func (s *stubCalibrationService) Recompute(_ context.Context, _, _ float64, _ models.WeatherProvider) error {
	s.recomputes++
	return s.recomputeErr
}

func (s *stubCalibrationService) Lookup(_ context.Context, _, _ float64, _ models.WeatherProvider, _ *models.Season) (*models.RegionalCalibration, error) {
	return nil, nil
}

func (s *stubCalibrationService) CorrectedEstimate(_ context.Context, _, _ float64, _ models.WeatherProvider, _ time.Time, apiETo float64) float64 {
	if !s.apply {
		return apiETo
	}
	return apiETo * s.factor
}

// stubPerformanceService records recompute calls and serves fixed weights.
type stubPerformanceService struct {
	recomputes   int
	recomputeErr error
	weights      map[models.WeatherProvider]float64
	weightsErr   error
}

func (s *stubPerformanceService) Recompute(_ context.Context, _, _ float64, _ models.WeatherProvider) error {
	s.recomputes++
	return s.recomputeErr
}

func (s *stubPerformanceService) Ranked(_ context.Context, _, _ float64) ([]*models.ProviderPerformance, error) {
	return nil, nil
}

func (s *stubPerformanceService) Best(_ context.Context, _, _ float64) (*models.ProviderPerformance, error) {
	return nil, nil
}

func (s *stubPerformanceService) Weights(_ context.Context, _, _ float64) (map[models.WeatherProvider]float64, error) {
	if s.weightsErr != nil {
		return nil, s.weightsErr
	}
	return s.weights, nil
}

// stubProviderManager serves a canned multi-provider forecast.
type stubProviderManager struct {
	data map[models.WeatherProvider][]DailyWeather
	err  error
}

func (s *stubProviderManager) Daily(_ context.Context, _, _ float64, _, _ time.Time) (map[models.WeatherProvider][]DailyWeather, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}
