package models

import "time"

// ProviderPerformance aggregates a provider's historical accuracy within one
// spatial cell, across all seasons. Recomputed alongside calibration.
type ProviderPerformance struct {
	RegionKey       string          `json:"region_key"`
	Provider        WeatherProvider `json:"provider"`
	RMSE            float64         `json:"rmse"`
	MAE             float64         `json:"mae"`
	R2              float64         `json:"r2"`
	AccuracyScore   float64         `json:"accuracy_score"`
	ValidationCount int             `json:"validation_count"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	LastUpdated     time.Time       `json:"last_updated"`
}

// maxUsefulError is the error magnitude (mm/day) at which the rmse and mae
// components of the accuracy score bottom out at zero. Typical daily ETo sits
// between 2 and 8 mm/day, so a 5 mm/day error means the estimate is noise.
const maxUsefulError = 5.0

// AccuracyScore folds rmse, mae and r² into a single 0-100 ranking score.
// Error terms decay linearly to zero at maxUsefulError.
func AccuracyScore(rmse, mae, r2 float64) float64 {
	rmseTerm := 1 - rmse/maxUsefulError
	if rmseTerm < 0 {
		rmseTerm = 0
	}
	maeTerm := 1 - mae/maxUsefulError
	if maeTerm < 0 {
		maeTerm = 0
	}
	if r2 < 0 {
		r2 = 0
	}
	return 100 * (0.5*rmseTerm + 0.3*maeTerm + 0.2*r2)
}
