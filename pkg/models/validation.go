package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// ValidationSource tags how the ground-truth ETo value was obtained.
type ValidationSource string

const (
	SourceWeatherStation    ValidationSource = "weather_station"
	SourceSensorCalculation ValidationSource = "sensor_calculation"
	SourceCropStress        ValidationSource = "crop_stress_observed"
	SourceExpertEstimate    ValidationSource = "expert_estimate"
)

// ETOValidation is one immutable comparison between a provider-estimated ETo
// and a locally measured ground truth. Records are append-only; error values
// are derived on read so that upstream corrections to either stored value can
// never drift apart from a stale stored error.
type ETOValidation struct {
	ID          uuid.UUID        `json:"id"`
	FarmID      uuid.UUID        `json:"farm_id"`
	Date        time.Time        `json:"date"`
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	RegionKey   string           `json:"region_key"`
	Provider    WeatherProvider  `json:"provider"`
	APIETo      float64          `json:"api_eto"`
	MeasuredETo float64          `json:"measured_eto"`
	Source      ValidationSource `json:"source"`
	Confidence  float64          `json:"confidence"`
	Context     map[string]any   `json:"context,omitempty"`
	CreatedBy   string           `json:"created_by"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Error returns the signed estimation error (provider estimate minus measured).
func (v *ETOValidation) Error() float64 {
	return v.APIETo - v.MeasuredETo
}

// ErrorPercent returns the estimation error relative to the measured value.
// Undefined when the measured value is zero; callers must check ok.
func (v *ETOValidation) ErrorPercent() (pct float64, ok bool) {
	if v.MeasuredETo == 0 {
		return 0, false
	}
	return (v.APIETo - v.MeasuredETo) / v.MeasuredETo * 100, true
}

// ValidationStats aggregates the error of a set of validation records.
type ValidationStats struct {
	Count           int     `json:"count"`
	AvgError        float64 `json:"avg_error"`
	AvgErrorPercent float64 `json:"avg_error_percent"`
	RMSE            float64 `json:"rmse"`
	MAE             float64 `json:"mae"`
}

// ComputeStats derives error statistics over a set of validation records.
// An empty input yields a zero-valued result. Records with a measured value
// of zero are excluded from the percent average only; their absolute errors
// still contribute to avg_error, rmse and mae.
func ComputeStats(records []*ETOValidation) ValidationStats {
	if len(records) == 0 {
		return ValidationStats{}
	}

	var sumErr, sumSq, sumAbs float64
	var sumPct float64
	pctCount := 0

	for _, r := range records {
		e := r.Error()
		sumErr += e
		sumSq += e * e
		sumAbs += math.Abs(e)
		if pct, ok := r.ErrorPercent(); ok {
			sumPct += pct
			pctCount++
		}
	}

	n := float64(len(records))
	stats := ValidationStats{
		Count:    len(records),
		AvgError: sumErr / n,
		RMSE:     math.Sqrt(sumSq / n),
		MAE:      sumAbs / n,
	}
	if pctCount > 0 {
		stats.AvgErrorPercent = sumPct / float64(pctCount)
	}
	return stats
}
