package models

import "time"

// MinCalibrationSamples is the smallest season group that may produce a
// calibration row. Below this the group is skipped and any existing row is
// left untouched: an outdated-but-significant calibration beats a noisy
// one- or two-sample update.
const MinCalibrationSamples = 3

// RegionalCalibration is a bias-correction record for one
// (region, provider, season) triple. Rows are written only by the
// calibration recompute, which replaces them wholesale.
type RegionalCalibration struct {
	RegionKey        string          `json:"region_key"`
	Provider         WeatherProvider `json:"provider"`
	Season           Season          `json:"season"`
	CorrectionFactor float64         `json:"correction_factor"`
	Bias             float64         `json:"bias"`
	SampleSize       int             `json:"sample_size"`
	Confidence       float64         `json:"confidence"`
	RMSE             float64         `json:"rmse"`
	MAE              float64         `json:"mae"`
	LastUpdated      time.Time       `json:"last_updated"`
}

// CalibrationConfidence maps a sample size to a confidence score,
// saturating at 0.95 from 30 samples on.
func CalibrationConfidence(sampleSize int) float64 {
	c := float64(sampleSize) / 30
	if c > 0.95 {
		return 0.95
	}
	return c
}
