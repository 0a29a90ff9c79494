package models

// AccuracyLevel is a farm's calibration maturity tier. It is never persisted:
// the level is derived fresh on every query from the validation count and
// sensor presence, so it can regress as well as advance.
type AccuracyLevel string

const (
	AccuracyBasic        AccuracyLevel = "basic"
	AccuracyGood         AccuracyLevel = "good"
	AccuracyExcellent    AccuracyLevel = "excellent"
	AccuracyProfessional AccuracyLevel = "professional"
)

// Validation-count thresholds for each tier.
const (
	goodThreshold         = 5
	excellentThreshold    = 10
	professionalThreshold = 20
)

// DeriveAccuracyLevel evaluates the tier rules in priority order.
func DeriveAccuracyLevel(validationCount int, hasSensorData bool) AccuracyLevel {
	switch {
	case hasSensorData && validationCount >= professionalThreshold:
		return AccuracyProfessional
	case hasSensorData || validationCount >= excellentThreshold:
		return AccuracyExcellent
	case validationCount >= goodThreshold:
		return AccuracyGood
	default:
		return AccuracyBasic
	}
}

// EstimatedErrorPercent returns the published error estimate for a tier.
// These are fixed messaging heuristics, not values measured from the farm's
// own RMSE.
func (l AccuracyLevel) EstimatedErrorPercent() float64 {
	switch l {
	case AccuracyProfessional:
		return 4
	case AccuracyExcellent:
		return 6
	case AccuracyGood:
		return 10
	default:
		return 18
	}
}

// ProgressToNext returns the 0-100 percentage toward the next tier's
// validation-count threshold. The professional tier is terminal and always
// reports 100.
func ProgressToNext(level AccuracyLevel, validationCount int, hasSensorData bool) float64 {
	var threshold int
	switch level {
	case AccuracyBasic:
		threshold = goodThreshold
	case AccuracyGood:
		threshold = excellentThreshold
	case AccuracyExcellent:
		threshold = professionalThreshold
	default:
		return 100
	}

	pct := float64(validationCount) / float64(threshold) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
