package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveAccuracyLevel(t *testing.T) {
	tests := []struct {
		name            string
		validationCount int
		hasSensorData   bool
		want            AccuracyLevel
	}{
		{"below good threshold", 4, false, AccuracyBasic},
		{"at good threshold", 5, false, AccuracyGood},
		{"sensor alone reaches excellent", 9, true, AccuracyExcellent},
		{"count alone reaches excellent", 10, false, AccuracyExcellent},
		{"sensor plus count reaches professional", 20, true, AccuracyProfessional},
		{"no sensor caps below professional", 25, false, AccuracyExcellent},
		{"zero everything", 0, false, AccuracyBasic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveAccuracyLevel(tt.validationCount, tt.hasSensorData))
		})
	}
}

func TestProgressToNext(t *testing.T) {
	assert.InDelta(t, 75.0, ProgressToNext(AccuracyExcellent, 15, true), 1e-9)
	assert.InDelta(t, 80.0, ProgressToNext(AccuracyBasic, 4, false), 1e-9)
	assert.InDelta(t, 100.0, ProgressToNext(AccuracyBasic, 12, false), 1e-9)
	assert.InDelta(t, 50.0, ProgressToNext(AccuracyGood, 5, false), 1e-9)
	assert.InDelta(t, 100.0, ProgressToNext(AccuracyProfessional, 3, true), 1e-9)
}

func TestEstimatedErrorPercent(t *testing.T) {
	assert.Equal(t, 18.0, AccuracyBasic.EstimatedErrorPercent())
	assert.Equal(t, 10.0, AccuracyGood.EstimatedErrorPercent())
	assert.Equal(t, 6.0, AccuracyExcellent.EstimatedErrorPercent())
	assert.Equal(t, 4.0, AccuracyProfessional.EstimatedErrorPercent())
}
