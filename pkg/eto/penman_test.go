package eto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovista/agrovista-engine/pkg/apperrors"
)

func floatPtr(f float64) *float64 { return &f }

// Worked example 18 from FAO Irrigation and Drainage Paper 56
// (Uccle, Belgium, 6 July): expected ETo 3.88 mm/day.
func TestCalculate_FAO56WorkedExample(t *testing.T) {
	in := Input{
		Date:           time.Date(2023, time.July, 6, 0, 0, 0, 0, time.UTC),
		Latitude:       50.80,
		Elevation:      100,
		TempMax:        21.5,
		TempMin:        12.3,
		RHMax:          84,
		RHMin:          63,
		WindSpeed:      floatPtr(2.78),
		SolarRadiation: 22.07,
	}

	result, err := Calculate(in)
	require.NoError(t, err)
	assert.InDelta(t, 3.88, result, 0.05)
}

func TestCalculate_MissingWindUsesDefault(t *testing.T) {
	in := Input{
		Date:           time.Date(2023, time.July, 6, 0, 0, 0, 0, time.UTC),
		Latitude:       50.80,
		Elevation:      100,
		TempMax:        21.5,
		TempMin:        12.3,
		RHMax:          84,
		RHMin:          63,
		SolarRadiation: 22.07,
	}

	missing, err := Calculate(in)
	require.NoError(t, err)

	in.WindSpeed = floatPtr(DefaultWindSpeed)
	explicit, err := Calculate(in)
	require.NoError(t, err)

	assert.Equal(t, explicit, missing)
	assert.Greater(t, missing, 0.0)
}

func TestCalculate_ZeroWindUsesDefault(t *testing.T) {
	in := Input{
		Date:           time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC),
		Latitude:       19.07,
		Elevation:      14,
		TempMax:        33,
		TempMin:        24,
		RHMax:          80,
		RHMin:          55,
		WindSpeed:      floatPtr(0),
		SolarRadiation: 20,
	}

	zero, err := Calculate(in)
	require.NoError(t, err)

	in.WindSpeed = floatPtr(DefaultWindSpeed)
	explicit, err := Calculate(in)
	require.NoError(t, err)

	assert.Equal(t, explicit, zero)
}

func TestCalculate_ClampedAtZero(t *testing.T) {
	// Saturated cool air with no incoming radiation drives the raw
	// equation negative; the result must clamp to zero.
	in := Input{
		Date:           time.Date(2023, time.December, 21, 0, 0, 0, 0, time.UTC),
		Latitude:       50.80,
		Elevation:      100,
		TempMax:        10,
		TempMin:        10,
		RHMax:          100,
		RHMin:          100,
		WindSpeed:      floatPtr(0.5),
		SolarRadiation: 0,
	}

	result, err := Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result)
}

func TestCalculate_Deterministic(t *testing.T) {
	in := Input{
		Date:           time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC),
		Latitude:       19.07,
		Elevation:      14,
		TempMax:        34,
		TempMin:        27,
		RHMax:          85,
		RHMin:          60,
		WindSpeed:      floatPtr(3.1),
		SolarRadiation: 18.5,
	}

	a, err := Calculate(in)
	require.NoError(t, err)
	b, err := Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCalculate_InvalidInput(t *testing.T) {
	base := Input{
		Date:           time.Date(2023, time.July, 6, 0, 0, 0, 0, time.UTC),
		Latitude:       50.80,
		Elevation:      100,
		TempMax:        21.5,
		TempMin:        12.3,
		RHMax:          84,
		RHMin:          63,
		SolarRadiation: 22.07,
	}

	tmaxBelowTmin := base
	tmaxBelowTmin.TempMax = 10
	_, err := Calculate(tmaxBelowTmin)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	badLatitude := base
	badLatitude.Latitude = 91
	_, err = Calculate(badLatitude)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	badHumidity := base
	badHumidity.RHMin = 90 // above RHMax
	_, err = Calculate(badHumidity)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	negativeRadiation := base
	negativeRadiation.SolarRadiation = -1
	_, err = Calculate(negativeRadiation)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
