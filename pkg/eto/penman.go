// Package eto computes daily grass-reference evapotranspiration with the
// FAO-56 Penman-Monteith combination equation. All functions are pure.
package eto

import (
	"fmt"
	"math"
	"time"

	"github.com/agrovista/agrovista-engine/pkg/apperrors"
)

const (
	// albedo of the reference grass surface
	albedo = 0.23
	// Stefan-Boltzmann constant, MJ K⁻⁴ m⁻² day⁻¹
	stefanBoltzmann = 4.903e-9
	// solar constant, MJ m⁻² min⁻¹
	solarConstant = 0.0820
	// DefaultWindSpeed is substituted when no 2 m wind measurement exists.
	// 2 m/s is the FAO-56 world-average default; using it instead of zero
	// keeps the aerodynamic term from degenerating.
	DefaultWindSpeed = 2.0
)

// Input holds one day of weather variables plus the site location.
// SolarRadiation is the daily shortwave sum in MJ/m²/day. WindSpeed is the
// 2 m measurement in m/s; nil or non-positive values fall back to
// DefaultWindSpeed.
type Input struct {
	Date           time.Time
	Latitude       float64
	Elevation      float64
	TempMax        float64
	TempMin        float64
	RHMax          float64
	RHMin          float64
	WindSpeed      *float64
	SolarRadiation float64
}

// Calculate returns the reference evapotranspiration in mm/day.
// The result is clamped to a minimum of 0: condensation-dominated days can
// push the raw equation slightly negative, but ETo is never negative.
func Calculate(in Input) (float64, error) {
	if err := validate(in); err != nil {
		return 0, err
	}

	tmean := (in.TempMax + in.TempMin) / 2

	// Slope of the saturation vapour pressure curve at the mean temperature.
	delta := 4098 * saturationVapourPressure(tmean) / math.Pow(tmean+237.3, 2)

	// Psychrometric constant from elevation-adjusted atmospheric pressure.
	pressure := 101.3 * math.Pow((293-0.0065*in.Elevation)/293, 5.26)
	gamma := 0.000665 * pressure

	es := (saturationVapourPressure(in.TempMax) + saturationVapourPressure(in.TempMin)) / 2
	ea := (saturationVapourPressure(in.TempMin)*in.RHMax/100 +
		saturationVapourPressure(in.TempMax)*in.RHMin/100) / 2

	u2 := DefaultWindSpeed
	if in.WindSpeed != nil && *in.WindSpeed > 0 {
		u2 = *in.WindSpeed
	}

	rn := netRadiation(in, ea)

	// Soil heat flux is negligible over a daily step.
	const g = 0.0

	num := 0.408*delta*(rn-g) + gamma*(900/(tmean+273))*u2*(es-ea)
	den := delta + gamma*(1+0.34*u2)

	result := num / den
	if result < 0 {
		result = 0
	}
	return result, nil
}

func validate(in Input) error {
	if in.TempMax < in.TempMin {
		return fmt.Errorf("%w: temp_max %.2f below temp_min %.2f",
			apperrors.ErrInvalidInput, in.TempMax, in.TempMin)
	}
	if in.Latitude < -90 || in.Latitude > 90 {
		return fmt.Errorf("%w: latitude %.4f out of range", apperrors.ErrInvalidInput, in.Latitude)
	}
	if in.RHMax < 0 || in.RHMax > 100 || in.RHMin < 0 || in.RHMin > 100 || in.RHMax < in.RHMin {
		return fmt.Errorf("%w: humidity bounds %.1f/%.1f", apperrors.ErrInvalidInput, in.RHMax, in.RHMin)
	}
	if in.SolarRadiation < 0 {
		return fmt.Errorf("%w: negative solar radiation", apperrors.ErrInvalidInput)
	}
	return nil
}

// saturationVapourPressure returns e°(T) in kPa.
func saturationVapourPressure(t float64) float64 {
	return 0.6108 * math.Exp(17.27*t/(t+237.3))
}

// netRadiation returns Rn in MJ/m²/day: shortwave gain after albedo minus
// longwave loss estimated from temperature, humidity and cloudiness.
func netRadiation(in Input, ea float64) float64 {
	rns := (1 - albedo) * in.SolarRadiation

	ra := extraterrestrialRadiation(in.Latitude, in.Date.YearDay())
	rso := (0.75 + 2e-5*in.Elevation) * ra

	// Relative shortwave ratio proxies cloudiness. FAO-56 caps it at 1.0;
	// the lower bound covers overcast days and missing radiation.
	rel := 0.3
	if rso > 0 {
		rel = in.SolarRadiation / rso
		if rel > 1.0 {
			rel = 1.0
		}
		if rel < 0.3 {
			rel = 0.3
		}
	}

	tkMax := in.TempMax + 273.16
	tkMin := in.TempMin + 273.16
	rnl := stefanBoltzmann * (math.Pow(tkMax, 4)+math.Pow(tkMin, 4)) / 2 *
		(0.34 - 0.14*math.Sqrt(ea)) * (1.35*rel - 0.35)

	return rns - rnl
}

// extraterrestrialRadiation returns Ra in MJ/m²/day for a latitude and day of
// year.
func extraterrestrialRadiation(latitude float64, dayOfYear int) float64 {
	phi := latitude * math.Pi / 180
	j := float64(dayOfYear)

	dr := 1 + 0.033*math.Cos(2*math.Pi/365*j)
	decl := 0.409 * math.Sin(2*math.Pi/365*j-1.39)

	// Clamp for polar latitudes where the sun never rises or never sets.
	x := -math.Tan(phi) * math.Tan(decl)
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	ws := math.Acos(x)

	return 24 * 60 / math.Pi * solarConstant * dr *
		(ws*math.Sin(phi)*math.Sin(decl) + math.Cos(phi)*math.Cos(decl)*math.Sin(ws))
}
