package services

import (
	"context"
	"time"

	"github.com/agrovista/agrovista-engine/pkg/models"
)

// DailyWeather is one provider-reported day of weather variables for a
// location. ETo is the provider's own reference-evapotranspiration estimate
// when it publishes one; otherwise the estimator derives it from the raw
// variables.
type DailyWeather struct {
	Date           time.Time
	TempMax        float64
	TempMin        float64
	RHMax          float64
	RHMin          float64
	WindSpeed      *float64
	SolarRadiation float64
	ETo            *float64
}

// WeatherProviderManager is the consumed collaborator that fronts the raw
// per-provider HTTP weather clients. This engine never fetches weather
// itself; it treats the returned values as api_eto inputs to validation and
// correction.
type WeatherProviderManager interface {
	Daily(ctx context.Context, lat, lon float64, from, to time.Time) (map[models.WeatherProvider][]DailyWeather, error)
}
