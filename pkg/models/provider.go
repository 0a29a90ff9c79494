package models

import (
	"fmt"

	"github.com/agrovista/agrovista-engine/pkg/apperrors"
)

// WeatherProvider identifies an upstream weather data source. The set is
// closed: adding a provider requires touching every exhaustive switch below,
// which is deliberate so that priors and weights can never silently default.
type WeatherProvider string

const (
	ProviderOpenMeteo      WeatherProvider = "open_meteo"
	ProviderTomorrowIO     WeatherProvider = "tomorrow_io"
	ProviderOpenWeatherMap WeatherProvider = "openweathermap"
	ProviderWeatherAPI     WeatherProvider = "weatherapi"
	ProviderVisualCrossing WeatherProvider = "visual_crossing"
)

// AllProviders returns every known provider in a stable order.
func AllProviders() []WeatherProvider {
	return []WeatherProvider{
		ProviderOpenMeteo,
		ProviderTomorrowIO,
		ProviderOpenWeatherMap,
		ProviderWeatherAPI,
		ProviderVisualCrossing,
	}
}

// ParseProvider validates a provider identifier from an external source
// (request payload, config). Unknown identifiers are rejected rather than
// passed through as free-form strings.
func ParseProvider(s string) (WeatherProvider, error) {
	p := WeatherProvider(s)
	switch p {
	case ProviderOpenMeteo, ProviderTomorrowIO, ProviderOpenWeatherMap,
		ProviderWeatherAPI, ProviderVisualCrossing:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownProvider, s)
}

// ColdStartWeight returns the ensemble prior used before any regional
// performance data exists. The values are a design choice, not derived:
// the primary free provider gets full weight, paid secondaries less.
func (p WeatherProvider) ColdStartWeight() float64 {
	switch p {
	case ProviderOpenMeteo:
		return 1.0
	case ProviderTomorrowIO:
		return 0.9
	case ProviderOpenWeatherMap:
		return 0.8
	case ProviderWeatherAPI:
		return 0.7
	case ProviderVisualCrossing:
		return 0.6
	}
	return 0.5
}

func (p WeatherProvider) String() string {
	return string(p)
}
