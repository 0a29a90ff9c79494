// Package weather adapts the platform's weather-manager service to the
// WeatherProviderManager interface. The engine never talks to the raw
// provider APIs itself; the weather-manager owns API keys, rate limits and
// per-provider quirks.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/models"
	"github.com/agrovista/agrovista-engine/pkg/services"
)

const defaultRequestTimeout = 15 * time.Second

// dailyResponse is the weather-manager's per-provider daily payload.
type dailyResponse struct {
	Providers map[string][]dailyEntry `json:"providers"`
}

type dailyEntry struct {
	Date           string   `json:"date"`
	TempMax        float64  `json:"temp_max"`
	TempMin        float64  `json:"temp_min"`
	RHMax          float64  `json:"rh_max"`
	RHMin          float64  `json:"rh_min"`
	WindSpeed      *float64 `json:"wind_speed,omitempty"`
	SolarRadiation float64  `json:"solar_radiation"`
	ETo            *float64 `json:"eto,omitempty"`
}

// HTTPManager implements services.WeatherProviderManager against the
// weather-manager HTTP API.
type HTTPManager struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPManager creates a manager client for the given base URL.
func NewHTTPManager(baseURL string, logger *zap.Logger) *HTTPManager {
	return &HTTPManager{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultRequestTimeout},
		logger:  logger.Named("weather-manager"),
	}
}

var _ services.WeatherProviderManager = (*HTTPManager)(nil)

// Daily fetches every provider's daily weather for a location and range.
// Providers the manager does not recognize are dropped with a warning so a
// newer weather-manager cannot break older engines.
func (m *HTTPManager) Daily(ctx context.Context, lat, lon float64, from, to time.Time) (map[models.WeatherProvider][]services.DailyWeather, error) {
	if m.baseURL == "" {
		return nil, fmt.Errorf("weather manager url not configured")
	}

	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("from", from.Format("2006-01-02"))
	query.Set("to", to.Format("2006-01-02"))

	endpoint := m.baseURL + "/v1/daily?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build weather manager request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call weather manager: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather manager returned status %d", resp.StatusCode)
	}

	var payload dailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode weather manager response: %w", err)
	}

	result := make(map[models.WeatherProvider][]services.DailyWeather, len(payload.Providers))
	for name, entries := range payload.Providers {
		provider, err := models.ParseProvider(name)
		if err != nil {
			m.logger.Warn("Dropping unrecognized provider from weather manager response",
				zap.String("provider", name))
			continue
		}

		days := make([]services.DailyWeather, 0, len(entries))
		for _, entry := range entries {
			date, err := time.Parse("2006-01-02", entry.Date)
			if err != nil {
				m.logger.Warn("Dropping day with malformed date",
					zap.String("provider", name),
					zap.String("date", entry.Date))
				continue
			}
			days = append(days, services.DailyWeather{
				Date:           date,
				TempMax:        entry.TempMax,
				TempMin:        entry.TempMin,
				RHMax:          entry.RHMax,
				RHMin:          entry.RHMin,
				WindSpeed:      entry.WindSpeed,
				SolarRadiation: entry.SolarRadiation,
				ETo:            entry.ETo,
			})
		}
		if len(days) > 0 {
			result[provider] = days
		}
	}

	return result, nil
}
