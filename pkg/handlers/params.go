package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseFarmID extracts and validates the farm ID from the URL path.
// Writes a 400 error response and returns ok=false when missing or malformed.
func ParseFarmID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	raw := r.PathValue("farmID")
	if raw == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_farm_id", "Farm ID is required"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}

	farmID, err := uuid.Parse(raw)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_farm_id", "Farm ID must be a valid UUID"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}

	return farmID, true
}

// ParseCoordinates reads lat and lon query parameters.
func ParseCoordinates(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (lat, lon float64, ok bool) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_coordinates", "Query parameters lat and lon must be valid coordinates"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, 0, false
	}
	return lat, lon, true
}

// ParseDateParam reads a required date query parameter in YYYY-MM-DD form.
func ParseDateParam(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_date", "Query parameter "+name+" must be a YYYY-MM-DD date"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return time.Time{}, false
	}
	return date, true
}

// queryFloat reads an optional float query parameter, returning fallback when
// absent or malformed.
func queryFloat(r *http.Request, name string, fallback float64) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

// queryInt reads an optional int query parameter, returning fallback when
// absent or malformed.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
