package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/apperrors"
	"github.com/agrovista/agrovista-engine/pkg/eto"
	"github.com/agrovista/agrovista-engine/pkg/models"
	"github.com/agrovista/agrovista-engine/pkg/services"
)

// EstimateEToRequest for POST /api/eto/estimate
type EstimateEToRequest struct {
	Date           string   `json:"date"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Elevation      float64  `json:"elevation"`
	TempMax        float64  `json:"temp_max"`
	TempMin        float64  `json:"temp_min"`
	RHMax          float64  `json:"rh_max"`
	RHMin          float64  `json:"rh_min"`
	WindSpeed      *float64 `json:"wind_speed,omitempty"`
	SolarRadiation float64  `json:"solar_radiation"`

	// Provider, when set, selects the regional calibration applied to
	// produce CorrectedETo. Without it the corrected value equals the raw one.
	Provider string `json:"provider,omitempty"`
}

// EstimateEToResponse for POST /api/eto/estimate
type EstimateEToResponse struct {
	ETo          float64 `json:"eto"`
	CorrectedETo float64 `json:"corrected_eto"`
	RegionKey    string  `json:"region_key"`
}

// EToHandler handles reference evapotranspiration HTTP requests.
type EToHandler struct {
	calibrationService services.CalibrationService
	estimateService    services.EstimateService
	logger             *zap.Logger
}

// NewEToHandler creates a new ETo handler.
func NewEToHandler(calibrationService services.CalibrationService, estimateService services.EstimateService, logger *zap.Logger) *EToHandler {
	return &EToHandler{
		calibrationService: calibrationService,
		estimateService:    estimateService,
		logger:             logger,
	}
}

// RegisterRoutes registers the ETo handler's routes on the given mux.
func (h *EToHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/eto/estimate", h.Estimate)
	mux.HandleFunc("GET /api/eto/corrected", h.Corrected)
	mux.HandleFunc("GET /api/eto/blended", h.Blended)
}

// Estimate handles POST /api/eto/estimate
// Computes ETo from raw daily weather variables. When the request names a
// provider, the regional calibration for that provider is applied as well.
func (h *EToHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateEToRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_date", "Field date must be a YYYY-MM-DD date"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	value, err := eto.Calculate(eto.Input{
		Date:           date,
		Latitude:       req.Latitude,
		Elevation:      req.Elevation,
		TempMax:        req.TempMax,
		TempMin:        req.TempMin,
		RHMax:          req.RHMax,
		RHMin:          req.RHMin,
		WindSpeed:      req.WindSpeed,
		SolarRadiation: req.SolarRadiation,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to compute ETo", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "eto_estimate_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	corrected := value
	if req.Provider != "" {
		provider, err := models.ParseProvider(req.Provider)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "unknown_provider", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		corrected = h.calibrationService.CorrectedEstimate(r.Context(), req.Latitude, req.Longitude, provider, date, value)
	}

	response := EstimateEToResponse{
		ETo:          value,
		CorrectedETo: corrected,
		RegionKey:    models.RegionKey(req.Latitude, req.Longitude),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Corrected handles GET /api/eto/corrected?lat=&lon=&elevation=&provider=&from=&to=
func (h *EToHandler) Corrected(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := ParseCoordinates(w, r, h.logger)
	if !ok {
		return
	}
	from, ok := ParseDateParam(w, r, "from", h.logger)
	if !ok {
		return
	}
	to, ok := ParseDateParam(w, r, "to", h.logger)
	if !ok {
		return
	}

	provider, err := models.ParseProvider(r.URL.Query().Get("provider"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "unknown_provider", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	elevation := queryFloat(r, "elevation", 0)
	estimates, err := h.estimateService.CorrectedForProvider(r.Context(), lat, lon, elevation, provider, from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "forecast_not_found", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to build corrected estimates",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "corrected_estimates_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: estimates}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Blended handles GET /api/eto/blended?lat=&lon=&elevation=&from=&to=
func (h *EToHandler) Blended(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := ParseCoordinates(w, r, h.logger)
	if !ok {
		return
	}
	from, ok := ParseDateParam(w, r, "from", h.logger)
	if !ok {
		return
	}
	to, ok := ParseDateParam(w, r, "to", h.logger)
	if !ok {
		return
	}

	elevation := queryFloat(r, "elevation", 0)
	estimates, err := h.estimateService.Blended(r.Context(), lat, lon, elevation, from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "forecast_not_found", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to build blended estimates",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "blended_estimates_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: estimates}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
