package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/apperrors"
	"github.com/agrovista/agrovista-engine/pkg/auth"
	"github.com/agrovista/agrovista-engine/pkg/models"
	"github.com/agrovista/agrovista-engine/pkg/services"
)

// RecomputeCalibrationRequest for POST /api/calibrations/recompute
type RecomputeCalibrationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Provider  string  `json:"provider"`
}

// CalibrationHandler handles regional calibration HTTP requests.
type CalibrationHandler struct {
	calibrationService services.CalibrationService
	logger             *zap.Logger
}

// NewCalibrationHandler creates a new calibration handler.
func NewCalibrationHandler(calibrationService services.CalibrationService, logger *zap.Logger) *CalibrationHandler {
	return &CalibrationHandler{
		calibrationService: calibrationService,
		logger:             logger,
	}
}

// RegisterRoutes registers the calibration handler's routes on the given mux.
func (h *CalibrationHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/calibrations", h.Get)
	mux.HandleFunc("POST /api/calibrations/recompute", authMiddleware.RequireAuth(h.Recompute))
}

// Get handles GET /api/calibrations?lat=&lon=&provider=&season=
func (h *CalibrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := ParseCoordinates(w, r, h.logger)
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

	// Season is optional; absent means the current season.
	var season *models.Season
	if raw := r.URL.Query().Get("season"); raw != "" {
		parsed, ok := models.ParseSeason(raw)
		if !ok {
			if err := ErrorResponse(w, http.StatusBadRequest, "unknown_season", "Unknown season "+raw); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		season = &parsed
	}

	calibration, err := h.calibrationService.Lookup(r.Context(), lat, lon, provider, season)
	if err != nil {
		h.logger.Error("Failed to look up calibration",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "calibration_lookup_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if calibration == nil {
		if err := ErrorResponse(w, http.StatusNotFound, "calibration_not_found", "No calibration for this region, provider and season"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: calibration}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Recompute handles POST /api/calibrations/recompute
func (h *CalibrationHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	var req RecomputeCalibrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	provider, err := models.ParseProvider(req.Provider)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "unknown_provider", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.calibrationService.Recompute(r.Context(), req.Latitude, req.Longitude, provider); err != nil {
		h.logger.Error("Failed to recompute calibration",
			zap.Float64("lat", req.Latitude),
			zap.Float64("lon", req.Longitude),
			zap.String("provider", provider.String()),
			zap.Error(err))

		if errors.Is(err, apperrors.ErrUnauthenticated) {
			if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		if err := ErrorResponse(w, http.StatusInternalServerError, "recompute_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "recomputed"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
