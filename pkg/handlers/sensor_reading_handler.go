package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/apperrors"
	"github.com/agrovista/agrovista-engine/pkg/auth"
	"github.com/agrovista/agrovista-engine/pkg/models"
	"github.com/agrovista/agrovista-engine/pkg/services"
)

// UpsertSensorReadingRequest for PUT /api/farms/{farmID}/sensor-readings
type UpsertSensorReadingRequest struct {
	Date           string   `json:"date"`
	TempMax        *float64 `json:"temp_max,omitempty"`
	TempMin        *float64 `json:"temp_min,omitempty"`
	TempCurrent    *float64 `json:"temp_current,omitempty"`
	Humidity       *float64 `json:"humidity,omitempty"`
	WindSpeed      *float64 `json:"wind_speed,omitempty"`
	SolarRadiation *float64 `json:"solar_radiation,omitempty"`
	Rainfall       *float64 `json:"rainfall,omitempty"`
	Source         string   `json:"source,omitempty"`
	QualityChecked bool     `json:"quality_checked"`
}

// SensorReadingListResponse for GET /api/farms/{farmID}/sensor-readings
type SensorReadingListResponse struct {
	Readings []*models.SensorReading `json:"readings"`
	Total    int                     `json:"total"`
}

// SensorReadingHandler handles sensor reading HTTP requests.
type SensorReadingHandler struct {
	sensorService services.SensorReadingService
	logger        *zap.Logger
}

// NewSensorReadingHandler creates a new sensor reading handler.
func NewSensorReadingHandler(sensorService services.SensorReadingService, logger *zap.Logger) *SensorReadingHandler {
	return &SensorReadingHandler{
		sensorService: sensorService,
		logger:        logger,
	}
}

// RegisterRoutes registers the sensor reading handler's routes on the given mux.
func (h *SensorReadingHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/farms/{farmID}/sensor-readings"

	mux.HandleFunc("PUT "+base, authMiddleware.RequireAuth(h.Upsert))
	mux.HandleFunc("GET "+base, h.List)
	mux.HandleFunc("DELETE "+base+"/{date}", authMiddleware.RequireAuth(h.Delete))
}

// Upsert handles PUT /api/farms/{farmID}/sensor-readings
func (h *SensorReadingHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	farmID, ok := ParseFarmID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpsertSensorReadingRequest
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

	reading := &models.SensorReading{
		FarmID:         farmID,
		Date:           date,
		TempMax:        req.TempMax,
		TempMin:        req.TempMin,
		TempCurrent:    req.TempCurrent,
		Humidity:       req.Humidity,
		WindSpeed:      req.WindSpeed,
		SolarRadiation: req.SolarRadiation,
		Rainfall:       req.Rainfall,
		Source:         models.SensorSource(req.Source),
		QualityChecked: req.QualityChecked,
	}

	if err := h.sensorService.Upsert(r.Context(), reading); err != nil {
		h.logger.Error("Failed to upsert sensor reading",
			zap.String("farm_id", farmID.String()),
			zap.Error(err))

		switch {
		case errors.Is(err, apperrors.ErrUnauthenticated):
			if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrInvalidInput):
			if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		default:
			if err := ErrorResponse(w, http.StatusInternalServerError, "upsert_reading_failed", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: reading}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/farms/{farmID}/sensor-readings?from=&to=
func (h *SensorReadingHandler) List(w http.ResponseWriter, r *http.Request) {
	farmID, ok := ParseFarmID(w, r, h.logger)
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

	readings, err := h.sensorService.Range(r.Context(), farmID, from, to)
	if err != nil {
		h.logger.Error("Failed to list sensor readings",
			zap.String("farm_id", farmID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_readings_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := SensorReadingListResponse{
		Readings: readings,
		Total:    len(readings),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/farms/{farmID}/sensor-readings/{date}
func (h *SensorReadingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	farmID, ok := ParseFarmID(w, r, h.logger)
	if !ok {
		return
	}

	date, err := time.Parse("2006-01-02", r.PathValue("date"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_date", "Path segment date must be a YYYY-MM-DD date"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.sensorService.Delete(r.Context(), farmID, date); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUnauthenticated):
			if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrNotFound):
			if err := ErrorResponse(w, http.StatusNotFound, "reading_not_found", "No sensor reading for this farm and date"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		default:
			h.logger.Error("Failed to delete sensor reading",
				zap.String("farm_id", farmID.String()),
				zap.Error(err))
			if err := ErrorResponse(w, http.StatusInternalServerError, "delete_reading_failed", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
