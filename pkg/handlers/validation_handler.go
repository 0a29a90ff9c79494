package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/apperrors"
	"github.com/agrovista/agrovista-engine/pkg/auth"
	"github.com/agrovista/agrovista-engine/pkg/models"
	"github.com/agrovista/agrovista-engine/pkg/services"
)

// RecordValidationRequest for POST /api/validations
type RecordValidationRequest struct {
	FarmID      uuid.UUID      `json:"farm_id"`
	Provider    string         `json:"provider"`
	APIETo      float64        `json:"api_eto"`
	MeasuredETo float64        `json:"measured_eto"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Date        string         `json:"date"`
	Source      string         `json:"source"`
	Confidence  *float64       `json:"confidence,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
}

// ValidationListResponse for GET /api/farms/{farmID}/validations
type ValidationListResponse struct {
	Validations []*models.ETOValidation `json:"validations"`
	Total       int                     `json:"total"`
}

// ValidationHandler handles validation ledger HTTP requests.
type ValidationHandler struct {
	validationService services.ValidationService
	logger            *zap.Logger
}

// NewValidationHandler creates a new validation handler.
func NewValidationHandler(validationService services.ValidationService, logger *zap.Logger) *ValidationHandler {
	return &ValidationHandler{
		validationService: validationService,
		logger:            logger,
	}
}

// RegisterRoutes registers the validation handler's routes on the given mux.
func (h *ValidationHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/validations", authMiddleware.RequireAuth(h.Record))
	mux.HandleFunc("GET /api/farms/{farmID}/validations", h.List)
	mux.HandleFunc("GET /api/farms/{farmID}/validations/stats", h.Stats)
}

// Record handles POST /api/validations
func (h *ValidationHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordValidationRequest
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

	record, err := h.validationService.Record(r.Context(), services.RecordValidationInput{
		FarmID:      req.FarmID,
		Provider:    req.Provider,
		APIETo:      req.APIETo,
		MeasuredETo: req.MeasuredETo,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Date:        date,
		Source:      models.ValidationSource(req.Source),
		Confidence:  req.Confidence,
		Context:     req.Context,
	})
	if err != nil {
		h.logger.Error("Failed to record validation",
			zap.String("farm_id", req.FarmID.String()),
			zap.String("provider", req.Provider),
			zap.Error(err))

		switch {
		case errors.Is(err, apperrors.ErrUnauthenticated):
			if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrUnknownProvider), errors.Is(err, apperrors.ErrInvalidInput):
			if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		default:
			if err := ErrorResponse(w, http.StatusInternalServerError, "record_validation_failed", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: record}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/farms/{farmID}/validations
func (h *ValidationHandler) List(w http.ResponseWriter, r *http.Request) {
	farmID, ok := ParseFarmID(w, r, h.logger)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 0)
	records, err := h.validationService.History(r.Context(), farmID, limit)
	if err != nil {
		h.logger.Error("Failed to list validations",
			zap.String("farm_id", farmID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_validations_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ValidationListResponse{
		Validations: records,
		Total:       len(records),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Stats handles GET /api/farms/{farmID}/validations/stats
func (h *ValidationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	farmID, ok := ParseFarmID(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.validationService.FarmStats(r.Context(), farmID)
	if err != nil {
		h.logger.Error("Failed to compute validation stats",
			zap.String("farm_id", farmID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "validation_stats_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: stats}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
