package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/services"
)

// AccuracyHandler handles accuracy classification HTTP requests.
type AccuracyHandler struct {
	accuracyService services.AccuracyService
	logger          *zap.Logger
}

// NewAccuracyHandler creates a new accuracy handler.
func NewAccuracyHandler(accuracyService services.AccuracyService, logger *zap.Logger) *AccuracyHandler {
	return &AccuracyHandler{
		accuracyService: accuracyService,
		logger:          logger,
	}
}

// RegisterRoutes registers the accuracy handler's routes on the given mux.
func (h *AccuracyHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/farms/{farmID}/accuracy", h.Summary)
}

// Summary handles GET /api/farms/{farmID}/accuracy
func (h *AccuracyHandler) Summary(w http.ResponseWriter, r *http.Request) {
	farmID, ok := ParseFarmID(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.accuracyService.Summary(r.Context(), farmID)
	if err != nil {
		h.logger.Error("Failed to build accuracy summary",
			zap.String("farm_id", farmID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "accuracy_summary_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: summary}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
