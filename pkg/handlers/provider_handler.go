package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/config"
	"github.com/agrovista/agrovista-engine/pkg/models"
	"github.com/agrovista/agrovista-engine/pkg/services"
)

// ProviderRankingResponse for GET /api/providers/ranking
type ProviderRankingResponse struct {
	Providers []*models.ProviderPerformance `json:"providers"`
	Total     int                           `json:"total"`
}

// BestProviderResponse for GET /api/providers/best
type BestProviderResponse struct {
	Provider models.WeatherProvider      `json:"provider"`
	Ranked   bool                        `json:"ranked"`
	Detail   *models.ProviderPerformance `json:"detail,omitempty"`
}

// ProviderHandler handles provider performance HTTP requests.
type ProviderHandler struct {
	performanceService services.ProviderPerformanceService
	cfg                *config.Config
	logger             *zap.Logger
}

// NewProviderHandler creates a new provider handler.
func NewProviderHandler(performanceService services.ProviderPerformanceService, cfg *config.Config, logger *zap.Logger) *ProviderHandler {
	return &ProviderHandler{
		performanceService: performanceService,
		cfg:                cfg,
		logger:             logger,
	}
}

// RegisterRoutes registers the provider handler's routes on the given mux.
func (h *ProviderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/providers/ranking", h.Ranking)
	mux.HandleFunc("GET /api/providers/best", h.Best)
	mux.HandleFunc("GET /api/providers/weights", h.Weights)
}

// Ranking handles GET /api/providers/ranking?lat=&lon=
func (h *ProviderHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := ParseCoordinates(w, r, h.logger)
	if !ok {
		return
	}

	ranked, err := h.performanceService.Ranked(r.Context(), lat, lon)
	if err != nil {
		h.logger.Error("Failed to rank providers",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "provider_ranking_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ProviderRankingResponse{
		Providers: ranked,
		Total:     len(ranked),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Best handles GET /api/providers/best?lat=&lon=
// Falls back to the configured default provider when the region has no
// performance data yet.
func (h *ProviderHandler) Best(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := ParseCoordinates(w, r, h.logger)
	if !ok {
		return
	}

	best, err := h.performanceService.Best(r.Context(), lat, lon)
	if err != nil {
		h.logger.Error("Failed to find best provider",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "best_provider_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := BestProviderResponse{
		Provider: h.cfg.Weather.DefaultProvider,
		Ranked:   false,
	}
	if best != nil {
		response.Provider = best.Provider
		response.Ranked = true
		response.Detail = best
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Weights handles GET /api/providers/weights?lat=&lon=
func (h *ProviderHandler) Weights(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := ParseCoordinates(w, r, h.logger)
	if !ok {
		return
	}

	weights, err := h.performanceService.Weights(r.Context(), lat, lon)
	if err != nil {
		h.logger.Error("Failed to compute provider weights",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "provider_weights_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: weights}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
