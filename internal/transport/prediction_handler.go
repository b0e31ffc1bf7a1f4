package transport

import (
	"net/http"

	"car-price/internal/domain"
	"car-price/internal/middleware"
	"car-price/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PredictionHandler handles price prediction requests
type PredictionHandler struct {
	predictions service.PredictionService
	logger      *zap.Logger
}

// NewPredictionHandler creates a new PredictionHandler
func NewPredictionHandler(predictions service.PredictionService, logger *zap.Logger) *PredictionHandler {
	return &PredictionHandler{
		predictions: predictions,
		logger:      logger,
	}
}

// RegisterRoutes registers the prediction route. limiter may be nil.
func (h *PredictionHandler) RegisterRoutes(r chi.Router, limiter func(http.Handler) http.Handler) {
	if limiter != nil {
		r.With(limiter).Post("/predict", h.Predict)
		return
	}
	r.Post("/predict", h.Predict)
}

// Predict prices a single car and records it in the history
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var car domain.CarAttributes
	if err := middleware.DecodeJSON(r, &car); err != nil {
		h.logger.Debug("Prediction request decode failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, middleware.DecodeErrors(err))
		return
	}

	prediction, err := h.predictions.PredictAndRecord(r.Context(), car)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, prediction)
}
