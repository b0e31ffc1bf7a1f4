package transport

import (
	"net/http"
	"strconv"

	"car-price/internal/domain"
	"car-price/internal/middleware"
	"car-price/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DeleteResponse reports whether a history record existed
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// HistoryHandler handles prediction history requests
type HistoryHandler struct {
	predictions service.PredictionService
	logger      *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(predictions service.PredictionService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		predictions: predictions,
		logger:      logger,
	}
}

// RegisterRoutes registers all history routes
func (h *HistoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.List)
		r.Delete("/{id}", h.Delete)
	})
}

// List returns recorded predictions, newest first
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	var errs []middleware.ValidationError
	limit, ok := queryInt(r, "limit")
	if !ok {
		errs = append(errs, middleware.ValidationError{Field: "limit", Message: "Expected an integer"})
	}
	offset, ok := queryInt(r, "offset")
	if !ok {
		errs = append(errs, middleware.ValidationError{Field: "offset", Message: "Expected an integer"})
	}
	if len(errs) > 0 {
		middleware.RespondWithValidationErrors(w, errs)
		return
	}

	records, err := h.predictions.ListHistory(r.Context(), limit, offset)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	if records == nil {
		records = []*domain.PredictionRecord{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, records)
}

// Delete removes a history record. Deleting a missing id is not an error.
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.predictions.DeleteHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, DeleteResponse{Deleted: deleted})
}

// queryInt reads an optional integer query parameter; absent means 0
func queryInt(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
