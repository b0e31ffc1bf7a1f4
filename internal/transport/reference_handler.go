package transport

import (
	"net/http"

	"car-price/internal/middleware"
	"car-price/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BrandsResponse lists the known brands
type BrandsResponse struct {
	Brands []string `json:"brands"`
}

// ModelsResponse lists the models known for one brand
type ModelsResponse struct {
	Brand  string   `json:"brand"`
	Models []string `json:"models"`
}

// ReferenceHandler serves the static choices used to fill the car form
type ReferenceHandler struct {
	reference service.ReferenceService
	logger    *zap.Logger
}

// NewReferenceHandler creates a new ReferenceHandler
func NewReferenceHandler(reference service.ReferenceService, logger *zap.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		reference: reference,
		logger:    logger,
	}
}

// RegisterRoutes registers all reference data routes
func (h *ReferenceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/brands", h.Brands)
	r.Get("/models/{brand}", h.Models)
	r.Get("/unique_values", h.UniqueValues)
	r.Get("/metrics", h.Metrics)
}

func (h *ReferenceHandler) Brands(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, BrandsResponse{Brands: h.reference.Brands()})
}

// Models returns the models of the brand in the path, or 404
func (h *ReferenceHandler) Models(w http.ResponseWriter, r *http.Request) {
	brand := chi.URLParam(r, "brand")

	models, err := h.reference.Models(brand)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ModelsResponse{Brand: brand, Models: models})
}

func (h *ReferenceHandler) UniqueValues(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.reference.UniqueValues())
}

// Metrics returns the held-out evaluation metrics of the loaded model
func (h *ReferenceHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.reference.Metrics())
}
