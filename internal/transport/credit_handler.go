package transport

import (
	"net/http"

	"car-price/internal/domain"
	"car-price/internal/middleware"
	"car-price/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreditResponse represents a loan quote
type CreditResponse struct {
	MonthlyPayment     float64 `json:"monthly_payment"`
	TotalInterest      float64 `json:"total_interest"`
	TotalPayment       float64 `json:"total_payment"`
	OverpaymentPercent float64 `json:"overpayment_percent"`
	LoanAmount         float64 `json:"loan_amount"`
	TermMonths         int     `json:"loan_term_months"`
	InterestRate       float64 `json:"interest_rate"`
}

// CreditHandler handles loan calculation requests
type CreditHandler struct {
	credit service.CreditService
	logger *zap.Logger
}

// NewCreditHandler creates a new CreditHandler
func NewCreditHandler(credit service.CreditService, logger *zap.Logger) *CreditHandler {
	return &CreditHandler{
		credit: credit,
		logger: logger,
	}
}

// RegisterRoutes registers the credit route
func (h *CreditHandler) RegisterRoutes(r chi.Router) {
	r.Post("/calculate_credit", h.Calculate)
}

// Calculate quotes an annuity loan for the car
func (h *CreditHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req domain.LoanRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		h.logger.Debug("Credit request decode failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, middleware.DecodeErrors(err))
		return
	}

	quote, err := h.credit.Calculate(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CreditResponse{
		MonthlyPayment:     quote.MonthlyPayment,
		TotalInterest:      quote.TotalInterest,
		TotalPayment:       quote.TotalPayment,
		OverpaymentPercent: quote.OverpaymentPercent,
		LoanAmount:         quote.Principal,
		TermMonths:         quote.TermMonths,
		InterestRate:       quote.InterestRate,
	})
}
