package transport

import (
	"errors"
	"net/http"

	"car-price/internal/credit"
	"car-price/internal/middleware"
	"car-price/internal/model"
	"car-price/internal/service"

	"go.uber.org/zap"
)

// respondWithServiceError maps service failures onto HTTP statuses
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var validationErr *service.ValidationError
	var loanErr *credit.InvalidLoanError
	var inferenceErr *model.InferenceError

	switch {
	case errors.As(err, &validationErr):
		middleware.RespondWithValidationErrors(w, toValidationErrors(validationErr.Fields))
	case errors.As(err, &loanErr):
		middleware.RespondWithError(w, http.StatusBadRequest, loanErr.Message)
	case errors.As(err, &inferenceErr):
		logger.Error("Model inference failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "model inference failed")
	case errors.Is(err, service.ErrBrandNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "brand not found")
	case errors.Is(err, service.ErrHistoryUnavailable):
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "prediction history is unavailable")
	default:
		logger.Error("Request failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func toValidationErrors(fields []service.FieldError) []middleware.ValidationError {
	out := make([]middleware.ValidationError, 0, len(fields))
	for _, f := range fields {
		out = append(out, middleware.ValidationError{Field: f.Field, Message: f.Message})
	}
	return out
}
