package service

import (
	"context"
	"errors"

	"car-price/internal/credit"
	"car-price/internal/domain"
	"car-price/internal/metrics"

	"go.uber.org/zap"
)

// CreditService defines the interface for loan calculations
type CreditService interface {
	Calculate(ctx context.Context, req domain.LoanRequest) (*domain.LoanQuote, error)
}

type creditService struct {
	calculator *credit.Calculator
	metrics    *metrics.Recorder
	logger     *zap.Logger
}

// NewCreditService creates a new instance of CreditService
func NewCreditService(calculator *credit.Calculator, recorder *metrics.Recorder, logger *zap.Logger) CreditService {
	return &creditService{
		calculator: calculator,
		metrics:    recorder,
		logger:     logger,
	}
}

// Calculate quotes a loan for the car price less the down payment
func (s *creditService) Calculate(ctx context.Context, req domain.LoanRequest) (*domain.LoanQuote, error) {
	if err := validateStruct(req); err != nil {
		s.metrics.RecordCreditQuote("validation_error")
		return nil, err
	}

	quote, err := s.calculator.Quote(req)
	if err != nil {
		var loanErr *credit.InvalidLoanError
		if errors.As(err, &loanErr) {
			s.metrics.RecordCreditQuote("invalid_loan")
		} else {
			s.metrics.RecordCreditQuote("error")
		}
		s.logger.Debug("Loan calculation rejected", zap.Error(err))
		return nil, err
	}

	s.metrics.RecordCreditQuote("success")
	return &quote, nil
}
