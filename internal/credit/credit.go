package credit

import (
	"fmt"
	"math"
	"strconv"

	"car-price/internal/domain"

	"github.com/shopspring/decimal"
)

// Default lending policy
const (
	MinTermMonths  = 12
	MaxTermMonths  = 84
	MinRatePercent = 5.0
	MaxRatePercent = 20.0

	DefaultTermMonths  = 60
	DefaultRatePercent = 8.5
)

// InvalidLoanError reports a loan that violates a calculator precondition
type InvalidLoanError struct {
	Message string
}

func (e *InvalidLoanError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) *InvalidLoanError {
	return &InvalidLoanError{Message: fmt.Sprintf(format, args...)}
}

// Policy bounds the loan terms a Calculator accepts
type Policy struct {
	MinTermMonths  int
	MaxTermMonths  int
	MinRatePercent float64
	MaxRatePercent float64
}

// DefaultPolicy returns the standard lending policy
func DefaultPolicy() Policy {
	return Policy{
		MinTermMonths:  MinTermMonths,
		MaxTermMonths:  MaxTermMonths,
		MinRatePercent: MinRatePercent,
		MaxRatePercent: MaxRatePercent,
	}
}

func (p Policy) check(termMonths int, ratePercent float64) error {
	if termMonths < p.MinTermMonths || termMonths > p.MaxTermMonths {
		return invalid("loan term must be between %d and %d months", p.MinTermMonths, p.MaxTermMonths)
	}
	if ratePercent < p.MinRatePercent || ratePercent > p.MaxRatePercent {
		return invalid("interest rate must be between %g%% and %g%%", p.MinRatePercent, p.MaxRatePercent)
	}
	return nil
}

// Amortize computes a fixed-payment schedule. Computation runs in full
// precision and only the returned monetary values are rounded to cents.
// A zero rate yields straight-line repayment.
func Amortize(principal, annualRatePercent float64, termMonths int) (domain.LoanQuote, error) {
	if math.IsNaN(principal) || math.IsInf(principal, 0) || principal <= 0 {
		return domain.LoanQuote{}, invalid("loan amount must be positive")
	}
	if termMonths <= 0 {
		return domain.LoanQuote{}, invalid("loan term must be positive")
	}
	if math.IsNaN(annualRatePercent) || math.IsInf(annualRatePercent, 0) || annualRatePercent < 0 {
		return domain.LoanQuote{}, invalid("interest rate must not be negative")
	}

	term := float64(termMonths)
	monthlyRate := annualRatePercent / 100 / 12

	var monthlyPayment float64
	if monthlyRate == 0 {
		monthlyPayment = principal / term
	} else {
		growth := math.Pow(1+monthlyRate, term)
		monthlyPayment = principal * monthlyRate * growth / (growth - 1)
	}

	totalPayment := monthlyPayment * term
	totalInterest := totalPayment - principal
	overpayment := totalInterest / principal * 100

	return domain.LoanQuote{
		Principal:          round2(principal),
		InterestRate:       annualRatePercent,
		TermMonths:         termMonths,
		MonthlyRate:        monthlyRate,
		MonthlyPayment:     round2(monthlyPayment),
		TotalPayment:       round2(totalPayment),
		TotalInterest:      round2(totalInterest),
		OverpaymentPercent: round2(overpayment),
	}, nil
}

// Calculator applies a lending policy before amortizing
type Calculator struct {
	policy Policy
}

// NewCalculator creates a new Calculator
func NewCalculator(policy Policy) *Calculator {
	return &Calculator{policy: policy}
}

// Quote amortizes the car price less the down payment. Missing term and rate
// fall back to the defaults.
func (c *Calculator) Quote(req domain.LoanRequest) (domain.LoanQuote, error) {
	principal := req.CarPrice - req.DownPayment
	if principal <= 0 {
		return domain.LoanQuote{}, invalid("loan amount must be positive")
	}

	term := DefaultTermMonths
	if req.TermMonths != nil {
		term = *req.TermMonths
	}
	rate := DefaultRatePercent
	if req.InterestRate != nil {
		rate = *req.InterestRate
	}

	if err := c.policy.check(term, rate); err != nil {
		return domain.LoanQuote{}, err
	}

	return Amortize(principal, rate, term)
}

// round2 rounds the exact binary value of v half to even. Formatting with
// 1074 fractional digits is lossless for any float64, so values such as 2.675
// (stored as 2.67499...) round down instead of being treated as ties.
func round2(v float64) float64 {
	return decimal.RequireFromString(strconv.FormatFloat(v, 'f', 1074, 64)).RoundBank(2).InexactFloat64()
}
