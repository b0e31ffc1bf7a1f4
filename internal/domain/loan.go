package domain

// LoanRequest represents the inputs of a car loan calculation. Term and rate
// are optional; nil selects the calculator defaults. A non-positive loan amount
// is rejected by the calculator, not by field validation.
type LoanRequest struct {
	CarPrice     float64  `json:"car_price"`
	DownPayment  float64  `json:"down_payment" validate:"gte=0"`
	TermMonths   *int     `json:"loan_term_months,omitempty"`
	InterestRate *float64 `json:"interest_rate,omitempty"`
}

// LoanQuote represents a fixed-rate, fixed-term amortized loan
type LoanQuote struct {
	Principal          float64 `json:"principal"`
	InterestRate       float64 `json:"interest_rate"`
	TermMonths         int     `json:"loan_term_months"`
	MonthlyRate        float64 `json:"monthly_rate"`
	MonthlyPayment     float64 `json:"monthly_payment"`
	TotalPayment       float64 `json:"total_payment"`
	TotalInterest      float64 `json:"total_interest"`
	OverpaymentPercent float64 `json:"overpayment_percent"`
}
