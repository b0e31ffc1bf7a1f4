package model

import (
	"context"
	"fmt"
	"math"

	"car-price/internal/features"
)

// InferenceError reports a failed regression call
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("model inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Predictor wraps the trained regressor, whose target was log1p(price)
type Predictor struct {
	regressor Regressor
}

// NewPredictor creates a new Predictor
func NewPredictor(regressor Regressor) *Predictor {
	return &Predictor{regressor: regressor}
}

// Predict returns the price and the raw log-price. The price is expm1 of the
// model output, the exact inverse of the training-time log1p.
func (p *Predictor) Predict(ctx context.Context, vector features.FeatureVector) (price, logPrice float64, err error) {
	logPrice, err = p.regressor.Predict(ctx, vector)
	if err != nil {
		return 0, 0, &InferenceError{Err: err}
	}

	price = math.Expm1(logPrice)
	if math.IsInf(price, 0) || math.IsNaN(price) {
		return 0, 0, &InferenceError{Err: fmt.Errorf("log price %v is out of range", logPrice)}
	}

	return price, logPrice, nil
}
