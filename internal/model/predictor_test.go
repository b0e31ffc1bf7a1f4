package model

import (
	"context"
	"errors"
	"math"
	"testing"

	"car-price/internal/features"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type stubRegressor struct {
	out float64
	err error
}

func (s stubRegressor) Predict(ctx context.Context, input []float64) (float64, error) {
	return s.out, s.err
}

// Property: predicted price is expm1 of the model output
func TestProperty_PriceInvertsLog1p(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("price equals exp(L)-1 for a stub returning L", prop.ForAll(
		func(logPrice float64) bool {
			predictor := NewPredictor(stubRegressor{out: logPrice})

			price, gotLog, err := predictor.Predict(context.Background(), make(features.FeatureVector, 7))
			if err != nil {
				t.Logf("FAIL: unexpected error: %v", err)
				return false
			}
			if gotLog != logPrice {
				return false
			}

			want := math.Exp(logPrice) - 1
			return math.Abs(price-want) <= 1e-9*math.Max(1, math.Abs(want))
		},
		gen.Float64Range(-5, 20),
	))

	properties.TestingRun(t)
}

func TestPredictor_WrapsRegressorFailure(t *testing.T) {
	cause := errors.New("corrupted artifact")
	predictor := NewPredictor(stubRegressor{err: cause})

	_, _, err := predictor.Predict(context.Background(), nil)

	var inferenceErr *InferenceError
	if !errors.As(err, &inferenceErr) {
		t.Fatalf("Expected InferenceError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("Expected InferenceError to unwrap to the cause")
	}
}

func TestPredictor_OverflowIsInferenceError(t *testing.T) {
	predictor := NewPredictor(stubRegressor{out: 1e6})

	_, _, err := predictor.Predict(context.Background(), nil)

	var inferenceErr *InferenceError
	if !errors.As(err, &inferenceErr) {
		t.Fatalf("Expected InferenceError for overflowing price, got %v", err)
	}
}

func TestDenseNetwork_ForwardPass(t *testing.T) {
	network, err := NewDenseNetwork([]DenseLayer{
		{
			Weights:    [][]float64{{1, -1}, {2, 0.5}},
			Bias:       []float64{0, 1},
			Activation: ActivationReLU,
		},
		{
			Weights:    [][]float64{{0.5}, {2}},
			Bias:       []float64{10},
			Activation: ActivationLinear,
		},
	})
	if err != nil {
		t.Fatalf("Failed to build network: %v", err)
	}

	// hidden = relu([1*1+2*2, 1*-1+2*0.5+1]) = [5, 1]; out = 10 + 2.5 + 2
	out, err := network.Predict(context.Background(), []float64{1, 2})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(out-14.5) > 1e-12 {
		t.Errorf("Expected 14.5, got %v", out)
	}
}

func TestDenseNetwork_InputShapeMismatch(t *testing.T) {
	network, err := NewDenseNetwork([]DenseLayer{
		{Weights: [][]float64{{1}, {1}}, Bias: []float64{0}},
	})
	if err != nil {
		t.Fatalf("Failed to build network: %v", err)
	}

	_, err = network.Predict(context.Background(), []float64{1, 2, 3})
	if !errors.Is(err, ErrInputShape) {
		t.Fatalf("Expected ErrInputShape, got %v", err)
	}

	_, _, err = NewPredictor(network).Predict(context.Background(), features.FeatureVector{1})
	var inferenceErr *InferenceError
	if !errors.As(err, &inferenceErr) {
		t.Fatalf("Expected InferenceError from predictor, got %v", err)
	}
}

func TestNewDenseNetwork_RejectsBadShapes(t *testing.T) {
	tests := []struct {
		name   string
		layers []DenseLayer
	}{
		{name: "no layers"},
		{
			name: "ragged weights",
			layers: []DenseLayer{
				{Weights: [][]float64{{1, 2}, {1}}, Bias: []float64{0, 0}},
			},
		},
		{
			name: "layers do not chain",
			layers: []DenseLayer{
				{Weights: [][]float64{{1, 2}}, Bias: []float64{0, 0}},
				{Weights: [][]float64{{1}, {1}, {1}}, Bias: []float64{0}},
			},
		},
		{
			name: "multiple outputs",
			layers: []DenseLayer{
				{Weights: [][]float64{{1, 2}}, Bias: []float64{0, 0}},
			},
		},
		{
			name: "unknown activation",
			layers: []DenseLayer{
				{Weights: [][]float64{{1}}, Bias: []float64{0}, Activation: "softmax"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewDenseNetwork(tc.layers); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
