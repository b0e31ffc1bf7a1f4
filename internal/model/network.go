package model

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Supported layer activations
const (
	ActivationLinear  = "linear"
	ActivationReLU    = "relu"
	ActivationSigmoid = "sigmoid"
	ActivationTanh    = "tanh"
)

var ErrInputShape = errors.New("input shape mismatch")

// Regressor produces a single scalar from a feature vector
type Regressor interface {
	Predict(ctx context.Context, input []float64) (float64, error)
}

// DenseLayer is a fully connected layer exported from the trained network.
// Weights are laid out [input][output].
type DenseLayer struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
}

// DenseNetwork evaluates a feed-forward network of dense layers. Dropout
// layers are identity at inference and are not part of the export.
type DenseNetwork struct {
	layers   []DenseLayer
	inputDim int
}

// NewDenseNetwork validates that consecutive layer shapes line up and that the
// final layer yields a single output
func NewDenseNetwork(layers []DenseLayer) (*DenseNetwork, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("network has no layers")
	}

	prevOut := -1
	for i, layer := range layers {
		in := len(layer.Weights)
		out := len(layer.Bias)
		if in == 0 || out == 0 {
			return nil, fmt.Errorf("layer %d is empty", i)
		}
		for r, row := range layer.Weights {
			if len(row) != out {
				return nil, fmt.Errorf("layer %d row %d has %d weights, want %d", i, r, len(row), out)
			}
		}
		if prevOut >= 0 && in != prevOut {
			return nil, fmt.Errorf("layer %d expects %d inputs, previous layer yields %d", i, in, prevOut)
		}
		switch layer.Activation {
		case "", ActivationLinear, ActivationReLU, ActivationSigmoid, ActivationTanh:
		default:
			return nil, fmt.Errorf("layer %d has unsupported activation %q", i, layer.Activation)
		}
		prevOut = out
	}
	if prevOut != 1 {
		return nil, fmt.Errorf("network yields %d outputs, want 1", prevOut)
	}

	return &DenseNetwork{layers: layers, inputDim: len(layers[0].Weights)}, nil
}

// InputDim returns the expected input vector length
func (n *DenseNetwork) InputDim() int {
	return n.inputDim
}

// Predict runs a forward pass
func (n *DenseNetwork) Predict(ctx context.Context, input []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(input) != n.inputDim {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrInputShape, len(input), n.inputDim)
	}

	activations := input
	for _, layer := range n.layers {
		next := make([]float64, len(layer.Bias))
		copy(next, layer.Bias)
		for i, x := range activations {
			for j, w := range layer.Weights[i] {
				next[j] += x * w
			}
		}
		for j := range next {
			next[j] = activate(layer.Activation, next[j])
		}
		activations = next
	}

	out := activations[0]
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("network produced non-finite output %v", out)
	}
	return out, nil
}

func activate(name string, x float64) float64 {
	switch name {
	case ActivationReLU:
		return math.Max(0, x)
	case ActivationSigmoid:
		return 1 / (1 + math.Exp(-x))
	case ActivationTanh:
		return math.Tanh(x)
	default:
		return x
	}
}
