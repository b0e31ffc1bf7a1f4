package features

import (
	"fmt"
	"math"
)

// NumericScaler standardizes numeric fields with per-field mean and scale
// fitted at training time. It has no inverse.
type NumericScaler struct {
	fields []string
	mean   []float64
	scale  []float64
}

// NewNumericScaler creates a scaler for the named fields
func NewNumericScaler(fields []string, mean, scale []float64) (*NumericScaler, error) {
	if len(fields) == 0 || len(fields) != len(mean) || len(fields) != len(scale) {
		return nil, fmt.Errorf("scaler shape mismatch: %d fields, %d means, %d scales", len(fields), len(mean), len(scale))
	}

	for i, s := range scale {
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("invalid scale %v for field %q", s, fields[i])
		}
		if math.IsNaN(mean[i]) || math.IsInf(mean[i], 0) {
			return nil, fmt.Errorf("invalid mean %v for field %q", mean[i], fields[i])
		}
	}

	return &NumericScaler{
		fields: append([]string(nil), fields...),
		mean:   append([]float64(nil), mean...),
		scale:  append([]float64(nil), scale...),
	}, nil
}

// Transform standardizes values, given in field order
func (s *NumericScaler) Transform(values ...float64) ([]float64, error) {
	if len(values) != len(s.fields) {
		return nil, fmt.Errorf("expected %d values, got %d", len(s.fields), len(values))
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = s.standardize(i, v)
	}
	return out, nil
}

func (s *NumericScaler) standardize(i int, v float64) float64 {
	return (v - s.mean[i]) / s.scale[i]
}
