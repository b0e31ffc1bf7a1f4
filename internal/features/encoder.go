package features

import (
	"fmt"
	"slices"

	"car-price/internal/domain"
)

// Column names as written by the training pipeline
const (
	ColumnYear     = "year"
	ColumnPower    = "power"
	ColumnBrand    = "brand"
	ColumnName     = "name"
	ColumnBodyType = "bodyType"
	ColumnColor    = "color"
	ColumnFuelType = "fuelType"
)

var (
	// NumericalColumns is the training-time order of the scaled columns
	NumericalColumns = []string{ColumnYear, ColumnPower}

	// CategoricalColumns is the training-time order of the label encoded columns
	CategoricalColumns = []string{ColumnBrand, ColumnName, ColumnBodyType, ColumnColor, ColumnFuelType}
)

// VectorLength is the length of every FeatureVector
var VectorLength = len(NumericalColumns) + len(CategoricalColumns)

// FeatureVector is the model input: scaled numerical columns followed by the
// encoded categorical columns, both in training order
type FeatureVector []float64

// Encoder turns car attributes into model input
type Encoder struct {
	scaler   *NumericScaler
	encoders []*CategoryEncoder
}

// NewEncoder checks the fitted artifacts against the feature column order the
// model was trained with. Any mismatch is a construction error since it would
// silently feed the model wrong columns.
func NewEncoder(scaler *NumericScaler, encoders map[string]*CategoryEncoder, info domain.FeatureInfo) (*Encoder, error) {
	if scaler == nil {
		return nil, fmt.Errorf("scaler is required")
	}
	if !slices.Equal(info.NumericalCols, NumericalColumns) {
		return nil, fmt.Errorf("unexpected numerical columns %v, want %v", info.NumericalCols, NumericalColumns)
	}
	if !slices.Equal(info.CategoricalCols, CategoricalColumns) {
		return nil, fmt.Errorf("unexpected categorical columns %v, want %v", info.CategoricalCols, CategoricalColumns)
	}
	if !slices.Equal(scaler.fields, NumericalColumns) {
		return nil, fmt.Errorf("scaler fitted on %v, want %v", scaler.fields, NumericalColumns)
	}
	if info.InputDim != 0 && info.InputDim != VectorLength {
		return nil, fmt.Errorf("model input dimension %d, encoder produces %d", info.InputDim, VectorLength)
	}

	ordered := make([]*CategoryEncoder, 0, len(CategoricalColumns))
	for _, col := range CategoricalColumns {
		enc, ok := encoders[col]
		if !ok || enc == nil {
			return nil, fmt.Errorf("missing encoder for column %q", col)
		}
		ordered = append(ordered, enc)
	}

	return &Encoder{scaler: scaler, encoders: ordered}, nil
}

// Encode never fails: unseen categorical values use the column's fallback code
func (e *Encoder) Encode(car domain.CarAttributes) FeatureVector {
	vector := make(FeatureVector, 0, VectorLength)

	numeric := [...]float64{float64(car.Year), float64(car.Power)}
	for i, v := range numeric {
		vector = append(vector, e.scaler.standardize(i, v))
	}

	categorical := [...]string{car.Brand, car.Name, car.BodyType, car.Color, car.FuelType}
	for i, v := range categorical {
		vector = append(vector, float64(e.encoders[i].Encode(v)))
	}

	return vector
}

// UnknownColumns lists the categorical columns of car that fall back to the
// default code
func (e *Encoder) UnknownColumns(car domain.CarAttributes) []string {
	var unknown []string
	categorical := [...]string{car.Brand, car.Name, car.BodyType, car.Color, car.FuelType}
	for i, v := range categorical {
		if !e.encoders[i].Known(v) {
			unknown = append(unknown, CategoricalColumns[i])
		}
	}
	return unknown
}
