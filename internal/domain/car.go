package domain

import "time"

// Currency is the currency every predicted price is quoted in
const Currency = "RUB"

// CarAttributes represents the raw attributes of a car submitted for pricing
type CarAttributes struct {
	Brand    string `json:"brand" validate:"required"`
	Name     string `json:"name" validate:"required"`
	BodyType string `json:"bodyType" validate:"required"`
	Color    string `json:"color" validate:"required"`
	FuelType string `json:"fuelType" validate:"required"`
	Year     int    `json:"year" validate:"required,gt=0"`
	Power    int    `json:"power" validate:"required,gt=0"`
}

// Prediction represents the outcome of a single price prediction
type Prediction struct {
	Price     float64 `json:"predicted_price"`
	Currency  string  `json:"currency"`
	LogPrice  float64 `json:"log_price"`
	HistoryID string  `json:"history_id,omitempty"`
}

// PredictionRecord represents a persisted prediction in the history log
type PredictionRecord struct {
	ID             string        `json:"id" db:"id"`
	Timestamp      time.Time     `json:"timestamp" db:"timestamp"`
	Car            CarAttributes `json:"car_data"`
	PredictedPrice float64       `json:"predicted_price" db:"predicted_price"`
}

// ReferenceValues enumerates the valid categorical choices and numeric ranges
// observed during preprocessing
type ReferenceValues struct {
	Brands    []string            `json:"brands"`
	Models    map[string][]string `json:"models"`
	BodyTypes []string            `json:"bodyTypes"`
	Colors    []string            `json:"colors"`
	FuelTypes []string            `json:"fuelTypes"`
	Years     []int               `json:"years"`
	MinPower  int                 `json:"min_power"`
	MaxPower  int                 `json:"max_power"`
}

// ModelMetrics holds the held-out evaluation metrics of the trained model
type ModelMetrics struct {
	TestMAE  float64 `json:"test_mae"`
	TestRMSE float64 `json:"test_rmse"`
	TestLoss float64 `json:"test_loss"`
}

// FeatureInfo describes the feature columns the model was trained on
type FeatureInfo struct {
	CategoricalCols []string     `json:"categorical_cols"`
	NumericalCols   []string     `json:"numerical_cols"`
	InputDim        int          `json:"input_dim"`
	Metrics         ModelMetrics `json:"metrics"`
}
