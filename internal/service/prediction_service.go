package service

import (
	"context"
	"errors"
	"time"

	"car-price/internal/domain"
	"car-price/internal/features"
	"car-price/internal/metrics"
	"car-price/internal/model"
	"car-price/internal/repository"

	"go.uber.org/zap"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// FeatureEncoder turns car attributes into model input
type FeatureEncoder interface {
	Encode(car domain.CarAttributes) features.FeatureVector
	UnknownColumns(car domain.CarAttributes) []string
}

// PricePredictor runs the regression model
type PricePredictor interface {
	Predict(ctx context.Context, vector features.FeatureVector) (price, logPrice float64, err error)
}

// PredictionService defines the interface for price prediction business logic
type PredictionService interface {
	PredictAndRecord(ctx context.Context, car domain.CarAttributes) (*domain.Prediction, error)
	ListHistory(ctx context.Context, limit, offset int) ([]*domain.PredictionRecord, error)
	DeleteHistory(ctx context.Context, id string) (bool, error)
	HistoryBackend() string
}

type predictionService struct {
	encoder   FeatureEncoder
	predictor PricePredictor
	history   repository.HistoryRepository
	metrics   *metrics.Recorder
	logger    *zap.Logger
	now       func() time.Time
}

// Option customizes a PredictionService
type Option func(*predictionService)

// WithClock overrides the clock used to timestamp history records
func WithClock(now func() time.Time) Option {
	return func(s *predictionService) {
		s.now = now
	}
}

// NewPredictionService creates a new instance of PredictionService
func NewPredictionService(
	encoder FeatureEncoder,
	predictor PricePredictor,
	history repository.HistoryRepository,
	recorder *metrics.Recorder,
	logger *zap.Logger,
	opts ...Option,
) PredictionService {
	s := &predictionService{
		encoder:   encoder,
		predictor: predictor,
		history:   history,
		metrics:   recorder,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PredictAndRecord validates the car, prices it and appends it to the
// history. A failed history write never fails the prediction.
func (s *predictionService) PredictAndRecord(ctx context.Context, car domain.CarAttributes) (*domain.Prediction, error) {
	if err := validateStruct(car); err != nil {
		s.metrics.RecordPrediction("validation_error", 0)
		return nil, err
	}

	for _, col := range s.encoder.UnknownColumns(car) {
		s.metrics.RecordUnseenValue(col)
		s.logger.Debug("Unseen categorical value, using fallback class", zap.String("column", col))
	}

	vector := s.encoder.Encode(car)

	price, logPrice, err := s.predictor.Predict(ctx, vector)
	if err != nil {
		s.metrics.RecordPrediction("inference_error", 0)
		var inferenceErr *model.InferenceError
		if !errors.As(err, &inferenceErr) {
			err = &model.InferenceError{Err: err}
		}
		return nil, err
	}
	s.metrics.RecordPrediction("success", price)

	prediction := &domain.Prediction{
		Price:    price,
		Currency: domain.Currency,
		LogPrice: logPrice,
	}

	id, err := s.record(ctx, car, price)
	if err != nil {
		s.metrics.RecordHistoryFailure()
		s.logger.Warn("Prediction history write skipped", zap.Error(err))
		return prediction, nil
	}

	prediction.HistoryID = id
	return prediction, nil
}

func (s *predictionService) record(ctx context.Context, car domain.CarAttributes, price float64) (string, error) {
	// postgres keeps microseconds
	ts := s.now().UTC().Truncate(time.Microsecond)
	record := &domain.PredictionRecord{
		ID:             newRecordID(car, ts),
		Timestamp:      ts,
		Car:            car,
		PredictedPrice: price,
	}

	if s.history == nil {
		return "", &HistoryWriteError{RecordID: record.ID, Err: errors.New("history store not configured")}
	}
	if err := s.history.Create(ctx, record); err != nil {
		return "", &HistoryWriteError{RecordID: record.ID, Err: err}
	}
	return record.ID, nil
}

// ListHistory returns records newest first. A zero limit selects the default.
func (s *predictionService) ListHistory(ctx context.Context, limit, offset int) ([]*domain.PredictionRecord, error) {
	var fields []FieldError
	if limit < 0 {
		fields = append(fields, FieldError{Field: "limit", Message: "Value must be greater than or equal to 0"})
	}
	if offset < 0 {
		fields = append(fields, FieldError{Field: "offset", Message: "Value must be greater than or equal to 0"})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if s.history == nil {
		return nil, ErrHistoryUnavailable
	}

	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	records, err := s.history.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list prediction history", zap.Error(err))
		return nil, err
	}
	return records, nil
}

// DeleteHistory removes a record and reports whether it existed
func (s *predictionService) DeleteHistory(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, &ValidationError{Fields: []FieldError{{Field: "id", Message: "This field is required"}}}
	}

	if s.history == nil {
		return false, ErrHistoryUnavailable
	}

	deleted, err := s.history.Delete(ctx, id)
	if err != nil {
		s.logger.Error("Failed to delete prediction record", zap.String("id", id), zap.Error(err))
		return false, err
	}
	return deleted, nil
}

func (s *predictionService) HistoryBackend() string {
	if s.history == nil {
		return "none"
	}
	return s.history.Backend()
}
