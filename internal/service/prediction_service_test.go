package service

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"car-price/internal/artifacts"
	"car-price/internal/domain"
	"car-price/internal/features"
	"car-price/internal/metrics"
	"car-price/internal/model"
	"car-price/internal/repository"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Mock history repository for testing
type mockHistoryRepository struct {
	mu        sync.Mutex
	records   map[string]*domain.PredictionRecord
	createErr error
}

func newMockHistoryRepository() *mockHistoryRepository {
	return &mockHistoryRepository{records: make(map[string]*domain.PredictionRecord)}
}

func (m *mockHistoryRepository) Create(ctx context.Context, record *domain.PredictionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.records[record.ID]; exists {
		return repository.ErrDuplicateRecord
	}
	m.records[record.ID] = record
	return nil
}

func (m *mockHistoryRepository) List(ctx context.Context, limit, offset int) ([]*domain.PredictionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*domain.PredictionRecord, 0, len(m.records))
	for _, r := range m.records {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Timestamp.After(all[j].Timestamp) })
	if offset >= len(all) {
		return []*domain.PredictionRecord{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *mockHistoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[id]; !exists {
		return false, nil
	}
	delete(m.records, id)
	return true, nil
}

func (m *mockHistoryRepository) Ping(ctx context.Context) error { return nil }

func (m *mockHistoryRepository) Backend() string { return "mock" }

func (m *mockHistoryRepository) Close() error { return nil }

type failingPredictor struct{}

func (failingPredictor) Predict(ctx context.Context, vector features.FeatureVector) (float64, float64, error) {
	return 0, 0, &model.InferenceError{Err: model.ErrInputShape}
}

func camry() domain.CarAttributes {
	return domain.CarAttributes{
		Brand:    "Toyota",
		Name:     "Camry",
		BodyType: "sedan",
		Color:    "white",
		FuelType: "gasoline",
		Year:     2020,
		Power:    249,
	}
}

func loadBundle(t *testing.T) *artifacts.Bundle {
	t.Helper()
	bundle, err := artifacts.Load(context.Background(), "../artifacts/testdata", zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to load artifacts: %v", err)
	}
	return bundle
}

func TestPredictAndRecord_EndToEnd(t *testing.T) {
	bundle := loadBundle(t)
	history := newMockHistoryRepository()
	svc := NewPredictionService(bundle.Encoder, bundle.Predictor, history, metrics.New(), zap.NewNop())

	prediction, err := svc.PredictAndRecord(context.Background(), camry())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// run encoder -> network -> expm1 outside the service
	logPrice, err := bundle.Network.Predict(context.Background(), bundle.Encoder.Encode(camry()))
	if err != nil {
		t.Fatalf("Failed to run network: %v", err)
	}
	manual := math.Expm1(logPrice)

	if math.Abs(manual-prediction.Price) > 1e-6 {
		t.Errorf("Expected price %v, got %v", manual, prediction.Price)
	}
	if math.Abs(logPrice-prediction.LogPrice) > 1e-12 {
		t.Errorf("Expected log price %v, got %v", logPrice, prediction.LogPrice)
	}
	if math.Abs(prediction.Price-1848711.48) > 0.01 {
		t.Errorf("Expected price near 1848711.48, got %v", prediction.Price)
	}
	if prediction.Currency != "RUB" {
		t.Errorf("Expected currency RUB, got %s", prediction.Currency)
	}
	if len(prediction.HistoryID) != 16 {
		t.Fatalf("Expected a 16 character history id, got %q", prediction.HistoryID)
	}

	records, err := svc.ListHistory(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("Failed to list history: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].ID != prediction.HistoryID {
		t.Errorf("Expected record %s, got %s", prediction.HistoryID, records[0].ID)
	}
	if records[0].Car != camry() {
		t.Errorf("Unexpected recorded car %+v", records[0].Car)
	}
	if records[0].PredictedPrice != prediction.Price {
		t.Errorf("Expected recorded price %v, got %v", prediction.Price, records[0].PredictedPrice)
	}
}

func TestPredictAndRecord_HistoryFailureIsSwallowed(t *testing.T) {
	bundle := loadBundle(t)
	history := newMockHistoryRepository()
	history.createErr = errors.New("disk full")

	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewPredictionService(bundle.Encoder, bundle.Predictor, history, metrics.New(), zap.New(core))

	prediction, err := svc.PredictAndRecord(context.Background(), camry())
	if err != nil {
		t.Fatalf("Expected history failure to be swallowed, got %v", err)
	}
	if prediction.HistoryID != "" {
		t.Errorf("Expected no history id, got %q", prediction.HistoryID)
	}
	if prediction.Price <= 0 {
		t.Errorf("Expected a positive price, got %v", prediction.Price)
	}

	entries := logs.FilterMessage("Prediction history write skipped").All()
	if len(entries) != 1 {
		t.Fatalf("Expected one warning, got %d", len(entries))
	}

	loggedErr, ok := entries[0].ContextMap()["error"].(string)
	if !ok || !strings.Contains(loggedErr, "disk full") {
		t.Errorf("Expected logged error to mention the cause, got %v", entries[0].ContextMap()["error"])
	}
}

func TestPredictAndRecord_HistoryWriteErrorType(t *testing.T) {
	history := newMockHistoryRepository()
	history.createErr = errors.New("connection reset")
	svc := &predictionService{history: history, now: time.Now}

	_, err := svc.record(context.Background(), camry(), 1)

	var writeErr *HistoryWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("Expected HistoryWriteError, got %v", err)
	}
	if len(writeErr.RecordID) != 16 {
		t.Errorf("Expected a 16 character record id, got %q", writeErr.RecordID)
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("Expected error to mention the cause, got %v", err)
	}
}

func TestPredictAndRecord_ValidationError(t *testing.T) {
	bundle := loadBundle(t)
	svc := NewPredictionService(bundle.Encoder, bundle.Predictor, newMockHistoryRepository(), metrics.New(), zap.NewNop())

	car := camry()
	car.Brand = ""
	car.Year = 0

	_, err := svc.PredictAndRecord(context.Background(), car)

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	fields := make([]string, 0, len(validationErr.Fields))
	for _, f := range validationErr.Fields {
		fields = append(fields, f.Field)
	}
	sort.Strings(fields)
	if len(fields) != 2 || fields[0] != "brand" || fields[1] != "year" {
		t.Errorf("Expected brand and year errors, got %v", fields)
	}
}

func TestPredictAndRecord_InferenceError(t *testing.T) {
	bundle := loadBundle(t)
	history := newMockHistoryRepository()
	svc := NewPredictionService(bundle.Encoder, failingPredictor{}, history, metrics.New(), zap.NewNop())

	_, err := svc.PredictAndRecord(context.Background(), camry())

	var inferenceErr *model.InferenceError
	if !errors.As(err, &inferenceErr) {
		t.Fatalf("Expected InferenceError, got %v", err)
	}
	if len(history.records) != 0 {
		t.Errorf("Expected no history after a failed inference, got %d records", len(history.records))
	}
}

func TestPredictAndRecord_UnseenCategoriesStillPredict(t *testing.T) {
	bundle := loadBundle(t)
	svc := NewPredictionService(bundle.Encoder, bundle.Predictor, newMockHistoryRepository(), metrics.New(), zap.NewNop())

	car := camry()
	car.Brand = "Lada"
	car.Color = "burgundy"

	first, err := svc.PredictAndRecord(context.Background(), car)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := svc.PredictAndRecord(context.Background(), car)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if first.LogPrice != second.LogPrice {
		t.Errorf("Expected identical log prices, got %v and %v", first.LogPrice, second.LogPrice)
	}
	if first.HistoryID == second.HistoryID {
		t.Error("Expected distinct history ids")
	}
}

func TestListHistory_NewestFirstWithSQLite(t *testing.T) {
	bundle := loadBundle(t)
	repo, err := repository.NewSQLiteHistoryRepository(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite history: %v", err)
	}
	defer repo.Close()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	svc := NewPredictionService(bundle.Encoder, bundle.Predictor, repo, metrics.New(), zap.NewNop(), WithClock(clock))

	var ids []string
	for i := 0; i < 3; i++ {
		prediction, err := svc.PredictAndRecord(context.Background(), camry())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		ids = append(ids, prediction.HistoryID)
	}

	records, err := svc.ListHistory(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("Failed to list history: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].ID != ids[2] || records[1].ID != ids[1] {
		t.Errorf("Expected newest first [%s %s], got [%s %s]", ids[2], ids[1], records[0].ID, records[1].ID)
	}
}

func TestListHistory_Validation(t *testing.T) {
	svc := NewPredictionService(nil, nil, newMockHistoryRepository(), metrics.New(), zap.NewNop())

	_, err := svc.ListHistory(context.Background(), -1, -5)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if len(validationErr.Fields) != 2 {
		t.Errorf("Expected 2 field errors, got %+v", validationErr.Fields)
	}
}

func TestDeleteHistory_Idempotent(t *testing.T) {
	history := newMockHistoryRepository()
	history.records["abc"] = &domain.PredictionRecord{ID: "abc", Timestamp: time.Now()}
	svc := NewPredictionService(nil, nil, history, metrics.New(), zap.NewNop())

	deleted, err := svc.DeleteHistory(context.Background(), "abc")
	if err != nil || !deleted {
		t.Fatalf("Expected first delete to remove the record, got deleted=%v err=%v", deleted, err)
	}

	deleted, err = svc.DeleteHistory(context.Background(), "abc")
	if err != nil || deleted {
		t.Errorf("Expected second delete to be a no-op, got deleted=%v err=%v", deleted, err)
	}
}

// Property: record ids never collide for the same car and timestamp
func TestProperty_RecordIDsAreUnique(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("same car at the same instant gets distinct ids", prop.ForAll(
		func(brand string, year int) bool {
			car := camry()
			car.Brand = brand
			car.Year = year
			ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

			a := newRecordID(car, ts)
			b := newRecordID(car, ts)
			return a != b && len(a) == recordIDLength && len(b) == recordIDLength
		},
		gen.AlphaString(),
		gen.IntRange(1991, 2024),
	))

	properties.TestingRun(t)
}
