package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"car-price/internal/artifacts"
	"car-price/internal/config"
	"car-price/internal/credit"
	"car-price/internal/metrics"
	"car-price/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const camryJSON = `{"brand":"Toyota","name":"Camry","bodyType":"sedan","color":"white","fuelType":"gasoline","year":2020,"power":249}`

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Env: "test"},
		RateLimit: config.RateLimitConfig{
			Enabled:           true,
			RequestsPerWindow: 2,
			Window:            time.Hour,
		},
	}
}

func testDependencies(t *testing.T) Dependencies {
	t.Helper()

	bundle, err := artifacts.Load(context.Background(), filepath.Join("..", "artifacts", "testdata"), zap.NewNop())
	require.NoError(t, err)

	history, err := repository.NewSQLiteHistoryRepository(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	return Dependencies{
		Bundle:   bundle,
		History:  history,
		Recorder: metrics.New(),
	}
}

func serve(router chi.Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_RootAndHealth(t *testing.T) {
	router := NewRouter(testConfig(), zap.NewNop(), testDependencies(t))

	w := serve(router, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"car price prediction api","version":"1.0"}`, w.Body.String())

	w = serve(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","history_backend":"sqlite"}`, w.Body.String())
}

func TestRouter_PredictIsRateLimited(t *testing.T) {
	router := NewRouter(testConfig(), zap.NewNop(), testDependencies(t))

	for i := 0; i < 2; i++ {
		w := serve(router, http.MethodPost, "/predict", camryJSON)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := serve(router, http.MethodPost, "/predict", camryJSON)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// other routes are not limited
	w = serve(router, http.MethodGet, "/brands", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RedisBackedRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: mr.Port()}

	deps := testDependencies(t)
	deps.Redis = ConnectRedis(context.Background(), cfg.Redis, zap.NewNop())
	require.NotNil(t, deps.Redis)
	defer deps.Redis.Close()

	router := NewRouter(cfg, zap.NewNop(), deps)
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/predict", camryJSON).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodPost, "/predict", camryJSON).Code)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "carprice:predict:"))
}

func TestRouter_RateLimitDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = false
	router := NewRouter(cfg, zap.NewNop(), testDependencies(t))

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/predict", camryJSON).Code)
	}
}

func TestRouter_PrometheusEndpoint(t *testing.T) {
	router := NewRouter(testConfig(), zap.NewNop(), testDependencies(t))

	require.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/predict", camryJSON).Code)

	w := serve(router, http.MethodGet, "/internal/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `carprice_predictions_total{outcome="success"} 1`)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="POST",route="/predict",status="200"} 1`)
}

func TestRouter_CreditPolicyFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Credit = config.CreditConfig{
		MinTermMonths:  6,
		MaxTermMonths:  120,
		MinRatePercent: 0,
		MaxRatePercent: 30,
	}
	router := NewRouter(cfg, zap.NewNop(), testDependencies(t))

	w := serve(router, http.MethodPost, "/calculate_credit",
		`{"car_price":120000,"down_payment":0,"loan_term_months":120,"interest_rate":0}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var quote struct {
		MonthlyPayment float64 `json:"monthly_payment"`
		TotalInterest  float64 `json:"total_interest"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
	assert.Equal(t, 1000.0, quote.MonthlyPayment)
	assert.Equal(t, 0.0, quote.TotalInterest)
}

func TestCreditPolicy_DefaultsWhenUnset(t *testing.T) {
	assert.Equal(t, credit.DefaultPolicy(), creditPolicy(config.CreditConfig{}))
}

func TestConnectRedis(t *testing.T) {
	assert.Nil(t, ConnectRedis(context.Background(), config.RedisConfig{}, zap.NewNop()))

	mr := miniredis.RunT(t)
	addr := config.RedisConfig{Host: mr.Host(), Port: mr.Port()}
	client := ConnectRedis(context.Background(), addr, zap.NewNop())
	require.NotNil(t, client)
	client.Close()

	mr.Close()
	assert.Nil(t, ConnectRedis(context.Background(), addr, zap.NewNop()))
}

func TestServer_CloseReleasesHistory(t *testing.T) {
	deps := testDependencies(t)
	srv := NewServer(testConfig(), zap.NewNop(), deps)

	assert.Equal(t, ":0", srv.Addr)
	require.NoError(t, srv.Close())

	err := deps.History.Ping(context.Background())
	assert.Error(t, err)
}
