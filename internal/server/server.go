package server

import (
	"fmt"
	"net/http"
	"time"

	"car-price/internal/artifacts"
	"car-price/internal/config"
	"car-price/internal/credit"
	"car-price/internal/metrics"
	custommiddleware "car-price/internal/middleware"
	"car-price/internal/repository"
	"car-price/internal/service"
	"car-price/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	serviceName = "car price prediction api"
	Version     = "1.0"
)

// Dependencies are the long-lived resources the server is built from
type Dependencies struct {
	Bundle   *artifacts.Bundle
	History  repository.HistoryRepository
	Recorder *metrics.Recorder
	Redis    *redis.Client // nil selects the in-process rate limiter
}

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	history repository.HistoryRepository
	redis   *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	router := NewRouter(cfg, logger, deps)

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:  cfg,
		logger:  logger,
		history: deps.History,
		redis:   deps.Redis,
	}
}

// NewRouter builds the HTTP routes on top of the loaded artifacts
func NewRouter(cfg *config.Config, logger *zap.Logger, deps Dependencies) chi.Router {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.MetricsMiddleware(deps.Recorder))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))

	predictions := service.NewPredictionService(
		deps.Bundle.Encoder,
		deps.Bundle.Predictor,
		deps.History,
		deps.Recorder,
		logger,
	)
	credits := service.NewCreditService(credit.NewCalculator(creditPolicy(cfg.Credit)), deps.Recorder, logger)
	reference := service.NewReferenceService(deps.Bundle.Reference, deps.Bundle.FeatureInfo)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{
			"message": serviceName,
			"version": Version,
		})
	})
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{
			"status":          "ok",
			"history_backend": predictions.HistoryBackend(),
		})
	})
	router.Method(http.MethodGet, "/internal/metrics", deps.Recorder.Handler())

	transport.NewPredictionHandler(predictions, logger).RegisterRoutes(router, rateLimiter(cfg.RateLimit, deps.Redis, logger))
	transport.NewCreditHandler(credits, logger).RegisterRoutes(router)
	transport.NewHistoryHandler(predictions, logger).RegisterRoutes(router)
	transport.NewReferenceHandler(reference, logger).RegisterRoutes(router)

	return router
}

func creditPolicy(cfg config.CreditConfig) credit.Policy {
	policy := credit.DefaultPolicy()
	if cfg.MaxTermMonths > 0 {
		policy.MinTermMonths = cfg.MinTermMonths
		policy.MaxTermMonths = cfg.MaxTermMonths
	}
	if cfg.MaxRatePercent > 0 {
		policy.MinRatePercent = cfg.MinRatePercent
		policy.MaxRatePercent = cfg.MaxRatePercent
	}
	return policy
}

func rateLimiter(cfg config.RateLimitConfig, client *redis.Client, logger *zap.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled || cfg.RequestsPerWindow <= 0 || cfg.Window <= 0 {
		return nil
	}

	limitCfg := custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RequestsPerWindow,
		Window:            cfg.Window,
		KeyPrefix:         "carprice:predict",
	}

	var limiter custommiddleware.Limiter
	if client != nil {
		limiter = custommiddleware.NewRedisLimiter(client, limitCfg)
	} else {
		limiter = custommiddleware.NewLocalLimiter(limitCfg)
	}
	return custommiddleware.RateLimitMiddleware(limiter, logger)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.history != nil {
		if err := s.history.Close(); err != nil {
			s.logger.Error("Failed to close history store", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
