package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// History backend selection modes
const (
	HistoryBackendAuto     = "auto"
	HistoryBackendPostgres = "postgres"
	HistoryBackendSQLite   = "sqlite"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	History   HistoryConfig
	Artifacts ArtifactsConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Credit    CreditConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Database      string
	Schema        string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	MigrationsDir string
}

type HistoryConfig struct {
	Backend     string // auto, postgres or sqlite
	LocalPath   string
	PingTimeout time.Duration
}

type ArtifactsConfig struct {
	Dir string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns the redis address, or "" when redis is not configured
func (c RedisConfig) Addr() string {
	if c.Host == "" {
		return ""
	}
	return c.Host + ":" + c.Port
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerWindow int
	Window            time.Duration
}

type CreditConfig struct {
	MinTermMonths  int
	MaxTermMonths  int
	MinRatePercent float64
	MaxRatePercent float64
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env != "production"
}

func Load() *Config {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:7860")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_DATABASE", "car_price")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MIGRATIONS_DIR", "migrations")
	v.SetDefault("HISTORY_BACKEND", HistoryBackendAuto)
	v.SetDefault("HISTORY_LOCAL_PATH", "history.db")
	v.SetDefault("HISTORY_PING_TIMEOUT", 3*time.Second)
	v.SetDefault("ARTIFACTS_DIR", "models")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_REQUESTS", 60)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Minute)
	v.SetDefault("CREDIT_MIN_TERM_MONTHS", 12)
	v.SetDefault("CREDIT_MAX_TERM_MONTHS", 84)
	v.SetDefault("CREDIT_MIN_RATE_PERCENT", 5.0)
	v.SetDefault("CREDIT_MAX_RATE_PERCENT", 20.0)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetString("DB_PORT"),
			User:          v.GetString("DB_USER"),
			Password:      v.GetString("DB_PASSWORD"),
			Database:      v.GetString("DB_DATABASE"),
			Schema:        v.GetString("DB_SCHEMA"),
			SSLMode:       v.GetString("DB_SSLMODE"),
			MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
			MigrationsDir: v.GetString("DB_MIGRATIONS_DIR"),
		},
		History: HistoryConfig{
			Backend:     strings.ToLower(v.GetString("HISTORY_BACKEND")),
			LocalPath:   v.GetString("HISTORY_LOCAL_PATH"),
			PingTimeout: v.GetDuration("HISTORY_PING_TIMEOUT"),
		},
		Artifacts: ArtifactsConfig{
			Dir: v.GetString("ARTIFACTS_DIR"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           v.GetBool("RATE_LIMIT_ENABLED"),
			RequestsPerWindow: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:            v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Credit: CreditConfig{
			MinTermMonths:  v.GetInt("CREDIT_MIN_TERM_MONTHS"),
			MaxTermMonths:  v.GetInt("CREDIT_MAX_TERM_MONTHS"),
			MinRatePercent: v.GetFloat64("CREDIT_MIN_RATE_PERCENT"),
			MaxRatePercent: v.GetFloat64("CREDIT_MAX_RATE_PERCENT"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
