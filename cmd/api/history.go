package main

import (
	"context"
	"database/sql"
	"fmt"

	"car-price/internal/config"
	"car-price/internal/database"
	"car-price/internal/repository"

	"go.uber.org/zap"
)

// openHistory opens the history store named by HISTORY_BACKEND. In auto mode
// postgres is used when it answers a ping and the local sqlite file otherwise.
func openHistory(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.HistoryRepository, error) {
	local := func(ctx context.Context) (repository.HistoryRepository, error) {
		return repository.NewSQLiteHistoryRepository(ctx, cfg.History.LocalPath)
	}

	switch cfg.History.Backend {
	case config.HistoryBackendSQLite:
		return repository.SelectHistoryRepository(ctx, nil, local, cfg.History.PingTimeout, logger)

	case config.HistoryBackendPostgres:
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := preparePostgres(ctx, db, cfg, logger); err != nil {
			db.Close()
			return nil, err
		}
		return repository.NewPostgresHistoryRepository(db), nil

	case config.HistoryBackendAuto, "":
		db, err := database.Open(cfg.Database)
		if err != nil {
			logger.Warn("Failed to open postgres, using local history store", zap.Error(err))
			return repository.SelectHistoryRepository(ctx, nil, local, cfg.History.PingTimeout, logger)
		}

		repo, err := repository.SelectHistoryRepository(ctx, repository.NewPostgresHistoryRepository(db), local, cfg.History.PingTimeout, logger)
		if err != nil {
			return nil, err
		}
		if repo.Backend() == repository.BackendPostgres {
			if err := preparePostgres(ctx, db, cfg, logger); err != nil {
				repo.Close()
				return nil, err
			}
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}

func preparePostgres(ctx context.Context, db *sql.DB, cfg *config.Config, logger *zap.Logger) error {
	health := database.Health(ctx, db)
	logger.Info("Database health check", zap.Any("health", health))
	if health["status"] != "up" {
		return fmt.Errorf("postgres history store unreachable: %s", health["error"])
	}

	if err := database.RunMigrations(db, cfg.Database.MigrationsDir, logger); err != nil {
		return err
	}
	return nil
}
