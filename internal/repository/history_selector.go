package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// LocalHistoryFactory opens the local fallback store
type LocalHistoryFactory func(ctx context.Context) (HistoryRepository, error)

// SelectHistoryRepository picks the networked store when it answers a ping
// within timeout and otherwise opens the local store. A nil remote goes
// straight to the local store.
func SelectHistoryRepository(
	ctx context.Context,
	remote HistoryRepository,
	local LocalHistoryFactory,
	timeout time.Duration,
	logger *zap.Logger,
) (HistoryRepository, error) {
	if remote != nil {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		err := remote.Ping(pingCtx)
		cancel()

		if err == nil {
			logger.Info("Using networked history store", zap.String("backend", remote.Backend()))
			return remote, nil
		}

		logger.Warn("Networked history store unreachable, falling back to local store",
			zap.String("backend", remote.Backend()),
			zap.Error(err),
		)
		if closeErr := remote.Close(); closeErr != nil {
			logger.Debug("Failed to close networked history store", zap.Error(closeErr))
		}
	}

	repo, err := local(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open local history store: %w", err)
	}

	logger.Info("Using local history store", zap.String("backend", repo.Backend()))
	return repo, nil
}
