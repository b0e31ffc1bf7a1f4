package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"car-price/internal/artifacts"
	"car-price/internal/metrics"
	"car-price/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "", "listen port (overrides SERVER_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		cfg.Server.Port = f.Value.String()
	}

	log.Info("Starting car price prediction API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	bundle, err := artifacts.Load(ctx, cfg.Artifacts.Dir, log)
	if err != nil {
		return fmt.Errorf("failed to load model artifacts: %w", err)
	}

	history, err := openHistory(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv := server.NewServer(cfg, log, server.Dependencies{
		Bundle:   bundle,
		History:  history,
		Recorder: metrics.New(),
		Redis:    server.ConnectRedis(ctx, cfg.Redis, log),
	})

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		srv.Close()
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	log.Info("Graceful shutdown complete")
	return nil
}

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	// In-flight requests get 30 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}
