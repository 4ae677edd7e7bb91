package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agricoop/backend/internal/config"
	"github.com/agricoop/backend/internal/db"
	"github.com/agricoop/backend/internal/jobs"
	"github.com/agricoop/backend/internal/observability"
	postgresrepo "github.com/agricoop/backend/internal/repository/postgres"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	scanner := jobs.NewOverdueScanner(
		postgresrepo.NewInstallmentRepository(pool),
		postgresrepo.NewOutboxRepository(pool),
	)

	interval := cfg.OverdueScanInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("overdue scanner started", "interval", interval.String(), "batch_size", cfg.OverdueScanBatchSize)
	for {
		select {
		case <-sigCtx.Done():
			logger.Info("overdue scanner stopped")
			return
		case <-ticker.C:
			runCtx, runCancel := context.WithTimeout(context.Background(), 60*time.Second)
			err := scanner.RunOnce(runCtx, cfg.OverdueScanBatchSize)
			runCancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("overdue scan failed", "err", err)
			}
		}
	}
}
