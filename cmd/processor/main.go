package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/parishworks/parish-ledger/internal/app"
	"github.com/parishworks/parish-ledger/internal/config"
	"github.com/parishworks/parish-ledger/internal/processor"
	"github.com/parishworks/parish-ledger/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := config.Load(app.EnvPath(os.Args))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting ledger processor", "version", version, "commit", commit, "date", date)

	db, err := app.OpenDB(cfg)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}
	redisAdap, err := app.OpenRedis(cfg)
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := app.Build(ctx, cfg, db, redisAdap)
	if err != nil {
		logger.Error("failed wiring services", "error", err)
		return
	}
	defer container.Close()

	app.StartMetrics(cfg)

	idemConfig := processor.DefaultIdempotencyConfig()
	idemConfig.MaxRetries = cfg.QueueMaxRetries
	idempotency := processor.NewIdempotencyService(redisAdap, idemConfig)

	service := processor.NewProcessorService(redisAdap, processor.Config{
		Queue:          app.QueueConfig(cfg),
		Consumers:      cfg.QueueConsumers,
		Workers:        cfg.QueueWorkers,
		SweepInterval:  cfg.LedgerSweepInterval,
		SweepBatchSize: cfg.LedgerSweepBatchSize,
	}, processor.NewLedgerPostingProcessor(container.Posting, idempotency), container.Posting)

	if err := service.Start(ctx); err != nil {
		logger.Error("failed to start processor", "error", err)
		return
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	service.Stop()
	stats := service.Metrics().GetStats()
	logger.Info("ledger processor stopped", "processed", stats.Processed, "failed", stats.Failed, "swept", stats.Swept)
}
