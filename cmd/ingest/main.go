package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parishworks/parish-ledger/internal/app"
	"github.com/parishworks/parish-ledger/internal/config"
	"github.com/parishworks/parish-ledger/internal/ingest"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := config.Load(app.EnvPath(os.Args)); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	cfg := config.Get()
	if cfg.IngestSharedSecret == "" {
		log.Fatal().Msg("INGEST_SHARED_SECRET is required")
	}

	db, err := app.OpenDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed connecting to pg")
	}
	// redis only carries ledger retry events here; run without it if down
	redisAdap, err := app.OpenRedis(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, ledger retries fall back to the outbox sweep")
		redisAdap = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := app.Build(ctx, cfg, db, redisAdap)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed wiring services")
	}
	defer container.Close()

	handler := ingest.NewHandler(ingest.Config{
		OperatorID:   cfg.IngestOperatorID,
		SharedSecret: cfg.IngestSharedSecret,
	}, container.Recorder, container.Members, container.Memos, log.Logger)

	srv := &http.Server{
		Addr:         cfg.IngestListenAddr,
		Handler:      ingest.SetupRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("operator", cfg.IngestOperatorID).Msg("Payment ingest started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
