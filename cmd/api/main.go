package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/parishworks/parish-ledger/internal/app"
	"github.com/parishworks/parish-ledger/internal/config"
	xhttp "github.com/parishworks/parish-ledger/pkg/http"
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
	logger.Info("starting api", "version", version, "commit", commit, "date", date)

	opts := xhttp.DefaultServerOption
	opts.ReadTimeout = cfg.HttpServerReadTimeout
	opts.WriteTimeout = cfg.HttpServerWriteTimeout
	opts.RequestTimeout = cfg.HttpRequestTimeout
	opts.MaxRequestBodySize = cfg.HttpMaxBodyBytes

	s := xhttp.NewServer(opts)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(cfg.HttpRequestTimeout))
	s.Use(xhttp.RequestLogger(cfg.HttpBaseRequestUrl+"/health", cfg.AppDebugMetricsURI))
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.IdentityMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

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
	container.Routes(s.Router, cfg.HttpBaseRequestUrl)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(cfg.HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	s.Shutdown()
}
