package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/eval-tree-viewer/internal/adapters/http"
	"github.com/kirillkom/eval-tree-viewer/internal/bootstrap"
	"github.com/kirillkom/eval-tree-viewer/internal/config"
	"github.com/kirillkom/eval-tree-viewer/internal/observability/logging"
	"github.com/kirillkom/eval-tree-viewer/internal/observability/metrics"
	"github.com/kirillkom/eval-tree-viewer/internal/observability/tracing"
)

func main() {
	cfg := config.Load()
	logger, logCloser := logging.New(logging.Options{
		Service: bootstrap.APIService,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Options{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
		Service:     bootstrap.APIService,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		logger.Error("tracing_setup_failed", "error", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPServerMetrics(bootstrap.APIService)
	app, err := bootstrap.New(ctx, cfg, logger, httpMetrics)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(cfg, httpadapter.Deps{
		Service:     bootstrap.APIService,
		Logger:      logger,
		Metrics:     httpMetrics,
		Loads:       app.Loads,
		Credentials: app.Credentials,
		Catalog:     app.Catalog,
		Rankings:    app.Rankings,
		Sessions:    app.Sessions,
		Exporter:    app.Exporter,
		Events:      app.Events,
	}).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go app.Run(ctx)
	go func() {
		logger.Info("api_listening", "addr", server.Addr, "source", cfg.DocumentSource)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing_shutdown_failed", "error", err)
	}
}
