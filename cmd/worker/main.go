package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/eval-tree-viewer/internal/bootstrap"
	"github.com/kirillkom/eval-tree-viewer/internal/config"
	"github.com/kirillkom/eval-tree-viewer/internal/observability/logging"
	"github.com/kirillkom/eval-tree-viewer/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger, logCloser := logging.New(logging.Options{
		Service: bootstrap.WorkerService,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(bootstrap.WorkerService)
	worker, err := bootstrap.NewWorker(ctx, cfg, logger, workerMetrics)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer worker.Close()

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()

	if _, err := worker.RunOnce(ctx); err != nil && worker.Watcher == nil {
		os.Exit(1)
	}

	if worker.Watcher != nil {
		logger.Info("worker_watching", "dir", cfg.WorkerInputDir)
		if err := worker.Watcher.Run(ctx); err != nil {
			logger.Error("worker_watch_failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
