package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/eval-tree-viewer/internal/config"
	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
	"github.com/kirillkom/eval-tree-viewer/internal/core/ports"
	"github.com/kirillkom/eval-tree-viewer/internal/core/usecase"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/queue/nats"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/resilience"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/watch"
	"github.com/kirillkom/eval-tree-viewer/internal/observability/metrics"
)

// Worker turns raw evaluation records into processed model documents.
type Worker struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.WorkerMetrics

	Inputs  *localfs.Storage
	Process ports.Processor
	Watcher *watch.DirWatcher

	closeFns []func()
}

func NewWorker(ctx context.Context, cfg config.Config, logger *slog.Logger, m *metrics.WorkerMetrics) (*Worker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{Config: cfg, Logger: logger, Metrics: m}

	inputs, err := localfs.New(cfg.WorkerInputDir)
	if err != nil {
		return nil, fmt.Errorf("open input dir: %w", err)
	}
	w.Inputs = inputs

	var outputs ports.DocumentWriter
	switch cfg.WorkerOutput {
	case SourcePostgres:
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		w.closeFns = append(w.closeFns, func() { _ = db.Close() })
		repo := postgres.NewDocumentRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			w.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		outputs = repo
	default:
		storage, err := localfs.New(cfg.WorkerOutputDir)
		if err != nil {
			return nil, fmt.Errorf("open output dir: %w", err)
		}
		outputs = storage
	}

	var notifier ports.UpdateNotifier
	if cfg.NATSEnabled {
		executor := resilience.NewExecutor(SourceResilience(cfg), logger)
		n, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("init update notifier: %w", err)
		}
		w.closeFns = append(w.closeFns, n.Close)
		notifier = n
	}

	w.Process = usecase.NewProcessUseCase(inputs, outputs, notifier, cfg.WorkerTemplateKey, cfg.WorkerConcurrency)
	if cfg.WorkerWatch {
		w.Watcher = watch.NewDirWatcher(cfg.WorkerInputDir, func(ctx context.Context) {
			_, _ = w.RunOnce(ctx)
		}, watch.Options{Suffix: ".jsonl", Logger: logger})
	}
	return w, nil
}

// RunOnce processes every input once and logs the outcome.
func (w *Worker) RunOnce(ctx context.Context) (domain.ProcessResult, error) {
	if w.Metrics != nil {
		w.Metrics.StartRun()
	}
	start := time.Now()
	result, err := w.Process.ProcessAll(ctx)
	if w.Metrics != nil {
		w.Metrics.FinishRun(WorkerService, time.Since(start), len(result.Models), len(result.Failed), err)
	}

	for model, reason := range result.Failed {
		w.Logger.Warn("model_records_skipped", "model", model, "error", reason)
	}
	if err != nil {
		w.Logger.Error("process_run_failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return result, err
	}
	w.Logger.Info("process_run_completed",
		"models", len(result.Models),
		"failed", len(result.Failed),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (w *Worker) Close() {
	for i := len(w.closeFns) - 1; i >= 0; i-- {
		w.closeFns[i]()
	}
	w.closeFns = nil
}
