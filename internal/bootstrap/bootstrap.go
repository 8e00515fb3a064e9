package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/eval-tree-viewer/internal/config"
	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
	"github.com/kirillkom/eval-tree-viewer/internal/core/ports"
	"github.com/kirillkom/eval-tree-viewer/internal/core/usecase"
	"github.com/kirillkom/eval-tree-viewer/internal/core/viewer"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/eventbus"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/loader"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/queue/nats"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/repository/memory"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/resilience"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/taxonomy"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/watch"
	"github.com/kirillkom/eval-tree-viewer/internal/observability/metrics"
)

const (
	APIService    = "eval-viewer-api"
	WorkerService = "eval-viewer-worker"
	MCPService    = "eval-viewer-mcp"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.HTTPServerMetrics

	Store       *viewer.Store
	Loads       *usecase.LoadUseCase
	Sessions    *usecase.SessionUseCase
	Rankings    *usecase.RankingUseCase
	Catalog     *usecase.CatalogUseCase
	Credentials *usecase.CredentialUseCase
	Events      *eventbus.Hub
	Exporter    ports.LeaderboardExporter

	// Notifier is nil unless NATS is enabled.
	Notifier ports.UpdateNotifier
	// Watcher is nil unless the fs source is watched.
	Watcher *watch.DirWatcher

	closeFns []func()
}

// New wires the viewer. m may be nil, e.g. for the MCP server.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, m *metrics.HTTPServerMetrics) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger, Metrics: m}

	executor := resilience.NewExecutor(SourceResilience(cfg), logger)
	source, closeSource, err := NewSource(ctx, cfg, executor)
	if err != nil {
		return nil, fmt.Errorf("init document source: %w", err)
	}
	app.closeFns = append(app.closeFns, closeSource)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init credential storage: %w", err)
	}
	credentials := localfs.NewCredentialStore(storage)

	documents := loader.New(source, loader.Options{
		Concurrency: cfg.LoadConcurrency,
		Logger:      logger,
		OnFetchError: func(loader.Ref, error) {
			if m != nil {
				m.RecordFetchFailure(APIService, source.Kind())
			}
		},
	})

	app.Store = viewer.NewStore()
	app.Events = eventbus.NewHub(0, logger)
	app.Exporter = xlsx.NewExporter()

	sessionRepo := memory.NewSessionRepository[*usecase.ViewerSession](cfg.SessionTTL, 0)
	var sessions ports.SessionStore[*usecase.ViewerSession] = sessionRepo
	if m != nil {
		sessions = &countedSessions{SessionRepository: sessionRepo, metrics: m}
		sessionRepo.OnEvicted(func(string) { m.SetSessionsActive(APIService, sessionRepo.Len()) })
	}

	app.Loads = usecase.NewLoadUseCase(documents, credentials, app.Store, app.Events)
	app.Rankings = usecase.NewRankingUseCase(app.Store, taxonomy.New(cfg.TaxonomyLocation, cfg.SourceRequestTimeout))
	app.Sessions = usecase.NewSessionUseCase(app.Store, sessions, app.Rankings, app.Loads, cfg.DefaultSelectionSize, cfg.ScrollGuardDelay)
	app.Catalog = usecase.NewCatalogUseCase(app.Store)
	app.Credentials = usecase.NewCredentialUseCase(credentials, app.Loads, app.Store)
	app.Loads.OnLoad(app.afterLoad)

	if cfg.NATSEnabled {
		notifier, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init update notifier: %w", err)
		}
		app.Notifier = notifier
		app.closeFns = append(app.closeFns, notifier.Close)
	}

	if cfg.WatchDataDir && cfg.DocumentSource == SourceFS {
		app.Watcher = watch.NewDirWatcher(cfg.DataDir, func(ctx context.Context) {
			app.reloadInBackground(ctx, "data_dir_changed")
		}, watch.Options{Suffix: ".json", Logger: logger})
	}

	return app, nil
}

// afterLoad seeds sessions that were waiting for documents and records the
// outcome of every load attempt. Each attempt also clears a failed taxonomy
// load so the next ranking request tries the taxonomy source again.
func (a *App) afterLoad(_ context.Context, state domain.LoadState, err error) {
	a.Rankings.RetryTaxonomy()
	duration := state.UpdatedAt.Sub(state.StartedAt)
	if a.Metrics != nil {
		a.Metrics.RecordLoad(APIService, duration, err)
		a.Metrics.SetDocumentsLoaded(APIService, state.Models)
	}
	if err != nil {
		a.Logger.Error("documents_load_failed", "error", err, "duration_ms", duration.Milliseconds())
		return
	}
	seeded := a.Sessions.SeedAll()
	a.Logger.Info("documents_loaded",
		"models", state.Models,
		"loaded", state.Loaded,
		"sessions_seeded", seeded,
		"duration_ms", duration.Milliseconds(),
	)
}

// Reload runs one load with the configured timeout and the stored credential.
func (a *App) Reload(ctx context.Context) error {
	if a.Config.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Config.LoadTimeout)
		defer cancel()
	}
	_, err := a.Loads.Reload(ctx, "")
	return err
}

func (a *App) reloadInBackground(ctx context.Context, reason string) {
	a.Logger.Info("documents_reload_triggered", "reason", reason)
	if err := a.Reload(ctx); err != nil {
		a.Logger.Warn("documents_reload_failed", "reason", reason, "error", err)
	}
}

// Run starts the background reload triggers and blocks until ctx is done.
func (a *App) Run(ctx context.Context) {
	if a.Config.LoadOnStart {
		go a.reloadInBackground(ctx, "startup")
	}
	if a.Watcher != nil {
		go func() {
			if err := a.Watcher.Run(ctx); err != nil {
				a.Logger.Error("data_dir_watch_failed", "error", err)
			}
		}()
	}
	if a.Notifier != nil {
		go func() {
			err := a.Notifier.SubscribeDocumentsUpdated(ctx, func(ctx context.Context) error {
				return a.Reload(ctx)
			})
			if err != nil {
				a.Logger.Error("documents_updated_subscribe_failed", "error", err)
			}
		}()
	}
	<-ctx.Done()
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		if a.closeFns[i] != nil {
			a.closeFns[i]()
		}
	}
	a.closeFns = nil
}

type countedSessions struct {
	*memory.SessionRepository[*usecase.ViewerSession]
	metrics *metrics.HTTPServerMetrics
}

func (s *countedSessions) Save(id string, session *usecase.ViewerSession) {
	s.SessionRepository.Save(id, session)
	s.metrics.SetSessionsActive(APIService, s.Len())
}

// SourceResilience maps the SOURCE_* settings onto the executor config.
func SourceResilience(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	out.MaxAttempts = cfg.SourceRetryMaxAttempts
	out.InitialBackoff = cfg.SourceRetryInitialBackoff
	out.MaxBackoff = cfg.SourceRetryMaxBackoff
	out.BreakerEnabled = cfg.SourceBreakerEnabled
	out.BreakerFailureRatio = cfg.SourceBreakerFailureRatio
	out.BreakerOpenTimeout = cfg.SourceBreakerOpenTimeout
	if cfg.SourceBreakerMinRequests > 0 {
		out.BreakerMinRequests = uint32(cfg.SourceBreakerMinRequests)
	}
	return out
}
