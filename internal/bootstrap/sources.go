package bootstrap

import (
	"context"
	"fmt"

	"github.com/kirillkom/eval-tree-viewer/internal/config"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/loader"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/loader/fsdir"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/loader/github"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/loader/httpindex"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/loader/s3"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/resilience"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/storage/localfs"
)

const (
	SourceFS       = "fs"
	SourceHTTP     = "http"
	SourceGitHub   = "github"
	SourceS3       = "s3"
	SourcePostgres = "postgres"
)

// NewSource builds the document source named by DOCUMENT_SOURCE. The returned
// close function is never nil.
func NewSource(ctx context.Context, cfg config.Config, executor *resilience.Executor) (loader.Source, func(), error) {
	noop := func() {}
	switch cfg.DocumentSource {
	case SourceFS:
		storage, err := localfs.New(cfg.DataDir)
		if err != nil {
			return nil, noop, fmt.Errorf("open data dir: %w", err)
		}
		return fsdir.New(storage), noop, nil
	case SourceHTTP:
		source, err := httpindex.New(cfg.DataURL, cfg.SourceRequestTimeout, executor)
		if err != nil {
			return nil, noop, err
		}
		return source, noop, nil
	case SourceGitHub:
		source, err := github.New(github.Config{
			APIBase:           cfg.GitHubAPIBase,
			Owner:             cfg.GitHubOwner,
			Repo:              cfg.GitHubRepo,
			Path:              cfg.GitHubPath,
			Ref:               cfg.GitHubRef,
			RequestsPerSecond: cfg.GitHubRPS,
			Burst:             cfg.GitHubBurst,
			CacheSize:         cfg.GitHubCacheSize,
			CacheTTL:          cfg.GitHubCacheTTL,
			Timeout:           cfg.SourceRequestTimeout,
		}, executor)
		if err != nil {
			return nil, noop, err
		}
		return source, noop, nil
	case SourceS3:
		source, err := s3.New(s3.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			UseSSL:    cfg.S3UseSSL,
		}, executor)
		if err != nil {
			return nil, noop, err
		}
		return source, noop, nil
	case SourcePostgres:
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewDocumentRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, func() { _ = db.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown document source %q", cfg.DocumentSource)
	}
}
