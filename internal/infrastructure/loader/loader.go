package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

const documentSuffix = ".json"

var tracer = otel.Tracer("github.com/kirillkom/eval-tree-viewer/internal/infrastructure/loader")

// Ref points at one listed document.
type Ref struct {
	Name     string
	Location string
}

// Source lists and fetches the raw documents of one data source.
type Source interface {
	Kind() string
	List(ctx context.Context, credential string) ([]Ref, error)
	Fetch(ctx context.Context, credential string, ref Ref) ([]byte, error)
}

type Options struct {
	Concurrency int
	Logger      *slog.Logger
	// OnFetchError is called for every document dropped from a batch.
	OnFetchError func(ref Ref, err error)
}

// Loader turns a Source into model entries: one listing, then a bounded
// concurrent fetch of every listed document.
type Loader struct {
	source       Source
	concurrency  int
	logger       *slog.Logger
	onFetchError func(Ref, error)
}

func New(source Source, options Options) *Loader {
	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		source:       source,
		concurrency:  concurrency,
		logger:       logger,
		onFetchError: options.OnFetchError,
	}
}

// Load fails only when the listing fails. A document that cannot be fetched
// or parsed is logged and left out; the others keep listing order.
func (l *Loader) Load(ctx context.Context, credential string) ([]domain.ModelEntry, error) {
	ctx, span := tracer.Start(ctx, "documents.load")
	defer span.End()
	span.SetAttributes(attribute.String("source.kind", l.source.Kind()))

	refs, err := l.source.List(ctx, credential)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list documents")
		return nil, domain.WrapError(domain.ErrLoadFailed, "list documents", err)
	}
	span.SetAttributes(attribute.Int("documents.listed", len(refs)))

	docs := make([]*domain.Node, len(refs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(l.concurrency)
	for i, ref := range refs {
		group.Go(func() error {
			doc, err := l.fetch(groupCtx, credential, ref)
			if err != nil {
				l.dropped(ref, err)
				return nil
			}
			docs[i] = doc
			return nil
		})
	}
	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrLoadFailed, "fetch documents", err)
	}

	entries := make([]domain.ModelEntry, 0, len(refs))
	for i, ref := range refs {
		if docs[i] == nil {
			continue
		}
		entries = append(entries, domain.ModelEntry{Name: ref.Name, Document: docs[i]})
	}
	span.SetAttributes(attribute.Int("documents.loaded", len(entries)))
	return entries, nil
}

func (l *Loader) fetch(ctx context.Context, credential string, ref Ref) (*domain.Node, error) {
	ctx, span := tracer.Start(ctx, "documents.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("document.name", ref.Name))

	raw, err := l.source.Fetch(ctx, credential, ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch")
		return nil, err
	}
	doc, err := domain.ParseDocument(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse")
		return nil, fmt.Errorf("parse %s: %w", ref.Name, err)
	}
	return doc, nil
}

func (l *Loader) dropped(ref Ref, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	l.logger.Warn("document_fetch_failed",
		"source", l.source.Kind(),
		"document", ref.Name,
		"location", ref.Location,
		"error", err,
	)
	if l.onFetchError != nil {
		l.onFetchError(ref, err)
	}
}

// ModelName strips the .json extension, case-insensitively. It reports false
// for names without it.
func ModelName(file string) (string, bool) {
	if len(file) <= len(documentSuffix) || !strings.EqualFold(file[len(file)-len(documentSuffix):], documentSuffix) {
		return "", false
	}
	return file[:len(file)-len(documentSuffix)], true
}
