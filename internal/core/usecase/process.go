package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
	"github.com/kirillkom/eval-tree-viewer/internal/core/ports"
	"github.com/kirillkom/eval-tree-viewer/internal/core/scoring"
)

const (
	recordsSuffix  = ".jsonl"
	documentSuffix = ".json"
)

type ProcessUseCase struct {
	inputs      ports.ObjectStorage
	outputs     ports.DocumentWriter
	notifier    ports.UpdateNotifier
	templateKey string
	concurrency int
}

func NewProcessUseCase(
	inputs ports.ObjectStorage,
	outputs ports.DocumentWriter,
	notifier ports.UpdateNotifier,
	templateKey string,
	concurrency int,
) *ProcessUseCase {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &ProcessUseCase{
		inputs:      inputs,
		outputs:     outputs,
		notifier:    notifier,
		templateKey: templateKey,
		concurrency: concurrency,
	}
}

// ProcessAll scores every model found in the input storage, ranks the models
// against each other and writes one processed document per model. A model
// whose records cannot be read is reported and left out of the ranking.
func (uc *ProcessUseCase) ProcessAll(ctx context.Context) (domain.ProcessResult, error) {
	template, err := uc.loadTemplate(ctx)
	if err != nil {
		return domain.ProcessResult{}, err
	}

	keys, err := uc.inputs.List(ctx, recordsSuffix)
	if err != nil {
		return domain.ProcessResult{}, fmt.Errorf("list evaluation records: %w", err)
	}
	if len(keys) == 0 {
		return domain.ProcessResult{}, domain.WrapError(domain.ErrInvalidInput, "process records", errors.New("no evaluation record files found"))
	}

	scored, failed := uc.scoreAll(ctx, template, keys)
	if err := ctx.Err(); err != nil {
		return domain.ProcessResult{}, err
	}

	result := domain.ProcessResult{Models: []string{}, Failed: failed}
	for _, entry := range scoring.Rank(scored) {
		if err := uc.writeDocument(ctx, entry); err != nil {
			return result, err
		}
		result.Models = append(result.Models, entry.Name)
	}

	if uc.notifier != nil && len(result.Models) > 0 {
		if err := uc.notifier.PublishDocumentsUpdated(ctx, len(result.Models)); err != nil {
			return result, fmt.Errorf("publish documents updated: %w", err)
		}
	}
	return result, nil
}

func (uc *ProcessUseCase) loadTemplate(ctx context.Context) (*domain.Node, error) {
	raw, err := uc.read(ctx, uc.templateKey)
	if err != nil {
		return nil, fmt.Errorf("read category template: %w", err)
	}
	template, err := domain.ParseDocument(raw)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse category template", err)
	}
	return template, nil
}

func (uc *ProcessUseCase) scoreAll(ctx context.Context, template *domain.Node, keys []string) ([]domain.ModelEntry, map[string]string) {
	results := make([]*domain.Node, len(keys))
	var (
		mu     sync.Mutex
		failed map[string]string
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(uc.concurrency)
	for i, key := range keys {
		group.Go(func() error {
			doc, err := uc.scoreOne(groupCtx, template, key)
			if err != nil {
				mu.Lock()
				if failed == nil {
					failed = make(map[string]string)
				}
				failed[modelName(key)] = err.Error()
				mu.Unlock()
				return nil
			}
			results[i] = doc
			return nil
		})
	}
	_ = group.Wait()

	entries := make([]domain.ModelEntry, 0, len(keys))
	for i, key := range keys {
		if results[i] == nil {
			continue
		}
		entries = append(entries, domain.ModelEntry{Name: modelName(key), Document: results[i]})
	}
	return entries, failed
}

func (uc *ProcessUseCase) scoreOne(ctx context.Context, template *domain.Node, key string) (*domain.Node, error) {
	raw, err := uc.read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	records, err := scoring.ParseRecords(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	return scoring.Score(template, records), nil
}

func (uc *ProcessUseCase) writeDocument(ctx context.Context, entry domain.ModelEntry) error {
	raw, err := json.MarshalIndent(entry.Document, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", entry.Name, err)
	}
	if err := uc.outputs.Save(ctx, entry.Name+documentSuffix, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("save processed document %s: %w", entry.Name, err)
	}
	return nil
}

func (uc *ProcessUseCase) read(ctx context.Context, key string) ([]byte, error) {
	rc, err := uc.inputs.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func modelName(key string) string {
	return strings.TrimSuffix(key, recordsSuffix)
}
