package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
	"github.com/kirillkom/eval-tree-viewer/internal/core/ports"
	"github.com/kirillkom/eval-tree-viewer/internal/core/viewer"
)

type RankingUseCase struct {
	store    *viewer.Store
	taxonomy ports.TaxonomyLoader

	loads singleflight.Group

	mu      sync.Mutex
	root    *domain.CategoryNode
	labels  map[string]string
	lastErr error
}

func NewRankingUseCase(store *viewer.Store, taxonomy ports.TaxonomyLoader) *RankingUseCase {
	return &RankingUseCase{store: store, taxonomy: taxonomy}
}

// Taxonomy loads the category tree once. A failed load is remembered and
// returned until RetryTaxonomy is called, unless the caller's context ended
// first. Concurrent callers share one load.
func (uc *RankingUseCase) Taxonomy(ctx context.Context) (*domain.CategoryNode, error) {
	uc.mu.Lock()
	root, lastErr := uc.root, uc.lastErr
	uc.mu.Unlock()
	if root != nil {
		return root, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}

	value, err, _ := uc.loads.Do("taxonomy", func() (any, error) {
		root, err := uc.taxonomy.Load(ctx)
		if err == nil && root == nil {
			err = errors.New("empty taxonomy")
		}

		uc.mu.Lock()
		defer uc.mu.Unlock()
		if err != nil {
			wrapped := domain.WrapError(domain.ErrTaxonomyUnavailable, "load taxonomy", err)
			if ctx.Err() == nil {
				uc.lastErr = wrapped
			}
			return nil, wrapped
		}
		uc.root = root
		uc.labels = domain.CategoryLabels(root)
		return root, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*domain.CategoryNode), nil
}

// RetryTaxonomy forgets a failed taxonomy load so the next call tries again.
func (uc *RankingUseCase) RetryTaxonomy() {
	uc.mu.Lock()
	uc.lastErr = nil
	uc.mu.Unlock()
}

// Labels maps taxonomy paths to display names. The map is never modified
// after the taxonomy is loaded.
func (uc *RankingUseCase) Labels(ctx context.Context) (map[string]string, error) {
	if _, err := uc.Taxonomy(ctx); err != nil {
		return nil, err
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.labels, nil
}

func (uc *RankingUseCase) Categories(ctx context.Context) ([]domain.CategoryPathEntry, error) {
	root, err := uc.Taxonomy(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FlattenTaxonomy(root), nil
}

// ValidatePath accepts only paths of the loaded taxonomy.
func (uc *RankingUseCase) ValidatePath(ctx context.Context, path string) error {
	labels, err := uc.Labels(ctx)
	if err != nil {
		return err
	}
	if _, ok := labels[path]; !ok {
		return domain.WrapError(domain.ErrInvalidInput, "validate category path", fmt.Errorf("unknown category path %q", path))
	}
	return nil
}

// Rankings computes one column per path over every loaded model. Columns are
// labelled when the taxonomy is available and left bare otherwise.
func (uc *RankingUseCase) Rankings(ctx context.Context, paths []string) []domain.RankingColumn {
	labels, _ := uc.Labels(ctx)
	return uc.LabelledRankings(paths, labels)
}

// LabelledRankings computes the columns with labels the caller already holds;
// a nil map leaves them bare.
func (uc *RankingUseCase) LabelledRankings(paths []string, labels map[string]string) []domain.RankingColumn {
	return viewer.LabelColumns(viewer.ComputeRankings(paths, uc.store, uc.store.Names()), labels)
}

func (uc *RankingUseCase) Leaderboard() domain.Leaderboard {
	return viewer.BuildLeaderboard(uc.store.Snapshot())
}

func (uc *RankingUseCase) Weaknesses(model string, threshold float64) (domain.WeaknessReport, error) {
	if threshold < 0 {
		return domain.WeaknessReport{}, domain.WrapError(domain.ErrInvalidInput, "weakness report", errors.New("threshold must not be negative"))
	}
	doc, ok := uc.store.Get(model)
	if !ok {
		return domain.WeaknessReport{}, domain.WrapError(domain.ErrModelNotFound, "weakness report", fmt.Errorf("model %q", model))
	}
	return viewer.Weaknesses(model, doc, threshold), nil
}
