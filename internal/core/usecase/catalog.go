package usecase

import (
	"fmt"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
	"github.com/kirillkom/eval-tree-viewer/internal/core/viewer"
)

type CatalogUseCase struct {
	store *viewer.Store
}

func NewCatalogUseCase(store *viewer.Store) *CatalogUseCase {
	return &CatalogUseCase{store: store}
}

func (uc *CatalogUseCase) Models(filter string) []domain.PickerItem {
	return viewer.PickerItems(uc.store, nil, filter)
}

func (uc *CatalogUseCase) Document(name string) (*domain.Node, error) {
	doc, ok := uc.store.Get(name)
	if !ok {
		return nil, domain.WrapError(domain.ErrModelNotFound, "get document", fmt.Errorf("model %q", name))
	}
	return doc, nil
}

// Tree renders the document with nothing toggled.
func (uc *CatalogUseCase) Tree(name string) (domain.ModelTree, error) {
	doc, err := uc.Document(name)
	if err != nil {
		return domain.ModelTree{}, err
	}
	return domain.ModelTree{Model: name, Root: viewer.RenderTree(name, doc, 0, true, viewer.NewExpandState())}, nil
}
