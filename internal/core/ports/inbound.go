package ports

import (
	"context"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

// DocumentReloader is the inbound contract for (re)loading the document store.
type DocumentReloader interface {
	Reload(ctx context.Context, credential string) (domain.LoadState, error)
	Status() domain.LoadState
}

// ViewerSessions is the inbound contract for per-session viewer state.
type ViewerSessions interface {
	Create(ctx context.Context) (domain.SessionSnapshot, error)
	Snapshot(ctx context.Context, id, filter string) (domain.SessionSnapshot, error)
	ToggleModel(ctx context.Context, id, model string) error
	RemoveModel(ctx context.Context, id, model string) error
	ToggleNode(ctx context.Context, id, name string, current *bool) error
	ToggleCategory(ctx context.Context, id, path string) error
	Scroll(ctx context.Context, id, panel string, offset float64) ([]domain.PanelOffset, bool, error)
}

// Processor runs the scoring pipeline over raw evaluation records.
type Processor interface {
	ProcessAll(ctx context.Context) (domain.ProcessResult, error)
}

// RankingService is the inbound read model for rankings and reports.
type RankingService interface {
	Taxonomy(ctx context.Context) (*domain.CategoryNode, error)
	Categories(ctx context.Context) ([]domain.CategoryPathEntry, error)
	Rankings(ctx context.Context, paths []string) []domain.RankingColumn
	Leaderboard() domain.Leaderboard
	Weaknesses(model string, threshold float64) (domain.WeaknessReport, error)
}

// ModelCatalog is the inbound read model over the document store.
type ModelCatalog interface {
	Models(filter string) []domain.PickerItem
	Document(name string) (*domain.Node, error)
	Tree(name string) (domain.ModelTree, error)
}

// CredentialManager persists the optional bearer credential.
type CredentialManager interface {
	Set(ctx context.Context, credential string) (reloaded bool, err error)
	Clear(ctx context.Context) error
}
