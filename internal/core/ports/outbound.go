package ports

import (
	"context"
	"io"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

// DocumentLoader resolves the data source into named model documents.
type DocumentLoader interface {
	Load(ctx context.Context, credential string) ([]domain.ModelEntry, error)
}

// TaxonomyLoader resolves the static category taxonomy.
type TaxonomyLoader interface {
	Load(ctx context.Context) (*domain.CategoryNode, error)
}

// CredentialStore persists the optional bearer credential between runs.
type CredentialStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, credential string) error
	Clear(ctx context.Context) error
}

// SessionStore keeps viewer sessions alive between requests.
type SessionStore[S any] interface {
	Get(id string) (S, bool)
	Save(id string, session S)
	Delete(id string)
	Each(fn func(id string, session S))
}

// EventPublisher fans out load lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// UpdateNotifier carries "documents updated" notifications between processes.
type UpdateNotifier interface {
	PublishDocumentsUpdated(ctx context.Context, models int) error
	SubscribeDocumentsUpdated(ctx context.Context, handler func(context.Context) error) error
}

// LeaderboardExporter renders a leaderboard into a binary format.
type LeaderboardExporter interface {
	ContentType() string
	Export(w io.Writer, board domain.Leaderboard) error
}

// DocumentWriter receives processed model documents keyed by file name.
type DocumentWriter interface {
	Save(ctx context.Context, key string, data io.Reader) error
}

// ObjectStorage stores raw evaluation inputs and processed documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, suffix string) ([]string, error)
}
