package fsdir

import (
	"context"
	"fmt"
	"io"

	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/loader"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/storage/localfs"
)

// Source reads the *.json documents of a local directory. The credential is
// not used.
type Source struct {
	storage *localfs.Storage
}

func New(storage *localfs.Storage) *Source {
	return &Source{storage: storage}
}

func (s *Source) Kind() string { return "localfs" }

func (s *Source) List(ctx context.Context, _ string) ([]loader.Ref, error) {
	keys, err := s.storage.List(ctx, "")
	if err != nil {
		return nil, err
	}
	refs := make([]loader.Ref, 0, len(keys))
	for _, key := range keys {
		name, ok := loader.ModelName(key)
		if !ok {
			continue
		}
		refs = append(refs, loader.Ref{Name: name, Location: key})
	}
	return refs, nil
}

func (s *Source) Fetch(ctx context.Context, _ string, ref loader.Ref) ([]byte, error) {
	rc, err := s.storage.Open(ctx, ref.Location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref.Location, err)
	}
	return raw, nil
}
