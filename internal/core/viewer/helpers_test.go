package viewer

import (
	"testing"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

func mustDoc(t *testing.T, raw string) *domain.Node {
	t.Helper()
	node, err := domain.ParseDocument([]byte(raw))
	if err != nil {
		t.Fatalf("ParseDocument(%s) error = %v", raw, err)
	}
	return node
}

func storeOf(t *testing.T, pairs ...string) *Store {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatalf("storeOf needs name/document pairs")
	}
	entries := make([]domain.ModelEntry, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		entries = append(entries, domain.ModelEntry{Name: pairs[i], Document: mustDoc(t, pairs[i+1])})
	}
	store := NewStore()
	store.Merge(entries)
	return store
}
