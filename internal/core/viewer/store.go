package viewer

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

// Store is the in-memory document store. Names keep the order in which they
// were first loaded; a later load of the same name replaces the document in
// place.
type Store struct {
	mu   sync.RWMutex
	docs *orderedmap.OrderedMap[string, *domain.Node]
}

func NewStore() *Store {
	return &Store{docs: orderedmap.New[string, *domain.Node]()}
}

// Merge applies a load batch with last-write-wins per name and returns the
// number of entries written. Nothing is removed.
func (s *Store) Merge(entries []domain.ModelEntry) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	written := 0
	for _, entry := range entries {
		if entry.Name == "" || entry.Document == nil {
			continue
		}
		s.docs.Set(entry.Name, entry.Document)
		written++
	}
	return written
}

func (s *Store) Get(name string) (*domain.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs.Get(name)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs.Len()
}

func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, s.docs.Len())
	for pair := s.docs.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Snapshot returns a consistent copy of the store contents in natural order.
func (s *Store) Snapshot() []domain.ModelEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ModelEntry, 0, s.docs.Len())
	for pair := s.docs.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, domain.ModelEntry{Name: pair.Key, Document: pair.Value})
	}
	return out
}
