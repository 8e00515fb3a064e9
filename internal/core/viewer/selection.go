package viewer

import (
	"sort"
	"strings"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

const DefaultSelectionSize = 4

// Selection is the ordered set of selected model names. The slice gives the
// display order, the set answers membership; both change together.
type Selection struct {
	order   []string
	members map[string]struct{}
}

func NewSelection(names ...string) *Selection {
	s := &Selection{members: make(map[string]struct{})}
	for _, name := range names {
		s.Add(name)
	}
	return s
}

func (s *Selection) Has(name string) bool {
	_, ok := s.members[name]
	return ok
}

// Add appends name unless it is already selected.
func (s *Selection) Add(name string) bool {
	if s.Has(name) {
		return false
	}
	s.members[name] = struct{}{}
	s.order = append(s.order, name)
	return true
}

// Toggle deselects a selected name, otherwise selects it at the end.
// It reports whether the name is selected afterwards.
func (s *Selection) Toggle(name string) bool {
	if s.Has(name) {
		s.Remove(name)
		return false
	}
	s.Add(name)
	return true
}

func (s *Selection) Remove(name string) {
	if !s.Has(name) {
		return
	}
	delete(s.members, name)
	for i, current := range s.order {
		if current == name {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Selection) Names() []string {
	return append([]string(nil), s.order...)
}

func (s *Selection) Len() int {
	return len(s.order)
}

// SortedByScore orders names by descending root score. Ties keep the given order.
func SortedByScore(names []string, scoreOf func(name string) float64) []string {
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return scoreOf(sorted[i]) > scoreOf(sorted[j])
	})
	return sorted
}

// DefaultSelection picks the n best scored models of the store.
func DefaultSelection(store *Store, n int) []string {
	if n <= 0 {
		n = DefaultSelectionSize
	}
	sorted := SortedByScore(store.Names(), storeScore(store))
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// FilterModels keeps the names containing term, case-insensitively.
func FilterModels(names []string, term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return append([]string(nil), names...)
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), term) {
			out = append(out, name)
		}
	}
	return out
}

// PickerItems lists the store sorted by score, filtered by term, with the
// selection state of every visible item.
func PickerItems(store *Store, selection *Selection, term string) []domain.PickerItem {
	scoreOf := storeScore(store)
	visible := FilterModels(SortedByScore(store.Names(), scoreOf), term)
	items := make([]domain.PickerItem, 0, len(visible))
	for _, name := range visible {
		items = append(items, domain.PickerItem{
			Name:     name,
			Score:    scoreOf(name),
			Selected: selection != nil && selection.Has(name),
		})
	}
	return items
}

func storeScore(store *Store) func(string) float64 {
	return func(name string) float64 {
		doc, ok := store.Get(name)
		if !ok {
			return 0
		}
		return doc.Score()
	}
}
