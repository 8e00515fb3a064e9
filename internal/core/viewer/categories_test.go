package viewer

import (
	"reflect"
	"testing"
)

func TestCategorySelectionKeepsInsertionOrder(t *testing.T) {
	categories := NewCategorySelection()
	categories.Toggle("b")
	categories.Toggle("a.x")
	categories.Toggle("")
	categories.Toggle("b")
	categories.Toggle("b")

	if got, want := categories.Paths(), []string{"a.x", "", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Paths() = %v, want %v", got, want)
	}
	categories.Set("a.x", true)
	if !categories.Has("a.x") || len(categories.Paths()) != 3 {
		t.Fatalf("expected Set(true) on a selected path to be a no-op")
	}
}
