package viewer

import (
	"reflect"
	"testing"
)

func TestDefaultSelectionStableOnTies(t *testing.T) {
	store := storeOf(t,
		"A", `{"score":0.9}`,
		"B", `{"score":0.95}`,
		"C", `{"score":0.7}`,
		"D", `{"score":0.95}`,
		"E", `{"score":0.5}`,
	)

	if got, want := DefaultSelection(store, DefaultSelectionSize), []string{"B", "D", "A", "C"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("DefaultSelection() = %v, want %v", got, want)
	}
}

func TestDefaultSelectionFewerModels(t *testing.T) {
	store := storeOf(t, "x", `{"score":"n/a"}`, "y", `{"score":0.1}`)

	if got, want := DefaultSelection(store, 4), []string{"y", "x"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("DefaultSelection() = %v, want %v", got, want)
	}
}

func TestSelectionToggleTwiceRestoresMembership(t *testing.T) {
	selection := NewSelection("a", "b", "c")

	if selected := selection.Toggle("a"); selected {
		t.Fatalf("expected a to be deselected")
	}
	if selection.Has("a") {
		t.Fatalf("expected a to be removed from membership")
	}
	if selected := selection.Toggle("a"); !selected {
		t.Fatalf("expected a to be selected again")
	}
	if got, want := selection.Names(), []string{"b", "c", "a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
}

func TestSelectionToggleAbsentTwiceIsNoop(t *testing.T) {
	selection := NewSelection("a", "b")

	selection.Toggle("z")
	selection.Toggle("z")
	if got, want := selection.Names(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
}

func TestSelectionRemoveIsUnconditional(t *testing.T) {
	selection := NewSelection("a", "b")

	selection.Remove("a")
	selection.Remove("missing")
	if selection.Has("a") || selection.Len() != 1 {
		t.Fatalf("expected only b left, got %v", selection.Names())
	}
	if selection.Add("b") {
		t.Fatalf("expected Add of a selected name to report false")
	}
}

func TestPickerItemsFilterDoesNotTouchSelection(t *testing.T) {
	store := storeOf(t,
		"gpt-small", `{"score":0.4}`,
		"Llama", `{"score":0.8}`,
		"gpt-large", `{"score":0.6}`,
	)
	selection := NewSelection("gpt-small")

	items := PickerItems(store, selection, " GPT ")
	if len(items) != 2 {
		t.Fatalf("expected 2 filtered items, got %+v", items)
	}
	if items[0].Name != "gpt-large" || items[1].Name != "gpt-small" {
		t.Fatalf("expected score order, got %+v", items)
	}
	if items[0].Selected || !items[1].Selected {
		t.Fatalf("unexpected selection flags: %+v", items)
	}
	if got := selection.Names(); !reflect.DeepEqual(got, []string{"gpt-small"}) {
		t.Fatalf("filter mutated selection: %v", got)
	}
	if all := PickerItems(store, selection, ""); len(all) != 3 || all[0].Name != "Llama" {
		t.Fatalf("expected full list led by Llama, got %+v", all)
	}
}
