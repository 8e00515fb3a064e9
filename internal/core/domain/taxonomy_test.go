package domain

import (
	"reflect"
	"testing"
)

func sampleTaxonomy() *CategoryNode {
	return &CategoryNode{
		Name: "All",
		Key:  "root",
		Children: []*CategoryNode{
			{Name: "Coding", Key: "Code", Children: []*CategoryNode{
				{Name: "Python", Key: "Python"},
			}},
			{Name: "Reasoning", Key: "Reasoning"},
		},
	}
}

// The root key is never part of a path; a node's own key always is.
func TestCategoryPathsExcludeRootKey(t *testing.T) {
	entries := FlattenTaxonomy(sampleTaxonomy())

	var paths []string
	for _, entry := range entries {
		paths = append(paths, entry.Path)
	}
	want := []string{"", "Code", "Code.Python", "Reasoning"}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("paths = %q, want %q", paths, want)
	}
	if entries[2].Depth != 2 || !entries[2].Leaf {
		t.Fatalf("unexpected entry %+v", entries[2])
	}
}

func TestCategoryLabels(t *testing.T) {
	labels := CategoryLabels(sampleTaxonomy())
	if labels["Code.Python"] != "Python" || labels[""] != "All" {
		t.Fatalf("unexpected labels %v", labels)
	}
}
