package domain

import "strings"

type CategoryNode struct {
	Name     string          `json:"name" yaml:"name"`
	Key      string          `json:"key" yaml:"key"`
	Children []*CategoryNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// CategoryPath joins the keys from the first level below the taxonomy root
// down to and including the node. The root itself maps to the empty path,
// which resolves to the document root.
func CategoryPath(ancestors []string, key string) string {
	return strings.Join(append(append([]string(nil), ancestors...), key), ".")
}

// CategoryPathEntry is a taxonomy node flattened with its path.
type CategoryPathEntry struct {
	Name  string `json:"name"`
	Key   string `json:"key"`
	Path  string `json:"path"`
	Depth int    `json:"depth"`
	Leaf  bool   `json:"leaf"`
}

// FlattenTaxonomy walks the taxonomy depth first, root first.
func FlattenTaxonomy(root *CategoryNode) []CategoryPathEntry {
	if root == nil {
		return nil
	}
	out := []CategoryPathEntry{{
		Name:  root.Name,
		Key:   root.Key,
		Path:  "",
		Depth: 0,
		Leaf:  len(root.Children) == 0,
	}}
	var walk func(node *CategoryNode, ancestors []string, depth int)
	walk = func(node *CategoryNode, ancestors []string, depth int) {
		for _, child := range node.Children {
			if child == nil {
				continue
			}
			path := CategoryPath(ancestors, child.Key)
			out = append(out, CategoryPathEntry{
				Name:  child.Name,
				Key:   child.Key,
				Path:  path,
				Depth: depth,
				Leaf:  len(child.Children) == 0,
			})
			walk(child, append(append([]string(nil), ancestors...), child.Key), depth+1)
		}
	}
	walk(root, nil, 1)
	return out
}

// CategoryLabels maps every taxonomy path to its display name.
func CategoryLabels(root *CategoryNode) map[string]string {
	labels := make(map[string]string)
	for _, entry := range FlattenTaxonomy(root) {
		labels[entry.Path] = entry.Name
	}
	return labels
}
