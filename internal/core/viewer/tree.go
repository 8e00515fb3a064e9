package viewer

import (
	"fmt"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

// DepthStyles is the number of cosmetic depth classes the presenter cycles through.
const DepthStyles = 6

// RenderTree builds the view model of node and all its descendants. Only the
// root starts expanded; explicit toggles in expand override that default.
func RenderTree(name string, node *domain.Node, depth int, isRoot bool, expand *ExpandState) domain.VisualNode {
	size := node.DataSize()
	score := node.Score()
	keys := node.ChildKeys()

	out := domain.VisualNode{
		Name:       name,
		Depth:      depth,
		StyleClass: depth % DepthStyles,
		IsRoot:     isRoot,
		IsLeaf:     len(keys) == 0,
		Size:       size,
		Score:      score,
		SizeLabel:  fmt.Sprintf("Size: %d", size),
		ScoreLabel: fmt.Sprintf("Score: %.2f", score),
	}
	if out.IsLeaf {
		return out
	}

	out.Expandable = true
	out.Expanded = expand.Expanded(name, isRoot)
	out.Children = make([]domain.VisualNode, 0, len(keys))
	for _, key := range keys {
		out.Children = append(out.Children, RenderTree(key, node.Child(key), depth+1, false, expand))
	}
	return out
}

// RenderTrees renders one tree per selected model in selection order.
func RenderTrees(selection *Selection, store *Store, expand *ExpandState) []domain.ModelTree {
	names := selection.Names()
	trees := make([]domain.ModelTree, 0, len(names))
	for _, name := range names {
		doc, ok := store.Get(name)
		if !ok {
			doc = domain.NewNode()
		}
		trees = append(trees, domain.ModelTree{
			Model: name,
			Root:  RenderTree(name, doc, 0, true, expand),
		})
	}
	return trees
}

// FindExpandable returns the first rendered expandable instance named name,
// depth first across the trees in order.
func FindExpandable(trees []domain.ModelTree, name string) (domain.VisualNode, bool) {
	var walk func(node domain.VisualNode) (domain.VisualNode, bool)
	walk = func(node domain.VisualNode) (domain.VisualNode, bool) {
		if node.Name == name && node.Expandable {
			return node, true
		}
		for _, child := range node.Children {
			if found, ok := walk(child); ok {
				return found, true
			}
		}
		return domain.VisualNode{}, false
	}
	for _, tree := range trees {
		if found, ok := walk(tree.Root); ok {
			return found, true
		}
	}
	return domain.VisualNode{}, false
}
