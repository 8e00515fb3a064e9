package scoring

import (
	"sort"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

type pathScore struct {
	node  *domain.Node
	score float64
}

// Rank assigns, for every node path, the 1-based position of each model when
// all models are ordered by descending score at that path. Ties keep the
// order of models. Each returned document has its keys arranged as data_size,
// score, ranking, ques_ids followed by the remaining keys in sorted order.
func Rank(models []domain.ModelEntry) []domain.ModelEntry {
	paths := make(map[string][]pathScore)
	var order []string
	for _, model := range models {
		collectScores(model.Document, "", true, func(path string, node *domain.Node, score float64) {
			if _, ok := paths[path]; !ok {
				order = append(order, path)
			}
			paths[path] = append(paths[path], pathScore{node: node, score: score})
		})
	}

	for _, path := range order {
		scored := paths[path]
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].score > scored[j].score
		})
		for rank, item := range scored {
			item.node.Set(domain.FieldRanking, float64(rank+1))
		}
	}

	out := make([]domain.ModelEntry, 0, len(models))
	for _, model := range models {
		out = append(out, domain.ModelEntry{Name: model.Name, Document: Arrange(model.Document)})
	}
	return out
}

func collectScores(node *domain.Node, path string, isRoot bool, visit func(string, *domain.Node, float64)) {
	if isRoot {
		score, _ := node.Number(domain.FieldScore)
		visit(path, node, score)
	}
	for _, key := range node.Keys() {
		if key == domain.FieldDataSize || key == domain.FieldScore || key == domain.FieldQuesIDs {
			continue
		}
		value, _ := node.Get(key)
		child, ok := value.(*domain.Node)
		if !ok {
			continue
		}
		childPath := key
		if path != "" {
			childPath = path + "." + key
		}
		if score, ok := child.Number(domain.FieldScore); ok {
			visit(childPath, child, score)
		}
		collectScores(child, childPath, false, visit)
	}
}

var leadingFields = []string{domain.FieldDataSize, domain.FieldScore, domain.FieldRanking, domain.FieldQuesIDs}

// Arrange returns a copy of node whose keys, at every level, follow the
// processed document layout.
func Arrange(node *domain.Node) *domain.Node {
	out := domain.NewNode()
	for _, key := range leadingFields {
		if value, ok := node.Get(key); ok {
			out.Set(key, value)
		}
	}
	rest := make([]string, 0, node.Len())
	for _, key := range node.Keys() {
		if !isLeadingField(key) {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		value, _ := node.Get(key)
		if child, ok := value.(*domain.Node); ok {
			value = Arrange(child)
		}
		out.Set(key, value)
	}
	return out
}

func isLeadingField(key string) bool {
	for _, field := range leadingFields {
		if key == field {
			return true
		}
	}
	return false
}
