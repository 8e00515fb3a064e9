package viewer

import (
	"sort"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

// Weaknesses compares every ranked node of doc against the root ranking.
// Nodes ranked more than threshold places better than the root are strengths,
// more than threshold places worse are weaknesses.
func Weaknesses(model string, doc *domain.Node, threshold float64) domain.WeaknessReport {
	report := domain.WeaknessReport{
		Model:     model,
		Threshold: threshold,
		Stronger:  []domain.WeaknessEntry{},
		Weaker:    []domain.WeaknessEntry{},
	}
	root, ok := doc.Number(domain.FieldRanking)
	if !ok {
		return report
	}
	report.RootRanked = true
	report.RootRanking = root

	var walk func(node *domain.Node, path string)
	walk = func(node *domain.Node, path string) {
		if ranking, ok := node.Number(domain.FieldRanking); ok {
			diff := ranking - root
			entry := domain.WeaknessEntry{Path: path, Ranking: ranking, Difference: diff}
			switch {
			case diff < -threshold:
				report.Stronger = append(report.Stronger, entry)
			case diff > threshold:
				report.Weaker = append(report.Weaker, entry)
			}
		}
		for _, key := range node.Keys() {
			value, _ := node.Get(key)
			child, ok := value.(*domain.Node)
			if !ok {
				continue
			}
			walk(child, joinPath(path, key))
		}
	}
	walk(doc, "")

	byRanking := func(entries []domain.WeaknessEntry) {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Ranking < entries[j].Ranking })
	}
	byRanking(report.Stronger)
	byRanking(report.Weaker)
	return report
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
