package viewer

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

const UnrankedDisplay = "N/A"

// ComputeRankings builds one column per selected path. Within a column models
// are ordered by ascending ranking; models without a ranking at that path sort
// last, and ties keep the order of modelNames.
func ComputeRankings(paths []string, store *Store, modelNames []string) []domain.RankingColumn {
	columns := make([]domain.RankingColumn, 0, len(paths))
	for _, path := range paths {
		columns = append(columns, rankColumn(path, store, modelNames))
	}
	return columns
}

type rankedModel struct {
	model   string
	ranking float64
}

func rankColumn(path string, store *Store, modelNames []string) domain.RankingColumn {
	ranked := make([]rankedModel, 0, len(modelNames))
	for _, model := range modelNames {
		ranked = append(ranked, rankedModel{model: model, ranking: effectiveRanking(store, model, path)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ranking < ranked[j].ranking
	})

	entries := make([]domain.RankingEntry, 0, len(ranked))
	for i, item := range ranked {
		entry := domain.RankingEntry{
			Position: i + 1,
			Model:    item.model,
			Display:  UnrankedDisplay,
		}
		if !math.IsInf(item.ranking, 1) {
			value := item.ranking
			entry.Ranking = &value
			entry.Display = strconv.FormatFloat(value, 'f', -1, 64)
		}
		entries = append(entries, entry)
	}
	return domain.RankingColumn{
		Path:    path,
		Title:   ColumnTitle(path),
		Entries: entries,
	}
}

func effectiveRanking(store *Store, model, path string) float64 {
	doc, ok := store.Get(model)
	if !ok {
		return math.Inf(1)
	}
	node, ok := doc.Resolve(path)
	if !ok {
		return math.Inf(1)
	}
	ranking, ok := node.Ranking()
	if !ok {
		return math.Inf(1)
	}
	return ranking
}

// ColumnTitle is the last segment of a path; the root path is "overall".
func ColumnTitle(path string) string {
	if path == "" {
		return "overall"
	}
	return path[strings.LastIndex(path, ".")+1:]
}

// LabelColumns copies taxonomy display names onto columns whose path is known.
func LabelColumns(columns []domain.RankingColumn, labels map[string]string) []domain.RankingColumn {
	for i := range columns {
		if label, ok := labels[columns[i].Path]; ok {
			columns[i].Label = label
		}
	}
	return columns
}
