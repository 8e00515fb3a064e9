package viewer

import (
	"fmt"
	"math"
	"sort"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

// BuildLeaderboard tabulates the overall score and every first-level category
// score of each model. Each numeric cell carries its rank within its column.
func BuildLeaderboard(entries []domain.ModelEntry) domain.Leaderboard {
	columnSet := make(map[string]struct{})
	for _, entry := range entries {
		for _, key := range entry.Document.ChildKeys() {
			columnSet[key] = struct{}{}
		}
	}
	columns := make([]string, 0, len(columnSet))
	for key := range columnSet {
		columns = append(columns, key)
	}
	sort.Strings(columns)

	rows := make([]domain.LeaderboardRow, len(entries))
	overall := make([]*float64, len(entries))
	for i, entry := range entries {
		overall[i] = numberField(entry.Document)
		rows[i] = domain.LeaderboardRow{
			Model:   entry.Name,
			Columns: make(map[string]domain.LeaderboardCell, len(columns)),
		}
	}

	overallRanks := rankDescending(overall)
	for i := range rows {
		rows[i].Overall = leaderboardCell(overall[i], overallRanks[i])
	}
	for _, column := range columns {
		values := make([]*float64, len(entries))
		for i, entry := range entries {
			value, ok := entry.Document.Get(column)
			if !ok {
				continue
			}
			if child, ok := value.(*domain.Node); ok {
				values[i] = numberField(child)
			}
		}
		ranks := rankDescending(values)
		for i := range rows {
			rows[i].Columns[column] = leaderboardCell(values[i], ranks[i])
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return sortValue(rows[i].Overall) > sortValue(rows[j].Overall)
	})
	return domain.Leaderboard{Columns: columns, Rows: rows}
}

func numberField(node *domain.Node) *float64 {
	score, ok := node.Number(domain.FieldScore)
	if !ok {
		return nil
	}
	return &score
}

// rankDescending ranks the present values, best first. Absent values get rank 0.
func rankDescending(values []*float64) []int {
	indexes := make([]int, 0, len(values))
	for i, value := range values {
		if value != nil {
			indexes = append(indexes, i)
		}
	}
	sort.SliceStable(indexes, func(a, b int) bool {
		return *values[indexes[a]] > *values[indexes[b]]
	})
	ranks := make([]int, len(values))
	for rank, index := range indexes {
		ranks[index] = rank + 1
	}
	return ranks
}

func leaderboardCell(value *float64, rank int) domain.LeaderboardCell {
	if value == nil {
		return domain.LeaderboardCell{Display: UnrankedDisplay}
	}
	return domain.LeaderboardCell{
		Value:   value,
		Rank:    rank,
		Display: fmt.Sprintf("%.2f(%d)", *value, rank),
	}
}

func sortValue(cell domain.LeaderboardCell) float64 {
	if cell.Value == nil {
		return math.Inf(-1)
	}
	return *cell.Value
}
