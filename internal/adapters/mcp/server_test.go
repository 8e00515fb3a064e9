package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

type loadsFake struct {
	err error
}

func (f loadsFake) Reload(context.Context, string) (domain.LoadState, error) {
	return domain.LoadState{Status: domain.LoadReady, Models: 2}, f.err
}

func (f loadsFake) Status() domain.LoadState { return domain.LoadState{Status: domain.LoadReady, Models: 2} }

type catalogFake struct{}

func (catalogFake) Models(filter string) []domain.PickerItem {
	items := []domain.PickerItem{{Name: "alpha", Score: 0.9}, {Name: "beta", Score: 0.5}}
	out := items[:0]
	for _, item := range items {
		if strings.Contains(item.Name, filter) {
			out = append(out, item)
		}
	}
	return out
}

func (catalogFake) Document(string) (*domain.Node, error) { return domain.NewNode(), nil }

func (catalogFake) Tree(name string) (domain.ModelTree, error) {
	if name != "alpha" {
		return domain.ModelTree{}, domain.WrapError(domain.ErrModelNotFound, "tree", errors.New(name))
	}
	return domain.ModelTree{Model: name, Root: domain.VisualNode{Name: name, IsRoot: true}}, nil
}

type rankingsFake struct {
	paths []string
}

func (f *rankingsFake) Taxonomy(context.Context) (*domain.CategoryNode, error) {
	return &domain.CategoryNode{Name: "All", Key: "all"}, nil
}

func (f *rankingsFake) Categories(context.Context) ([]domain.CategoryPathEntry, error) {
	return []domain.CategoryPathEntry{{Name: "All", Key: "all"}}, nil
}

func (f *rankingsFake) Rankings(_ context.Context, paths []string) []domain.RankingColumn {
	f.paths = paths
	columns := make([]domain.RankingColumn, 0, len(paths))
	for _, path := range paths {
		columns = append(columns, domain.RankingColumn{Path: path})
	}
	return columns
}

func (f *rankingsFake) Leaderboard() domain.Leaderboard { return domain.Leaderboard{} }

func (f *rankingsFake) Weaknesses(model string, threshold float64) (domain.WeaknessReport, error) {
	return domain.WeaknessReport{Model: model, Threshold: threshold}, nil
}

func newTestTools() (*Tools, *rankingsFake) {
	rankings := &rankingsFake{}
	return NewTools(Deps{Loads: loadsFake{}, Catalog: catalogFake{}, Rankings: rankings}), rankings
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatalf("expected tool content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestListModelsFiltersByName(t *testing.T) {
	tools, _ := newTestTools()

	result, err := tools.listModels(context.Background(), callRequest(map[string]any{"filter": "bet"}))
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	var items []domain.PickerItem
	if err := json.Unmarshal([]byte(resultText(t, result)), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Name != "beta" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestModelTreeUnknownModelIsToolError(t *testing.T) {
	tools, _ := newTestTools()

	result, err := tools.modelTree(context.Background(), callRequest(map[string]any{"model": "nope"}))
	if err != nil {
		t.Fatalf("model tree: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for unknown model")
	}
}

func TestModelTreeRequiresModel(t *testing.T) {
	tools, _ := newTestTools()

	result, err := tools.modelTree(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("model tree: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error without model")
	}
}

func TestRankingsPassesPaths(t *testing.T) {
	tools, rankings := newTestTools()

	_, err := tools.rankings(context.Background(), callRequest(map[string]any{"paths": []any{"", "math.algebra"}}))
	if err != nil {
		t.Fatalf("rankings: %v", err)
	}
	if len(rankings.paths) != 2 || rankings.paths[1] != "math.algebra" {
		t.Fatalf("unexpected paths %q", rankings.paths)
	}
}

func TestWeaknessesRejectsNegativeThreshold(t *testing.T) {
	tools, _ := newTestTools()

	result, err := tools.weaknesses(context.Background(), callRequest(map[string]any{"model": "alpha", "threshold": -1.0}))
	if err != nil {
		t.Fatalf("weaknesses: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for negative threshold")
	}
}

func TestReloadReportsFailure(t *testing.T) {
	tools := NewTools(Deps{Loads: loadsFake{err: errors.New("source down")}, Catalog: catalogFake{}, Rankings: &rankingsFake{}})

	result, err := tools.reload(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "source down") {
		t.Fatalf("expected reload failure in result")
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	tools, _ := newTestTools()
	if s := NewServer("eval-viewer-mcp", "test", tools); s == nil {
		t.Fatalf("expected server")
	}
}
