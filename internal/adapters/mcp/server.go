package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/eval-tree-viewer/internal/core/ports"
)

type Deps struct {
	Logger   *slog.Logger
	Loads    ports.DocumentReloader
	Catalog  ports.ModelCatalog
	Rankings ports.RankingService
}

type Tools struct {
	deps   Deps
	logger *slog.Logger
}

func NewTools(deps Deps) *Tools {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{deps: deps, logger: logger}
}

// NewServer exposes the read side of the viewer as MCP tools.
func NewServer(name, version string, tools *Tools) *server.MCPServer {
	s := server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("list_models",
		mcp.WithDescription("List evaluated models by descending overall score."),
		mcp.WithString("filter", mcp.Description("Case-insensitive substring of the model name.")),
	), tools.listModels)

	s.AddTool(mcp.NewTool("model_tree",
		mcp.WithDescription("Category tree of one model with sizes and scores."),
		mcp.WithString("model", mcp.Required(), mcp.Description("Model name.")),
	), tools.modelTree)

	s.AddTool(mcp.NewTool("rankings",
		mcp.WithDescription("Per-category ranking columns. An empty path is the overall ranking."),
		mcp.WithArray("paths",
			mcp.Description("Dot-separated category paths, one column each."),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), tools.rankings)

	s.AddTool(mcp.NewTool("leaderboard",
		mcp.WithDescription("Overall and per-category ranks of every model."),
	), tools.leaderboard)

	s.AddTool(mcp.NewTool("weaknesses",
		mcp.WithDescription("Categories where a model ranks notably better or worse than overall."),
		mcp.WithString("model", mcp.Required(), mcp.Description("Model name.")),
		mcp.WithNumber("threshold", mcp.Description("Minimum rank difference to report.")),
	), tools.weaknesses)

	s.AddTool(mcp.NewTool("taxonomy",
		mcp.WithDescription("Category taxonomy flattened into selectable paths."),
	), tools.taxonomy)

	s.AddTool(mcp.NewTool("load_status",
		mcp.WithDescription("State of the last document load."),
	), tools.loadStatus)

	s.AddTool(mcp.NewTool("reload",
		mcp.WithDescription("Reload every model document from the configured source."),
	), tools.reload)

	return s
}

func (t *Tools) listModels(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.deps.Catalog.Models(req.GetString("filter", "")))
}

func (t *Tools) modelTree(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model, err := req.RequireString("model")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tree, err := t.deps.Catalog.Tree(model)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tree)
}

func (t *Tools) rankings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths := req.GetStringSlice("paths", nil)
	return jsonResult(t.deps.Rankings.Rankings(ctx, paths))
}

func (t *Tools) leaderboard(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.deps.Rankings.Leaderboard())
}

func (t *Tools) weaknesses(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model, err := req.RequireString("model")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	threshold := req.GetFloat("threshold", 0)
	if threshold < 0 {
		return mcp.NewToolResultError("threshold must not be negative"), nil
	}
	report, err := t.deps.Rankings.Weaknesses(model, threshold)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report)
}

func (t *Tools) taxonomy(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths, err := t.deps.Rankings.Categories(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(paths)
}

func (t *Tools) loadStatus(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.deps.Loads.Status())
}

func (t *Tools) reload(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := t.deps.Loads.Reload(ctx, "")
	if err != nil {
		t.logger.Warn("mcp_reload_failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(state)
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
