package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/eval-tree-viewer/internal/adapters/mcp"
	"github.com/kirillkom/eval-tree-viewer/internal/bootstrap"
	"github.com/kirillkom/eval-tree-viewer/internal/config"
	"github.com/kirillkom/eval-tree-viewer/internal/observability/logging"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	// stdout carries the MCP protocol, so logs go to stderr.
	logger := logging.NewWithWriter(os.Stderr, bootstrap.MCPService, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, nil)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	go app.Run(ctx)

	tools := mcpadapter.NewTools(mcpadapter.Deps{
		Logger:   logger,
		Loads:    app.Loads,
		Catalog:  app.Catalog,
		Rankings: app.Rankings,
	})
	s := mcpadapter.NewServer(bootstrap.MCPService, version, tools)
	if err := server.ServeStdio(s); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
