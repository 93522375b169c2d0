package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/kirillkom/document-catalog/internal/adapters/mcp"
	"github.com/kirillkom/document-catalog/internal/bootstrap"
	"github.com/kirillkom/document-catalog/internal/config"
	"github.com/kirillkom/document-catalog/internal/observability/logging"
)

var version = "dev"

func main() {
	cfg := config.Load()
	// stdout carries the protocol; logs go to stderr.
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the MCP server only reads, so it never publishes events.
	cfg.EventsEnabled = false
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server := mcpadapter.NewServer(mcpadapter.Services{
		Cascade: app.Cascade,
		Search:  app.Search,
		Stats:   app.Stats,
	}, version)
	if err := server.ServeStdio(); err != nil {
		logger.Error("mcp_server_error", "error", err)
		os.Exit(1)
	}
}
