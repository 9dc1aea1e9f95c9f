package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/samakshmehra/document-processing-system/internal/adapters/mcp"
	"github.com/samakshmehra/document-processing-system/internal/bootstrap"
	"github.com/samakshmehra/document-processing-system/internal/config"
	"github.com/samakshmehra/document-processing-system/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel, logging.FileOptions{Path: cfg.LogFile}))

	app, err := bootstrap.New(context.Background(), cfg, bootstrap.Options{})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	s := mcpadapter.NewServer(mcpadapter.NewTools(app.Router, app.History))
	if err := server.ServeStdio(s); err != nil {
		slog.Error("mcp_server_failed", "error", err)
		app.Close()
		os.Exit(1)
	}
}
