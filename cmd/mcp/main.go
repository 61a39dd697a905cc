package main

import (
	"context"
	"log/slog"
	"os"

	mcpadapter "github.com/kirillkom/tariff-resolver/internal/adapters/mcp"
	"github.com/kirillkom/tariff-resolver/internal/bootstrap"
	"github.com/kirillkom/tariff-resolver/internal/config"
	"github.com/kirillkom/tariff-resolver/internal/observability/logging"
)

const (
	service = "tariff-mcp"
	version = "1.0.0"
)

func main() {
	cfg := config.Load()
	// stdout carries the protocol stream.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, service, cfg.LogLevel))

	app, err := bootstrap.New(context.Background(), cfg, bootstrap.Options{SkipSchema: true})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := mcpadapter.NewServer(app.Resolver, app.Comparer, version).ServeStdio(); err != nil {
		slog.Error("mcp_server_failed", "error", err)
	}
}
