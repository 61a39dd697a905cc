package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/tariff-resolver/internal/adapters/http"
	"github.com/kirillkom/tariff-resolver/internal/bootstrap"
	"github.com/kirillkom/tariff-resolver/internal/config"
	"github.com/kirillkom/tariff-resolver/internal/observability/logging"
	"github.com/kirillkom/tariff-resolver/internal/observability/metrics"
)

const service = "tariff-api"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(service, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics(service)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		StoreObserver: metrics.NewBackendMetrics(service, httpMetrics.Registerer()),
	})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	handler, err := httpadapter.NewRouter(cfg, httpadapter.Services{
		Resolver:  app.Resolver,
		Batch:     app.Batch,
		Comparer:  app.Comparer,
		Countries: app.Countries,
		Exporter:  app.Exporter,
		Metrics:   httpMetrics,
	}).Handler()
	if err != nil {
		slog.Error("router_init_failed", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort, "catalog_backend", cfg.CatalogBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
