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

	"github.com/kirillkom/tariff-resolver/internal/bootstrap"
	"github.com/kirillkom/tariff-resolver/internal/config"
	"github.com/kirillkom/tariff-resolver/internal/core/domain"
	"github.com/kirillkom/tariff-resolver/internal/observability/logging"
	"github.com/kirillkom/tariff-resolver/internal/observability/metrics"
)

const service = "tariff-worker"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(service, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(service)
	backendMetrics := metrics.NewBackendMetrics(service, workerMetrics.Registerer())
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{StoreObserver: backendMetrics})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	queue, err := bootstrap.ConnectQueue(cfg, service, backendMetrics)
	if err != nil {
		slog.Error("queue_connect_failed", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject, "queue_group", cfg.NATSQueueGroup)
	err = queue.ServeResolveRequests(ctx, func(handlerCtx context.Context, req domain.ResolveRequest) (*domain.Resolution, error) {
		resolveCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Second)
		defer cancel()

		return workerMetrics.ObserveResolve(service, func() (*domain.Resolution, error) {
			return app.Resolver.Resolve(resolveCtx, req)
		})
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("worker_metrics_shutdown_failed", "error", err)
	}
}
