package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/tariff-resolver/internal/config"
	"github.com/kirillkom/tariff-resolver/internal/core/ports"
	"github.com/kirillkom/tariff-resolver/internal/core/usecase"
	"github.com/kirillkom/tariff-resolver/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/tariff-resolver/internal/infrastructure/queue/nats"
	"github.com/kirillkom/tariff-resolver/internal/infrastructure/repository/memory"
	"github.com/kirillkom/tariff-resolver/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/tariff-resolver/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config

	Catalog   ports.TariffCatalog
	Resolver  ports.TariffResolver
	Batch     ports.BatchResolver
	Comparer  ports.OriginComparer
	Countries ports.CountryReader
	Exporter  ports.BatchExporter

	// Postgres is set only for the postgres backend; tariffctl uses it for
	// schema and seed commands.
	Postgres *postgres.Catalog

	closeFn func()
}

type Options struct {
	// StoreObserver receives retry and breaker events from the catalog executor.
	StoreObserver resilience.Observer
	// SkipSchema leaves table creation to `tariffctl schema`.
	SkipSchema bool
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Exporter: xlsx.NewExporter()}

	switch cfg.CatalogBackend {
	case config.CatalogBackendYAML:
		catalog, err := memory.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("load catalog file: %w", err)
		}
		app.Catalog = catalog
		slog.Info("catalog_loaded", "backend", cfg.CatalogBackend, "file", cfg.CatalogFile)
	default:
		db, err := postgres.OpenDB(cfg.PostgresDSN, cfg.PostgresMaxOpenConns)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		storeCfg := cfg.StoreResilience()
		storeCfg.Observer = opts.StoreObserver
		catalog := postgres.NewCatalog(db, postgres.NewExecutor(storeCfg))
		if !opts.SkipSchema {
			if err := catalog.EnsureSchema(ctx); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("ensure schema: %w", err)
			}
		}
		app.Catalog = catalog
		app.Postgres = catalog
		app.closeFn = func() { _ = db.Close() }
		slog.Info("catalog_connected", "backend", cfg.CatalogBackend)
	}

	resolver := usecase.NewResolveUseCase(app.Catalog)
	app.Resolver = resolver
	app.Batch = usecase.NewBatchUseCase(resolver, cfg.BatchMaxItems)
	app.Comparer = usecase.NewCompareUseCase(resolver, cfg.CompareMaxCountries)
	app.Countries = usecase.NewCountryQueryUseCase(app.Catalog)

	return app, nil
}

// ConnectQueue opens the NATS connection used by the worker and by remote
// CLI calls. observer may be nil.
func ConnectQueue(cfg config.Config, clientName string, observer resilience.Observer) (*nats.Queue, error) {
	queueCfg := cfg.StoreResilience()
	queueCfg.Observer = observer
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		QueueGroup:         cfg.NATSQueueGroup,
		ClientName:         clientName,
		ResilienceExecutor: nats.NewExecutor(queueCfg),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	return queue, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
