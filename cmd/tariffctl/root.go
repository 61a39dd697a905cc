package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/kirillkom/tariff-resolver/internal/bootstrap"
	"github.com/kirillkom/tariff-resolver/internal/config"
	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

type rootOptions struct {
	backend     string
	catalogFile string
	postgresDSN string
	natsURL     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "tariffctl",
		Short:        "Resolve EU import duty and VAT from the command line",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.backend, "backend", "", "catalog backend: postgres or yaml (default from CATALOG_BACKEND)")
	flags.StringVar(&opts.catalogFile, "catalog-file", "", "YAML catalog snapshot; implies --backend=yaml")
	flags.StringVar(&opts.postgresDSN, "postgres-dsn", "", "Postgres DSN (default from POSTGRES_DSN)")
	flags.StringVar(&opts.natsURL, "nats-url", "", "resolve through the worker pool at this NATS URL instead of a local catalog (resolve only)")

	root.AddCommand(
		newResolveCmd(opts),
		newCompareCmd(opts),
		newCountriesCmd(opts),
		newBatchCmd(opts),
		newSeedCmd(opts),
		newSchemaCmd(opts),
	)
	return root
}

func (o *rootOptions) config() config.Config {
	cfg := config.Load()
	if o.backend != "" {
		cfg.CatalogBackend = o.backend
	}
	if o.catalogFile != "" {
		cfg.CatalogFile = o.catalogFile
		if o.backend == "" {
			cfg.CatalogBackend = config.CatalogBackendYAML
		}
	}
	if o.postgresDSN != "" {
		cfg.PostgresDSN = o.postgresDSN
	}
	if o.natsURL != "" {
		cfg.NATSURL = o.natsURL
	}
	return cfg
}

var errQueueResolveOnly = errors.New("--nats-url is only supported by the resolve command")

// openApp opens the local catalog. Only resolve can route through NATS.
func (o *rootOptions) openApp(ctx context.Context) (*bootstrap.App, error) {
	if o.natsURL != "" {
		return nil, errQueueResolveOnly
	}
	return bootstrap.New(ctx, o.config(), bootstrap.Options{SkipSchema: true})
}

func parseCIF(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: cif value %q is not a number", domain.ErrInvalidInput, raw)
	}
	return value, nil
}

func printJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// userError keeps storage details out of CLI output while preserving the
// validation text.
func userError(err error) error {
	return errors.New(domain.PublicMessage(err))
}
