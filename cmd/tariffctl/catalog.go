package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/tariff-resolver/internal/bootstrap"
	"github.com/kirillkom/tariff-resolver/internal/infrastructure/repository/memory"
)

var errPostgresOnly = errors.New("this command requires the postgres catalog backend")

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed FILE",
		Short: "Replace the Postgres catalog with a YAML snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := memory.ReadSnapshot(args[0])
			if err != nil {
				return err
			}

			app, err := openPostgres(cmd, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Postgres.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			if err := app.Postgres.ReplaceSnapshot(cmd.Context(), snapshot); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d tariffs, %d preferential rates, %d countries\n",
				len(snapshot.Tariffs), len(snapshot.PreferentialTariffs), len(snapshot.Countries))
			return nil
		},
	}
}

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create catalog tables and indexes if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openPostgres(cmd, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Postgres.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
			return nil
		},
	}
}

func openPostgres(cmd *cobra.Command, opts *rootOptions) (*bootstrap.App, error) {
	app, err := opts.openApp(cmd.Context())
	if err != nil {
		return nil, err
	}
	if app.Postgres == nil {
		app.Close()
		return nil, errPostgresOnly
	}
	return app, nil
}
