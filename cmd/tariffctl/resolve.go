package main

import (
	"github.com/spf13/cobra"

	"github.com/kirillkom/tariff-resolver/internal/bootstrap"
	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

func newResolveCmd(opts *rootOptions) *cobra.Command {
	var cif, country string

	cmd := &cobra.Command{
		Use:   "resolve CODE",
		Short: "Calculate duty, VAT and alerts for one classification code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseCIF(cif)
			if err != nil {
				return err
			}
			req := domain.ResolveRequest{Code: args[0], CIFValue: value, Country: country}

			var resolution *domain.Resolution
			if opts.natsURL != "" {
				queue, err := bootstrap.ConnectQueue(opts.config(), "tariffctl", nil)
				if err != nil {
					return err
				}
				defer queue.Close()
				resolution, err = queue.RequestResolve(cmd.Context(), req)
				if err != nil {
					return userError(err)
				}
			} else {
				app, err := opts.openApp(cmd.Context())
				if err != nil {
					return err
				}
				defer app.Close()
				resolution, err = app.Resolver.Resolve(cmd.Context(), req)
				if err != nil {
					return userError(err)
				}
			}
			return printJSON(cmd.OutOrStdout(), resolution)
		},
	}
	cmd.Flags().StringVar(&cif, "cif", "0", "customs value (CIF) in EUR")
	cmd.Flags().StringVar(&country, "country", "", "ISO alpha-2 origin country; empty for erga omnes")
	return cmd
}

func newCompareCmd(opts *rootOptions) *cobra.Command {
	var cif string
	var countries []string

	cmd := &cobra.Command{
		Use:   "compare CODE",
		Short: "Compare landed cost across origin countries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseCIF(cif)
			if err != nil {
				return err
			}
			app, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			comparison, err := app.Comparer.CompareOrigins(cmd.Context(), args[0], value, countries)
			if err != nil {
				return userError(err)
			}
			return printJSON(cmd.OutOrStdout(), comparison)
		},
	}
	cmd.Flags().StringVar(&cif, "cif", "0", "customs value (CIF) in EUR")
	cmd.Flags().StringSliceVar(&countries, "countries", nil, "comma-separated origin countries")
	return cmd
}

func newCountriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List catalog countries ordered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			countries, err := app.Countries.ListCountries(cmd.Context())
			if err != nil {
				return userError(err)
			}
			return printJSON(cmd.OutOrStdout(), countries)
		},
	}
}
