package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Resolve a JSON array of requests; FILE may be - for stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := readBatch(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			app, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			items, err := app.Batch.ResolveBatch(cmd.Context(), reqs)
			if err != nil {
				return userError(err)
			}
			if xlsxPath == "" {
				return printJSON(cmd.OutOrStdout(), items)
			}

			f, err := os.Create(xlsxPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", xlsxPath, err)
			}
			if err := app.Exporter.ExportBatch(f, items); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", xlsxPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(items), xlsxPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write results to this spreadsheet instead of stdout")
	return cmd
}

func readBatch(stdin io.Reader, path string) ([]domain.ResolveRequest, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open batch file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var reqs []domain.ResolveRequest
	if err := json.NewDecoder(r).Decode(&reqs); err != nil {
		return nil, fmt.Errorf("decode batch file: %w", err)
	}
	return reqs, nil
}
