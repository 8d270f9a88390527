package main

import (
	"github.com/spf13/cobra"

	"github.com/evapp/ev-backend/internal/ingest"
	"github.com/evapp/ev-backend/internal/store"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Print table counts, coordinate coverage, top countries and power classes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := root.openApp(ctx)
			if err != nil {
				return err
			}
			defer closeApp(a)

			tables, err := store.TableCounts(ctx, a.DB)
			if err != nil {
				return err
			}
			report, err := ingest.BuildReport(ctx, tables, a.Stations)
			if err != nil {
				return err
			}
			_, err = report.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}
