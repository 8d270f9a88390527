package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/evapp/ev-backend/internal/store"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.loadConfig()
			db, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.CreateSchema(db); err != nil {
				return err
			}
			log.Info().Str("path", cfg.DatabasePath).Msg("Schema ready")

			counts, err := store.TableCounts(cmd.Context(), db)
			if err != nil {
				return err
			}
			for _, tc := range counts {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows\n", tc.Table, tc.Rows)
			}
			return nil
		},
	}
}
