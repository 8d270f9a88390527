package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/evapp/ev-backend/internal/app"
	"github.com/evapp/ev-backend/internal/config"
)

type rootOptions struct {
	dbPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "evctl",
		Short:        "Manage the EV-APP charging station database",
		Version:      version,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database file (defaults to $DATABASE_PATH)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newIngestCmd(opts),
		newCheckCmd(opts),
	)
	return cmd
}

// loadConfig reads the environment, applies command line overrides and sends
// logs to stderr so command output stays clean.
func (o *rootOptions) loadConfig() *config.Config {
	cfg := config.LoadFromEnv()
	if o.dbPath != "" {
		config.WithDatabasePath(o.dbPath)(cfg)
	}
	cfg.InitializeLogging()
	if cfg.IsLocal() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return cfg
}

func (o *rootOptions) openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, o.loadConfig(), config.GetCacheConfig())
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing database")
	}
}
