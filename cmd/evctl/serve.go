package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evapp/ev-backend/internal/config"
	"github.com/evapp/ev-backend/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := root.openApp(ctx)
			if err != nil {
				return err
			}
			defer closeApp(a)

			if addr != "" {
				config.WithHTTPAddr(addr)(a.Config)
			}
			return server.FromApp(a).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to $HTTP_ADDR)")
	return cmd
}
