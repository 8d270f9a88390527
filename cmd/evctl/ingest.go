package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/evapp/ev-backend/internal/app"
	"github.com/evapp/ev-backend/internal/awsclient"
	"github.com/evapp/ev-backend/internal/ingest"
)

func newIngestCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load CSV exports into the database",
	}
	cmd.AddCommand(newIngestStationsCmd(root), newIngestVehiclesCmd(root))
	return cmd
}

func newIngestStationsCmd(root *rootOptions) *cobra.Command {
	var opts ingest.AppendOptions

	cmd := &cobra.Command{
		Use:   "stations <file|s3://bucket/key>",
		Short: "Append charging stations that are not stored yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := root.openApp(ctx)
			if err != nil {
				return err
			}
			defer closeApp(a)

			r, err := openSource(ctx, a, args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			res, err := ingest.NewStationAppender(a.Stations).Append(ctx, r, opts)
			if res != nil && res.Inserted > 0 {
				if ierr := a.StationRepo.Invalidate(ctx); ierr != nil {
					log.Warn().Err(ierr).Msg("Failed to invalidate station cache")
				}
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&opts.MaxRows, "max-rows", ingest.DefaultMaxRows, "read at most this many rows")
	cmd.Flags().IntVar(&opts.SampleSize, "sample", 0, "insert a reproducible random sample of this many rows instead")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", ingest.DefaultBatchSize, "rows per insert transaction")
	return cmd
}

func newIngestVehiclesCmd(root *rootOptions) *cobra.Command {
	var opts ingest.LoadOptions

	cmd := &cobra.Command{
		Use:   "vehicles [file|s3://bucket/key]",
		Short: "Load EV model specifications",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := ingest.DefaultVehicleFile
			if len(args) == 1 {
				src = args[0]
			}

			ctx := cmd.Context()
			a, err := root.openApp(ctx)
			if err != nil {
				return err
			}
			defer closeApp(a)

			r, err := openSource(ctx, a, src)
			if err != nil {
				return err
			}
			defer r.Close()

			res, err := ingest.NewVehicleLoader(a.Vehicles).Load(ctx, r, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "delete existing vehicles first")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", ingest.DefaultBatchSize, "rows per chunk")
	return cmd
}

// openSource only builds an S3 client when the source lives in S3.
func openSource(ctx context.Context, a *app.App, src string) (io.ReadCloser, error) {
	var client ingest.S3Client
	if ingest.IsS3URI(src) {
		s3c, err := awsclient.NewS3Client(ctx, a.Config.AWSEndpoint)
		if err != nil {
			return nil, fmt.Errorf("creating S3 client: %w", err)
		}
		client = s3c
	}

	r, where, err := ingest.NewSourceOpener(client).Open(ctx, src)
	if err != nil {
		return nil, err
	}
	log.Info().Str("source", where).Msg("Reading CSV")
	return r, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
