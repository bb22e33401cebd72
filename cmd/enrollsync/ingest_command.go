package main

import (
	"github.com/spf13/cobra"

	"enrollsync/internal/api"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [source_dir]",
		Short: "Load a source tree into the staging store",
		Long: `Scan one directory per student under the source tree, enrich the
identities from the spreadsheets found there and stage students, leads and
documents. Without an argument paths.source_dir is used. Documents are
copied below paths.staging_dir, or below --staging-dir when given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			req := api.IngestRequest{
				Config: cfg,
				Logger: logger,
			}
			if len(args) == 1 {
				req.SourceDir = args[0]
			}
			result, runErr := api.RunIngestion(cmd.Context(), req)
			if err := ctx.printRunResult(cmd, "Ingestion", result); err != nil {
				return err
			}
			return runErr
		},
	}

	return cmd
}
