package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"enrollsync/internal/api"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Promote staged records into the production database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			result, runErr := api.Migrate(cmd.Context(), api.MigrateRequest{
				Config: cfg,
				Logger: logger,
				DryRun: dryRun,
			})
			if err := ctx.printRunResult(cmd, "Migration", result); err != nil {
				return err
			}
			if runErr == nil && dryRun && !ctx.JSONMode(cmd) {
				fmt.Fprintln(cmd.OutOrStdout(), "Dry run: production changes were rolled back")
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve and write inside one transaction that is rolled back")
	return cmd
}
