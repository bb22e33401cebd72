package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"enrollsync/internal/api"
)

func newSanitizeCommand(ctx *commandContext) *cobra.Command {
	var execute bool

	sanitizeCmd := &cobra.Command{
		Use:   "sanitize",
		Short: "Find staged persons that are not people",
		Long: `Apply the non-person filter to every staged person. Flagged persons are
only listed unless --execute is given, in which case they are deleted with
their students, leads, documents and copied files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			result, runErr := api.Sanitize(cmd.Context(), api.SanitizeRequest{
				Config:  cfg,
				Logger:  logger,
				Execute: execute,
			})
			if runErr != nil && len(result.Stats) == 0 {
				return runErr
			}
			if ctx.JSONMode(cmd) {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
				return runErr
			}

			out := cmd.OutOrStdout()
			report := result.Report
			if len(report.Flagged) == 0 {
				fmt.Fprintf(out, "No non-person records among %d staged persons\n", report.Scanned)
				return runErr
			}
			rows := make([][]string, 0, len(report.Flagged))
			for _, f := range report.Flagged {
				rows = append(rows, []string{f.PersonID, f.FullName, string(f.Rule), f.Source})
			}
			fmt.Fprintln(out, renderTable([]string{"Person", "Name", "Rule", "Source"}, rows, nil))
			fmt.Fprintln(out, renderStats(result.Stats))
			if !report.Executed {
				fmt.Fprintln(out, "Dry run: re-run with --execute to delete these records")
			}
			return runErr
		},
	}

	sanitizeCmd.Flags().BoolVar(&execute, "execute", false, "Delete flagged persons")
	sanitizeCmd.AddCommand(newSanitizeDeleteCommand(ctx))
	return sanitizeCmd
}

func newSanitizeDeleteCommand(ctx *commandContext) *cobra.Command {
	var execute bool

	cmd := &cobra.Command{
		Use:   "delete <student_id>",
		Short: "Delete one staged student with its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			result, err := api.DeleteStudent(cmd.Context(), api.DeleteStudentRequest{
				Config:    cfg,
				Logger:    logger,
				StudentID: args[0],
				Execute:   execute,
			})
			if err != nil {
				return err
			}
			if ctx.JSONMode(cmd) {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			if !result.Found {
				fmt.Fprintf(out, "Student %s not found in staging\n", result.StudentID)
				return nil
			}
			if result.Executed {
				fmt.Fprintf(out, "Deleted student %s (%s)\n", result.StudentID, result.FullName)
			} else {
				fmt.Fprintf(out, "Would delete student %s (%s)\n", result.StudentID, result.FullName)
			}
			fmt.Fprintln(out, renderStats(result.Stats))
			if !result.Executed {
				fmt.Fprintln(out, "Dry run: re-run with --execute to delete")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&execute, "execute", false, "Delete the student instead of previewing")
	return cmd
}
