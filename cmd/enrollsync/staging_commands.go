package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"enrollsync/internal/api"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect and clean the staging store",
	}

	stagingCmd.AddCommand(newStagingStatsCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingStatsCommand(ctx *commandContext) *cobra.Command {
	var runs int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show staging table counts and recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := api.StagingStats(cmd.Context(), api.StatsRequest{Config: cfg, Runs: runs})
			if err != nil {
				return err
			}
			if ctx.JSONMode(cmd) {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			tables := make([]string, 0, len(result.Tables))
			for name := range result.Tables {
				tables = append(tables, name)
			}
			sort.Strings(tables)
			rows := make([][]string, 0, len(tables))
			total := 0
			for _, name := range tables {
				rows = append(rows, []string{name, strconv.Itoa(result.Tables[name])})
				total += result.Tables[name]
			}
			fmt.Fprintln(out, tableView{
				headers: []string{"Table", "Rows"},
				aligns:  []columnAlignment{alignLeft, alignRight},
				rows:    rows,
				footer:  []string{"total", strconv.Itoa(total)},
			}.render())
			fmt.Fprintf(out, "Staged documents: %d directories, %d files, %s\n",
				result.DocumentDirs, result.DocumentFiles, humanize.Bytes(uint64(result.DocumentsBytes)))

			if len(result.Runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			runRows := make([][]string, 0, len(result.Runs))
			for _, r := range result.Runs {
				runRows = append(runRows, []string{r.ID, r.Kind, r.Status, formatTime(r.StartedAt), formatTime(r.FinishedAt)})
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable([]string{"Run", "Kind", "Status", "Started", "Finished"}, runRows, nil))
			return nil
		},
	}

	cmd.Flags().IntVar(&runs, "runs", 5, "Number of recent runs to list")
	return cmd
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var confirm bool
	var orphaned bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Empty the staging store and remove copied documents",
		Long: `Truncate every staging table and remove the copied document tree. This
requires --confirm. With --orphaned only document directories of students
that are no longer staged are removed.`,
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
			result, err := api.CleanStaging(cmd.Context(), api.CleanRequest{
				Config:   cfg,
				Logger:   logger,
				Confirm:  confirm,
				Orphaned: orphaned,
			})
			if err != nil {
				return err
			}
			if ctx.JSONMode(cmd) {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			if len(result.Truncated) > 0 {
				truncated := make(map[string]int, len(result.Truncated))
				for table, n := range result.Truncated {
					truncated[table] = int(n)
				}
				fmt.Fprintln(out, renderTable([]string{"Table", "Deleted"}, statsRows(truncated), []columnAlignment{alignLeft, alignRight}))
			}
			if len(result.Removed) == 0 {
				fmt.Fprintln(out, "No document directories removed")
			} else {
				fmt.Fprintf(out, "Removed %d document directories\n", len(result.Removed))
			}
			for _, msg := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "cleanup error: %s\n", msg)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm truncating every staging table")
	cmd.Flags().BoolVar(&orphaned, "orphaned", false, "Only remove document directories of students no longer staged")
	return cmd
}
