package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"enrollsync/internal/api"
)

// writeJSON writes v to the command's stdout as indented JSON followed by a
// newline.
func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

// statsRows flattens counters into sorted table rows, skipping zero values
// unless every value is zero.
func statsRows(stats map[string]int) [][]string {
	keys := make([]string, 0, len(stats))
	for key, value := range stats {
		if value != 0 {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		for key := range stats {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, strconv.Itoa(stats[key])})
	}
	return rows
}

func renderStats(stats map[string]int) string {
	return renderTable([]string{"Counter", "Value"}, statsRows(stats), []columnAlignment{alignLeft, alignRight})
}

// printRunResult writes an ingestion or migration outcome. It is called on
// failure too, so a partially completed run still reports its counters.
func (c *commandContext) printRunResult(cmd *cobra.Command, label string, result api.Result) error {
	if c.JSONMode(cmd) {
		return writeJSON(cmd, result)
	}
	out := cmd.OutOrStdout()
	status := result.Status
	if status == "" {
		status = "NOT STARTED"
	}
	if result.RunID != "" {
		fmt.Fprintf(out, "%s %s (run %s)\n", label, status, result.RunID)
	} else {
		fmt.Fprintf(out, "%s %s\n", label, status)
	}
	if len(result.Stats) > 0 {
		fmt.Fprintln(out, renderStats(result.Stats))
	}
	return nil
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}
