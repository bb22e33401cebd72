// Package api is the operation layer shared by the CLI: each exported
// function opens the stores named by the configuration, takes the run lock
// where the operation writes, runs one pipeline step and returns flat
// counters that render as a table or as JSON.
//
// Phase-level failures (lock held, store unavailable, unreadable source)
// return an error together with whatever counters were collected, and
// Result.Success is false.
package api
