// Package main hosts the enrollsync CLI entrypoint and command graph.
//
// Each subcommand resolves configuration once, builds the process logger and
// hands off to internal/api, which owns the stores and the run lock. Output
// is a go-pretty table on a terminal and indented JSON otherwise, so the
// same commands serve operators and scripts.
//
// Add behaviour to the internal packages first and surface it here with a
// thin command.
package main
