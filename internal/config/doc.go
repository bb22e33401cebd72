// Package config loads, normalizes, and validates enrollsync configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for the
// database connections (ENROLLSYNC_STAGING_DSN, ENROLLSYNC_PRODUCTION_DSN and
// DATABASE_URL). The Config type centralizes every knob the CLI and the api
// layer need so staging paths and database credentials are discovered in one
// pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a canonical driver name, and clear validation errors.
package config
