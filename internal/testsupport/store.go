package testsupport

import (
	"context"
	"testing"

	"enrollsync/internal/config"
	"enrollsync/internal/production"
	"enrollsync/internal/staging"
)

// MustOpenStaging opens the staging store named by cfg and registers cleanup.
func MustOpenStaging(t testing.TB, cfg *config.Config) *staging.Store {
	t.Helper()

	store, err := staging.Open(cfg.StagingDatabasePath())
	if err != nil {
		t.Fatalf("staging.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenProduction opens the production store named by cfg and registers cleanup.
func MustOpenProduction(t testing.TB, cfg *config.Config) *production.Store {
	t.Helper()

	store, err := production.Open(context.Background(), cfg.Production.Driver, cfg.Production.DSN)
	if err != nil {
		t.Fatalf("production.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
