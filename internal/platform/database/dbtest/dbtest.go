//go:build integration

// Package dbtest starts a throwaway PostgreSQL container with the schema
// migrated, for integration tests.
package dbtest

import (
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/p-n-ai/pai-dojo/internal/platform/database"
)

// Start runs postgres:16-alpine and returns a migrated DB. The container
// and pool are released when the test ends.
func Start(t *testing.T) *database.DB {
	t.Helper()
	ctx := t.Context()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("dojo"),
		postgres.WithUsername("dojo"),
		postgres.WithPassword("dojo"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := database.New(ctx, dsn, database.Options{MaxConns: 4, MinConns: 1, Migrate: true})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(db.Close)
	return db
}
