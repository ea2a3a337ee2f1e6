// Package testinfra starts throwaway databases for integration tests.
package testinfra

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:16-alpine"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "injectdb"

	// ConnEnv overrides the container with an existing database.
	ConnEnv = "INJECTDB_TEST_PG"
)

var (
	containerOnce sync.Once
	containerConn string
	containerErr  error
)

func startPostgres(ctx context.Context) (string, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return "", fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return "", fmt.Errorf("get connection string: %w", err)
	}
	return connStr, nil
}

// RequirePostgres returns a connection string for a scratch Postgres database.
// Priority: INJECTDB_TEST_PG env var > shared testcontainer > skip.
func RequirePostgres(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	if connString := os.Getenv(ConnEnv); connString != "" {
		return connString
	}

	containerOnce.Do(func() {
		containerConn, containerErr = startPostgres(context.Background())
	})
	if containerErr != nil {
		t.Skipf("%s not set and Docker unavailable: %v", ConnEnv, containerErr)
	}
	return containerConn
}
