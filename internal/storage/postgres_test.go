package storage

import (
	"context"
	"os"
	"testing"
)

// setupTestPostgres creates a test database connection with empty tables.
// Returns nil if no PostgreSQL connection is available.
func setupTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()

	// Check for environment variable or use defaults.
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}
	user := os.Getenv("POSTGRES_USER")
	if user == "" {
		user = "jpx"
	}
	password := os.Getenv("POSTGRES_PASSWORD")
	if password == "" {
		password = "jpx"
	}
	database := os.Getenv("POSTGRES_DB")
	if database == "" {
		database = "jpx_test"
	}

	ctx := context.Background()
	pg, err := OpenPostgres(ctx, PostgresConfig{
		Host:     host,
		Port:     5432,
		User:     user,
		Password: password,
		Database: database,
	})
	if err != nil {
		return nil
	}

	// Ensure schema exists.
	if err := pg.CreateSchema(ctx); err != nil {
		_ = pg.Close()
		return nil
	}
	if _, err := pg.pool.Exec(ctx, "TRUNCATE flights, settings, alert_acks"); err != nil {
		_ = pg.Close()
		return nil
	}

	return pg
}

func TestPostgresStore(t *testing.T) {
	pg := setupTestPostgres(t)
	if pg == nil {
		t.Skip("No PostgreSQL connection available")
	}
	defer pg.Close()

	exerciseStore(t, pg)
}
