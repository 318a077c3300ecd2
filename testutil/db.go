// Package testutil holds the Postgres helpers shared by the store and
// migration tests. Everything here needs TEST_DATABASE_URL; without it the
// calling test is skipped and the CSV-only suites still run.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql

	"github.com/pkordes/tripbook/migrations"
)

// envDatabaseURL names the variable pointing at a disposable database.
const envDatabaseURL = "TEST_DATABASE_URL"

// truncateCache empties every table the Postgres stores snapshot into.
const truncateCache = "TRUNCATE trips, people"

// DatabaseURL returns the test database URL, skipping t when it is unset.
func DatabaseURL(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(envDatabaseURL)
	if dsn == "" {
		t.Skip(envDatabaseURL + " not set; skipping Postgres test")
	}
	return dsn
}

// Migrate brings the database at dsn up to the latest schema. It is meant
// for TestMain, where there is no *testing.T; an empty dsn is a no-op.
func Migrate(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("testutil.Migrate: open: %w", err)
	}
	defer db.Close()
	if _, err := migrations.Up(ctx, db); err != nil {
		return fmt.Errorf("testutil.Migrate: %w", err)
	}
	return nil
}

// NewPool connects a pool to the test database and closes it when t ends.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, DatabaseURL(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// NewSQLDB is NewPool for database/sql callers such as goose.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", DatabaseURL(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: %v", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		t.Fatalf("testutil.NewSQLDB: ping: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// BeginTx opens a transaction on a fresh pool and rolls it back when t ends.
// A store built on it commits into savepoints, so nothing it saves is seen
// by other tests.
func BeginTx(t *testing.T) pgx.Tx {
	t.Helper()
	ctx := context.Background()

	tx, err := NewPool(t).Begin(ctx)
	if err != nil {
		t.Fatalf("testutil.BeginTx: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(ctx) })
	return tx
}

// TruncateCache empties the people and trips tables now and again when t
// ends. Use it for tests that commit through the pool instead of BeginTx.
func TruncateCache(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	truncate := func() error {
		_, err := pool.Exec(context.Background(), truncateCache)
		return err
	}
	if err := truncate(); err != nil {
		t.Fatalf("testutil.TruncateCache: %v", err)
	}
	t.Cleanup(func() {
		if err := truncate(); err != nil {
			t.Errorf("testutil.TruncateCache: cleanup: %v", err)
		}
	})
}
