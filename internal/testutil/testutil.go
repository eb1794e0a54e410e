// Package testutil provides shared helpers for integration tests that need
// a real PostgreSQL or Redis instance. Tests skip when the backing service
// is unavailable unless TEST_REQUIRE_INFRA (or the per-service variant) is
// set, which turns the skip into a failure for CI.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	// Import pgx driver for database/sql compatibility in tests.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/migrate"
)

// TestingTB is an interface that covers both *testing.T and *testing.B.
type TestingTB interface {
	Helper()
	Skip(args ...interface{})
	Skipf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	Logf(format string, args ...interface{})
	Cleanup(func())
}

// TestDBConfig holds configuration for the test database.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig returns default test database configuration.
// CI environments override via TEST_DB_* variables.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     getEnvOrDefault("TEST_DB_HOST", "localhost"),
		Port:     getEnvOrDefault("TEST_DB_PORT", "55432"),
		User:     getEnvOrDefault("TEST_DB_USER", "community"),
		Password: getEnvOrDefault("TEST_DB_PASSWORD", "community"),
		DBName:   getEnvOrDefault("TEST_DB_NAME", "community"),
	}
}

func (c TestDBConfig) dsn() string {
	hostPort := net.JoinHostPort(c.Host, c.Port)
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		c.User, c.Password, hostPort, c.DBName)
}

// SetupTestDB opens the test database, applies the production migrations,
// and wipes existing rows. The connection is closed on test cleanup.
func SetupTestDB(t TestingTB) *sql.DB {
	t.Helper()

	cfg := DefaultTestDBConfig()

	db, err := sql.Open("pgx", cfg.dsn())
	if err != nil {
		skipOrFail(t, "test database not available:", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if cerr := db.Close(); cerr != nil {
			t.Logf("test db close failed: %v", cerr)
		}
		skipOrFail(t, "test database not available:", pingErr)
		return nil
	}

	if migrateErr := migrate.Run(ctx, db); migrateErr != nil {
		t.Fatal("run migrations:", migrateErr)
	}

	CleanupTestDB(t, db)
	t.Cleanup(func() {
		CleanupTestDB(t, db)
		if cerr := db.Close(); cerr != nil {
			t.Logf("test db close failed: %v", cerr)
		}
	})

	return db
}

// CleanupTestDB removes all rows from the application tables.
func CleanupTestDB(t TestingTB, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Delete in reverse dependency order to respect foreign keys.
	for _, table := range []string{"post_likes", "comments", "posts", "credentials", "users"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("clean up table %s: %v", table, err)
		}
	}
}

// SetupTestRedis connects to the test Redis instance and flushes it. The
// client is closed on test cleanup.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr := getEnvOrDefault("TEST_REDIS_ADDR", "localhost:56379")
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   1, // keep clear of any local dev data in DB 0
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			t.Logf("redis close failed: %v", cerr)
		}
		skipOrFail(t, fmt.Sprintf("test redis not available at %s:", addr), err)
		return nil
	}

	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		if cerr := client.Close(); cerr != nil {
			t.Logf("redis close failed: %v", cerr)
		}
	})

	return client
}

// FixedTimeFunc returns a clock that always reports the same instant.
func FixedTimeFunc(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func skipOrFail(t TestingTB, msg string, err error) {
	t.Helper()
	if requireInfra() {
		t.Fatal(msg, err)
	}
	t.Skip(msg, err)
}

func requireInfra() bool {
	v := strings.ToLower(os.Getenv("TEST_REQUIRE_INFRA"))
	return v == "1" || v == "true" || v == "yes"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
