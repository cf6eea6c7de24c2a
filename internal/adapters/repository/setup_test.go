package repository

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

type backend struct {
	habits  domain.HabitRepository
	entries domain.HabitEntryRepository
	users   domain.UserRepository
	tx      domain.Transactor
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db))
	return db
}

func openPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DB_USER", "kanso_user"),
		getEnv("DB_PASSWORD", "secret"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "kanso_db"),
	)

	db, err := Open(ctx, DriverPostgres, dsn)
	if err != nil {
		t.Skipf("Skipping integration tests: database connection failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db))
	truncate := func() {
		_, err := db.Exec("TRUNCATE TABLE habit_entries, habits, users CASCADE")
		require.NoError(t, err, "Failed to clean up database")
	}
	truncate()
	t.Cleanup(truncate)
	return db
}

func sqlBackend(db *sqlx.DB) backend {
	return backend{
		habits:  NewSQLHabitRepository(db),
		entries: NewSQLEntryRepository(db),
		users:   NewSQLUserRepository(db),
		tx:      NewSQLTransactor(db),
	}
}

func memoryBackend() backend {
	store := NewMemoryStore()
	return backend{
		habits:  store.Habits(),
		entries: store.Entries(),
		users:   store.Users(),
		tx:      store.Transactor(),
	}
}

// forEachBackend runs fn against SQLite, memory and, when reachable, Postgres.
func forEachBackend(t *testing.T, fn func(t *testing.T, b backend)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, sqlBackend(openSQLite(t))) })
	t.Run("memory", func(t *testing.T) { fn(t, memoryBackend()) })
	t.Run("postgres", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping Postgres in short mode")
		}
		fn(t, sqlBackend(openPostgres(t)))
	})
}
