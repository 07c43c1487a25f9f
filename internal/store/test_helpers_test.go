package store

import (
	"database/sql"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/randomairborne/aghast/internal/automigrate"
	"github.com/randomairborne/aghast/migrations"
)

const testDBURLKey = "AGHAST_TEST_DATABASE_URL"

// setupTestDatabase connects to the dedicated test database, resets the
// schema, and applies the embedded migrations. Tests are skipped unless
// AGHAST_TEST_DATABASE_URL is set.
func setupTestDatabase(t *testing.T) *sql.DB {
	t.Helper()
	connStr := os.Getenv(testDBURLKey)
	if connStr == "" {
		t.Skipf("set %s to a dedicated test database", testDBURLKey)
	}

	db, err := Open(connStr)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	_, err = db.Exec("DROP TABLE IF EXISTS ticket_messages, tickets, schema_migrations")
	require.NoError(t, err)
	require.NoError(t, automigrate.Run(db, migrations.FS, zerolog.Nop()))

	return db
}
