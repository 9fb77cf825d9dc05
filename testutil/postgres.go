// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/quotechat/backend/db"
)

// SetupTestDB opens the database named by TEST_PG_DSN and applies the schema.
// Tests that need Postgres are skipped when the variable is unset so the
// suite stays runnable without infrastructure.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set; skipping integration test")
	}
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.Ping(); err != nil {
		t.Fatalf("ping test db: %v", err)
	}
	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		// Each test starts from empty tables. Order does not matter since
		// messages cascade with their chat.
		_, _ = conn.Exec(`TRUNCATE chats, users, oauth_tokens, kv CASCADE`)
		conn.Close()
	})
	if _, err := conn.Exec(`TRUNCATE chats, users, oauth_tokens, kv CASCADE`); err != nil {
		t.Fatalf("truncate test db: %v", err)
	}
	return conn
}
