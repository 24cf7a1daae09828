package repository

import (
	"database/sql"
	"testing"

	_ "github.com/glebarez/go-sqlite"
	"github.com/stretchr/testify/require"
)

// openTestDB returns an isolated in-memory database with the full
// schema applied. Each test gets its own database, so tests can run in
// parallel without seeing each other's rows.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// Single connection: an in-memory sqlite database exists per
	// connection, and the pool would otherwise hand tests a fresh empty
	// database mid-test.
	db.SetMaxOpenConns(1)

	for _, ddl := range []string{
		`CREATE TABLE users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL,
			is_active     BOOLEAN NOT NULL DEFAULT 1,
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL
		)`,
		`CREATE TABLE refresh_tokens (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    INTEGER NOT NULL,
			token_hash TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE bookings (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			mentor_id       INTEGER NOT NULL,
			mentee_id       INTEGER NOT NULL,
			session_date    DATETIME NOT NULL,
			slot            TEXT NOT NULL,
			amount          INTEGER NOT NULL,
			order_id        TEXT NOT NULL,
			payment_id      TEXT,
			signature       TEXT,
			status          TEXT NOT NULL,
			chat_id         INTEGER,
			chat_active     BOOLEAN NOT NULL DEFAULT 1,
			video_call_link TEXT,
			created_at      DATETIME NOT NULL,
			updated_at      DATETIME NOT NULL
		)`,
		`CREATE TABLE chats (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			booking_id INTEGER NOT NULL UNIQUE,
			mentor_id  INTEGER NOT NULL,
			mentee_id  INTEGER NOT NULL,
			is_active  BOOLEAN NOT NULL DEFAULT 1,
			expires_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE messages (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id    INTEGER NOT NULL,
			sender_id  INTEGER NOT NULL,
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
	} {
		_, err := db.Exec(ddl)
		require.NoError(t, err)
	}
	return db
}
