// Package db opens the database connection behind the sql skill. The driver
// stack is libSQL with the pure-Go SQLite driver handling local file: URLs,
// so a local skillbox.db and a remote Turso instance share one code path.
package db

import (
	"database/sql"
	"fmt"

	// Registers "libsql" with database/sql. Handles remote URLs
	// (libsql://, https://, wss://) and delegates file: URLs to the
	// sqlite driver below.
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// DefaultURL is the local database used when none is configured.
const DefaultURL = "file:skillbox.db"

// driverName is a variable so tests can exercise the open-failure path.
var driverName = "libsql"

// Connect opens a database connection and verifies it with a ping.
//
// Supported URL schemes:
//
//	Local file:   "file:path/to/db.db"
//	Remote Turso: "libsql://[db-name].turso.io?authToken=[token]"
func Connect(dbURL string) (*sql.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database URL must not be empty")
	}

	conn, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open libsql: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}
