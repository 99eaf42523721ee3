// Package sqlite implements repository.AuditRepository on SQLite.
//
// WHY SQLITE?
// It is the development and test store: no server to run, a single file on
// disk, or ":memory:" for tests. Production deployments point DATABASE_URL at
// Postgres instead (see the postgres package); both stores share the same
// audit_events shape.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary still
// builds without a C compiler.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/identity-facade/internal/apperror"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath, applies pragmas and creates the schema.
//
// dbPath examples:
//   - "data/identity.db" → file-based database
//   - ":memory:"         → in-memory database, lost on Close
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets the health check read while an audit insert is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping runs SELECT 1, which unlike sql.DB.Ping also proves the file is
// readable.
func (db *DB) Ping(ctx context.Context) error {
	var one int
	if err := db.conn.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return apperror.UnknownDatabase(fmt.Sprintf("sqlite: ping: %v", err))
	}
	return nil
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent;
// the Postgres store uses versioned golang-migrate files for the same table.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS audit_events (
			id         TEXT PRIMARY KEY,
			operation  TEXT NOT NULL,
			subject    TEXT NOT NULL DEFAULT '',
			request_id TEXT NOT NULL DEFAULT '',
			outcome    TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_audit_events_created_at ON audit_events(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating audit_events table: %w", err)
	}
	return nil
}
