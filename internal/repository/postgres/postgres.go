// Package postgres implements repository.AuditRepository on Postgres through
// the pgx database/sql driver.
//
// The schema is owned by versioned migrations under migrations/, applied by
// Migrate (or cmd/migrate). Open does not create tables.
//
// Driver failures carrying a SQLSTATE (*pgconn.PgError) become
// apperror.Postgres; everything else (dial errors, closed pools, scan
// failures) becomes apperror.UnknownDatabase.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/xid"

	"github.com/sakif/identity-facade/internal/apperror"
	"github.com/sakif/identity-facade/internal/model"
	"github.com/sakif/identity-facade/internal/repository"

	// Registers the "pgx" driver with database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// compile-time check that *DB implements repository.AuditRepository
var _ repository.AuditRepository = (*DB)(nil)

type DB struct {
	conn *sql.DB
}

// Open connects using dsn and pings once. Caller must call Close.
func Open(dsn string) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres: DATABASE_URL is not set")
	}
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}
	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	var one int
	if err := db.conn.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return mapError("ping", err)
	}
	return nil
}

// Record inserts event. ID (xid) and CreatedAt are filled in when empty.
func (db *DB) Record(ctx context.Context, event *model.AuditEvent) error {
	if event.ID == "" {
		event.ID = xid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO audit_events (id, operation, subject, request_id, outcome, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID,
		string(event.Operation),
		event.Subject,
		event.RequestID,
		event.Outcome,
		event.CreatedAt,
	)
	if err != nil {
		return mapError("recording audit event", err)
	}
	return nil
}

func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.AuditEvent, error) {
	opts = opts.Normalize()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, operation, subject, request_id, outcome, created_at
		 FROM audit_events
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		opts.Limit,
		opts.Offset,
	)
	if err != nil {
		return nil, mapError("listing audit events", err)
	}
	defer rows.Close()

	events := make([]model.AuditEvent, 0)
	for rows.Next() {
		var e model.AuditEvent
		var op string
		if err := rows.Scan(&e.ID, &op, &e.Subject, &e.RequestID, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, mapError("scanning audit event", err)
		}
		e.Operation = model.Operation(op)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterating audit events", err)
	}
	return events, nil
}

// mapError sorts a driver error into the database kinds.
func mapError(action string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return apperror.Postgres(fmt.Sprintf("%s: %s (SQLSTATE %s)", action, pgErr.Message, pgErr.Code))
	}
	return apperror.UnknownDatabase(fmt.Sprintf("postgres: %s: %v", action, err))
}
