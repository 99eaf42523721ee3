package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/identity-facade/internal/apperror"
	"github.com/sakif/identity-facade/internal/model"
	"github.com/sakif/identity-facade/internal/repository"
)

// compile-time check that *DB implements repository.AuditRepository
var _ repository.AuditRepository = (*DB)(nil)

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
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID,
		string(event.Operation),
		event.Subject,
		event.RequestID,
		event.Outcome,
		event.CreatedAt,
	)
	if err != nil {
		return apperror.UnknownDatabase(fmt.Sprintf("sqlite: recording audit event: %v", err))
	}
	return nil
}

// List returns events newest first.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.AuditEvent, error) {
	opts = opts.Normalize()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, operation, subject, request_id, outcome, created_at
		 FROM audit_events
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		opts.Limit,
		opts.Offset,
	)
	if err != nil {
		return nil, apperror.UnknownDatabase(fmt.Sprintf("sqlite: listing audit events: %v", err))
	}
	defer rows.Close()

	// Non-nil so an empty page encodes as [] rather than null.
	events := make([]model.AuditEvent, 0)
	for rows.Next() {
		var e model.AuditEvent
		var op string
		if err := rows.Scan(&e.ID, &op, &e.Subject, &e.RequestID, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, apperror.UnknownDatabase(fmt.Sprintf("sqlite: scanning audit event: %v", err))
		}
		e.Operation = model.Operation(op)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.UnknownDatabase(fmt.Sprintf("sqlite: iterating audit events: %v", err))
	}

	return events, nil
}
