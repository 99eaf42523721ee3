// Package repository declares the storage contracts for local auxiliary data.
//
// User accounts live in the identity provider, not here. The only local state
// is the audit trail of identity operations. Implementations live in the
// sqlite and postgres subpackages and return apperror database kinds.
package repository

import (
	"context"

	"github.com/sakif/identity-facade/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// AuditRepository stores one event per handled identity operation.
type AuditRepository interface {
	// Record assigns event.ID and event.CreatedAt when empty and inserts it.
	Record(ctx context.Context, event *model.AuditEvent) error
	// List returns events newest first.
	List(ctx context.Context, opts ListOptions) ([]model.AuditEvent, error)
	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Normalize applies the default page size (20), caps it at 100 and clamps
// negative offsets to zero.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
