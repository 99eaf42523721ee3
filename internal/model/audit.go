package model

import "time"

// Operation names an identity operation recorded in the audit trail.
type Operation string

const (
	OpSignup     Operation = "signup"
	OpGetUserID  Operation = "get_user_id"
	OpDeleteUser Operation = "delete_user"
)

// AuditEvent is the only identity-related state persisted locally: one row per
// handled operation.
//
// Subject holds the remote user id when one is known. Emails and passwords are
// never written here.
type AuditEvent struct {
	ID        string    `json:"id"        db:"id"`
	Operation Operation `json:"operation" db:"operation"`
	Subject   string    `json:"subject"   db:"subject"`
	RequestID string    `json:"requestId" db:"request_id"`
	Outcome   string    `json:"outcome"   db:"outcome"` // "ok" or an apperror.Kind
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// OutcomeOK marks a successful operation.
const OutcomeOK = "ok"
