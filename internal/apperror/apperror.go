// Package apperror defines the closed set of failures every identity operation
// can return.
//
// TAXONOMY:
// Each *AppError carries a Kind. Kinds are grouped into four categories, each
// with its own sentinel so callers can branch with errors.Is:
//
//	ErrValidation   → the caller sent bad input, nothing left the process
//	ErrAuthProvider → the remote identity service refused or misbehaved
//	ErrDatabase     → the local auxiliary store failed
//	ErrEmailClient  → the outbound mail relay refused or was unreachable
//	ErrInternal     → anything unanticipated (the only kind with an opaque cause)
//
// The package knows nothing about HTTP. The handler package translates kinds
// into status codes and machine codes.
package apperror

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrAuthProvider = errors.New("auth provider error")
	ErrDatabase     = errors.New("database error")
	ErrEmailClient  = errors.New("email client error")
	ErrInternal     = errors.New("internal error")

	// ErrNotSupported is the cause of the Internal error returned by provider
	// operations a backend does not implement.
	ErrNotSupported = errors.New("operation not supported")
)

// Kind identifies one variant of the taxonomy.
type Kind string

// A new Kind must also be listed in Kinds() and given a Category; the
// transport table in the handler package is checked against Kinds().
const (
	KindInvalidEmail    Kind = "InvalidEmail"
	KindInvalidPassword Kind = "InvalidPassword"
	KindInvalidInput    Kind = "InvalidInput"

	KindUnauthorized            Kind = "Unauthorized"
	KindInvalidAdminCredentials Kind = "InvalidAdminCredentials"
	KindUserExists              Kind = "UserExists"
	KindUserNotFound            Kind = "UserNotFound"
	KindUpstream                Kind = "Upstream"
	KindNetwork                 Kind = "Network"

	KindPostgres        Kind = "Postgres"
	KindUnknownDatabase Kind = "UnknownDatabase"

	KindEmailClient Kind = "EmailClient"

	KindInternal Kind = "Internal"
)

// Kinds returns every variant. Tests use it to prove mappers are exhaustive,
// so a new Kind must be appended here.
func Kinds() []Kind {
	return []Kind{
		KindInvalidEmail,
		KindInvalidPassword,
		KindInvalidInput,
		KindUnauthorized,
		KindInvalidAdminCredentials,
		KindUserExists,
		KindUserNotFound,
		KindUpstream,
		KindNetwork,
		KindPostgres,
		KindUnknownDatabase,
		KindEmailClient,
		KindInternal,
	}
}

// Category returns the sentinel of the category the kind belongs to.
func (k Kind) Category() error {
	switch k {
	case KindInvalidEmail, KindInvalidPassword, KindInvalidInput:
		return ErrValidation
	case KindUnauthorized, KindInvalidAdminCredentials, KindUserExists,
		KindUserNotFound, KindUpstream, KindNetwork:
		return ErrAuthProvider
	case KindPostgres, KindUnknownDatabase:
		return ErrDatabase
	case KindEmailClient:
		return ErrEmailClient
	default:
		return ErrInternal
	}
}

// AppError is the umbrella error returned by every core operation.
type AppError struct {
	Kind   Kind   // which variant of the taxonomy
	Detail string // variant payload (reason, upstream status, driver message)
	cause  error  // only set for KindInternal
}

func (e *AppError) Error() string {
	switch e.Kind {
	case KindInvalidEmail:
		return "Invalid email"
	case KindInvalidPassword:
		return "Invalid password"
	case KindInvalidInput:
		return "Invalid input: " + e.Detail
	case KindUnauthorized:
		return "Unauthorized"
	case KindInvalidAdminCredentials:
		return "Invalid admin credentials"
	case KindUserExists:
		return "User already exists"
	case KindUserNotFound:
		return "User not found"
	case KindUpstream:
		return "Upstream auth provider error: " + e.Detail
	case KindNetwork:
		return "Network error: " + e.Detail
	case KindPostgres:
		return "Postgres error: " + e.Detail
	case KindUnknownDatabase:
		return "Unknown error: " + e.Detail
	case KindEmailClient:
		return "Email client error: " + e.Detail
	default:
		return "Internal server error"
	}
}

// Unwrap exposes both the category sentinel and, for internal errors, the
// original cause. errors.Is(err, ErrAuthProvider) and errors.Is(err, io.EOF)
// both work on the same value.
func (e *AppError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind.Category(), e.cause}
	}
	return []error{e.Kind.Category()}
}

// Is matches another *AppError of the same Kind, so
// errors.Is(err, apperror.UserExists()) reads naturally at call sites.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Trace returns the stack captured when an internal error was created, or ""
// for every other kind. It is meant for operator logs only.
func (e *AppError) Trace() string {
	if e.cause == nil {
		return ""
	}
	return fmt.Sprintf("%+v", e.cause)
}

// KindOf returns the Kind of the first *AppError in err's chain. Errors from
// outside the taxonomy are reported as KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func InvalidEmail() *AppError    { return &AppError{Kind: KindInvalidEmail} }
func InvalidPassword() *AppError { return &AppError{Kind: KindInvalidPassword} }

func InvalidInput(reason string) *AppError {
	return &AppError{Kind: KindInvalidInput, Detail: reason}
}

func Unauthorized() *AppError            { return &AppError{Kind: KindUnauthorized} }
func InvalidAdminCredentials() *AppError { return &AppError{Kind: KindInvalidAdminCredentials} }
func UserExists() *AppError              { return &AppError{Kind: KindUserExists} }
func UserNotFound() *AppError            { return &AppError{Kind: KindUserNotFound} }

// Upstream reports a failure attributable to the provider's behaviour or
// protocol (bad status on a read, missing fields, unusable responses).
func Upstream(format string, args ...any) *AppError {
	return &AppError{Kind: KindUpstream, Detail: fmt.Sprintf(format, args...)}
}

// Network reports a failed remote mutation or an unreadable response.
func Network(format string, args ...any) *AppError {
	return &AppError{Kind: KindNetwork, Detail: fmt.Sprintf(format, args...)}
}

func Postgres(message string) *AppError {
	return &AppError{Kind: KindPostgres, Detail: message}
}

func UnknownDatabase(message string) *AppError {
	return &AppError{Kind: KindUnknownDatabase, Detail: message}
}

// EmailClient reports a failure to build or relay an outbound message.
func EmailClient(format string, args ...any) *AppError {
	return &AppError{Kind: KindEmailClient, Detail: fmt.Sprintf(format, args...)}
}

// Internal wraps an unanticipated failure and captures the current stack.
// If err already is an *AppError it is returned unchanged.
func Internal(err error) *AppError {
	if err == nil {
		err = errors.New("unknown failure")
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Kind:   KindInternal,
		Detail: err.Error(),
		cause:  pkgerrors.WithStack(err),
	}
}

// NotSupported is returned by provider operations that a backend deliberately
// leaves unimplemented.
func NotSupported(operation string) *AppError {
	return Internal(fmt.Errorf("%s: %w", operation, ErrNotSupported))
}
