package apperror

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

// TABLE-DRIVEN TESTS:
// Each case names one constructor and the category it must report through
// errors.Is. Adding a Kind means adding a row here.
func TestErrorsIsCategory(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"InvalidEmail is a validation error", InvalidEmail(), ErrValidation},
		{"InvalidPassword is a validation error", InvalidPassword(), ErrValidation},
		{"InvalidInput is a validation error", InvalidInput("empty id"), ErrValidation},
		{"Unauthorized is a provider error", Unauthorized(), ErrAuthProvider},
		{"InvalidAdminCredentials is a provider error", InvalidAdminCredentials(), ErrAuthProvider},
		{"UserExists is a provider error", UserExists(), ErrAuthProvider},
		{"UserNotFound is a provider error", UserNotFound(), ErrAuthProvider},
		{"Upstream is a provider error", Upstream("status %d", 500), ErrAuthProvider},
		{"Network is a provider error", Network("status %d", 503), ErrAuthProvider},
		{"Postgres is a database error", Postgres("relation missing"), ErrDatabase},
		{"UnknownDatabase is a database error", UnknownDatabase("disk full"), ErrDatabase},
		{"EmailClient is an email client error", EmailClient("relay refused"), ErrEmailClient},
		{"Internal is an internal error", Internal(io.EOF), ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.target)
			}
		})
	}
}

func TestEveryKindHasExactlyOneCategory(t *testing.T) {
	categories := []error{ErrValidation, ErrAuthProvider, ErrDatabase, ErrEmailClient, ErrInternal}

	for _, kind := range Kinds() {
		err := &AppError{Kind: kind}
		matches := 0
		for _, c := range categories {
			if errors.Is(err, c) {
				matches++
			}
		}
		if matches != 1 {
			t.Errorf("kind %s matched %d categories, want 1", kind, matches)
		}
	}
}

func TestIsMatchesSameKind(t *testing.T) {
	wrapped := fmt.Errorf("service: signup: %w", UserExists())

	if !errors.Is(wrapped, UserExists()) {
		t.Error("wrapped UserExists should match UserExists()")
	}
	if errors.Is(wrapped, UserNotFound()) {
		t.Error("wrapped UserExists should not match UserNotFound()")
	}
	if errors.Is(Upstream("a"), Network("a")) {
		t.Error("Upstream should not match Network")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  *AppError
		want string
	}{
		{InvalidEmail(), "Invalid email"},
		{InvalidPassword(), "Invalid password"},
		{InvalidInput("user_id must not be empty"), "Invalid input: user_id must not be empty"},
		{UserExists(), "User already exists"},
		{UserNotFound(), "User not found"},
		{Upstream("status %d", 500), "Upstream auth provider error: status 500"},
		{Network("status %d", 503), "Network error: status 503"},
		{Postgres("boom"), "Postgres error: boom"},
		{UnknownDatabase("boom"), "Unknown error: boom"},
		{EmailClient("SMTP %d", 554), "Email client error: SMTP 554"},
		{Internal(io.EOF), "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInternalKeepsCauseAndTrace(t *testing.T) {
	err := Internal(io.ErrUnexpectedEOF)

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("Internal() should keep the original cause in the chain")
	}
	if err.Detail != io.ErrUnexpectedEOF.Error() {
		t.Errorf("Detail = %q, want %q", err.Detail, io.ErrUnexpectedEOF.Error())
	}
	// %+v on a pkg/errors stack prints frames including this test function.
	if !strings.Contains(err.Trace(), "TestInternalKeepsCauseAndTrace") {
		t.Errorf("Trace() should contain the capturing frame, got %q", err.Trace())
	}
	if UserExists().Trace() != "" {
		t.Error("non-internal errors should not carry a trace")
	}
}

func TestInternalDoesNotRewrapAppError(t *testing.T) {
	original := UserNotFound()
	if got := Internal(fmt.Errorf("wrapped: %w", original)); got != original {
		t.Errorf("Internal() = %v, want the original *AppError", got)
	}
}

func TestNotSupported(t *testing.T) {
	err := NotSupported("login_user")

	if err.Kind != KindInternal {
		t.Errorf("Kind = %s, want %s", err.Kind, KindInternal)
	}
	if !errors.Is(err, ErrNotSupported) {
		t.Error("NotSupported() should wrap ErrNotSupported")
	}
	if !strings.Contains(err.Detail, "login_user") {
		t.Errorf("Detail = %q, should name the operation", err.Detail)
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(fmt.Errorf("x: %w", InvalidEmail())); got != KindInvalidEmail {
		t.Errorf("KindOf() = %s, want %s", got, KindInvalidEmail)
	}
	if got := KindOf(io.EOF); got != KindInternal {
		t.Errorf("KindOf(io.EOF) = %s, want %s", got, KindInternal)
	}
}
