package model

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/identity-facade/internal/apperror"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance returns the shared validator. validator.New caches struct
// metadata, so one instance per process is the intended usage.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Email is a validated email address held as a Secret.
//
// The zero value is not a valid Email; obtain one through NewEmail.
type Email struct {
	inner Secret
}

// NewEmail validates raw and wraps it. Returns apperror.InvalidEmail when raw
// is not a well-formed address.
func NewEmail(raw string) (Email, error) {
	e := Email{inner: NewSecret(raw)}
	if err := e.Validate(); err != nil {
		return Email{}, err
	}
	return e, nil
}

// Validate re-runs the address check. Always nil for values built by NewEmail.
func (e Email) Validate() error {
	if !isValidEmail(e.inner.Expose()) {
		return apperror.InvalidEmail()
	}
	return nil
}

// Secret returns the wrapped secret.
func (e Email) Secret() Secret { return e.inner }

// Expose returns the raw address.
func (e Email) Expose() string { return e.inner.Expose() }

// Equal compares the underlying values. Email is also comparable with ==.
func (e Email) Equal(other Email) bool { return e.inner == other.inner }

func (e Email) String() string { return redacted }
func (e Email) GoString() string { return e.String() }
func (e Email) Format(f fmt.State, verb rune) { formatRedacted(f, verb) }
func (e Email) LogValue() slog.Value { return e.inner.LogValue() }
func (e Email) MarshalJSON() ([]byte, error) { return e.inner.MarshalJSON() }

func isValidEmail(raw string) bool {
	if raw == "" {
		return false
	}
	return validatorInstance().Var(raw, "email") == nil
}
