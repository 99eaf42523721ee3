package model

import (
	"fmt"
	"log/slog"
	"unicode"

	"github.com/sakif/identity-facade/internal/apperror"
)

// MinPasswordLength is measured in bytes of the UTF-8 encoding.
const MinPasswordLength = 8

// Password is a plaintext password on its way to the identity provider.
// It is never hashed or stored here; the provider owns credential storage.
type Password struct {
	inner Secret
}

// NewPassword validates raw and wraps it. Returns apperror.InvalidPassword
// unless raw is at least MinPasswordLength bytes, contains an ASCII digit and
// contains a rune that is neither a letter nor a number.
func NewPassword(raw string) (Password, error) {
	p := Password{inner: NewSecret(raw)}
	if err := p.Validate(); err != nil {
		return Password{}, err
	}
	return p, nil
}

// Validate re-runs the strength rules.
func (p Password) Validate() error {
	if !isStrongPassword(p.inner.Expose()) {
		return apperror.InvalidPassword()
	}
	return nil
}

func (p Password) Secret() Secret { return p.inner }
func (p Password) Expose() string { return p.inner.Expose() }
func (p Password) Equal(other Password) bool { return p.inner == other.inner }
func (p Password) String() string { return redacted }
func (p Password) GoString() string { return redacted }
func (p Password) Format(f fmt.State, verb rune) { formatRedacted(f, verb) }
func (p Password) LogValue() slog.Value { return p.inner.LogValue() }
func (p Password) MarshalJSON() ([]byte, error) { return p.inner.MarshalJSON() }

func isStrongPassword(raw string) bool {
	if len(raw) < MinPasswordLength {
		return false
	}

	var hasDigit, hasSpecial bool
	// range over a string yields runes, so multi-byte symbols and emoji are
	// inspected as a whole.
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			hasDigit = true
		}
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			hasSpecial = true
		}
	}
	return hasDigit && hasSpecial
}
