// Package model defines the data structures used throughout the application.
//
// CREDENTIAL VALUE TYPES:
// Email and Password are not plain strings. Both wrap a Secret, which stores
// the raw value in an unexported field and renders as [REDACTED] through every
// formatting path Go offers (fmt verbs, slog, encoding/json). Reading the raw
// value takes an explicit Expose() call, so leaking a credential into a log
// line is something you can grep for.
package model

import (
	"fmt"
	"log/slog"
)

const redacted = "[REDACTED]"

// Secret is an opaque string.
//
// Secret is comparable, so two secrets holding the same value are == and
// hash to the same map bucket.
type Secret struct {
	value string
}

// NewSecret wraps raw.
func NewSecret(raw string) Secret {
	return Secret{value: raw}
}

// Expose returns the raw value. Call it only at the point where the value
// leaves the process (remote provider, outbound mail).
func (s Secret) Expose() string {
	return s.value
}

// IsZero reports whether the secret is empty.
func (s Secret) IsZero() bool {
	return s.value == ""
}

func (s Secret) String() string   { return redacted }
func (s Secret) GoString() string { return redacted }

// Format implements fmt.Formatter so %v, %+v, %#v, %s, %q and friends all
// print the placeholder.
func (s Secret) Format(f fmt.State, verb rune) {
	formatRedacted(f, verb)
}

// LogValue implements slog.LogValuer.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// MarshalJSON never emits the raw value. Outbound payloads call Expose()
// explicitly instead.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

func formatRedacted(f fmt.State, verb rune) {
	if verb == 'q' {
		fmt.Fprintf(f, "%q", redacted)
		return
	}
	fmt.Fprint(f, redacted)
}
