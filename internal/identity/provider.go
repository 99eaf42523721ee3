// Package identity defines the contract between the service layer and a remote
// identity provider.
//
// The service never talks HTTP itself. It holds a Provider, and a concrete
// backend (see the keycloak subpackage) translates each call into the remote
// admin API. Every failure a Provider returns is an *apperror.AppError.
package identity

import (
	"context"

	"github.com/sakif/identity-facade/internal/model"
)

// Provider abstracts user management against a remote identity service.
//
// Operations a backend does not implement return apperror.NotSupported.
type Provider interface {
	// RetrieveAuthToken obtains an admin bearer token using the configured
	// service credentials.
	RetrieveAuthToken(ctx context.Context) (string, error)

	// SignupUser creates user remotely and returns the id the provider assigned.
	SignupUser(ctx context.Context, user *model.User) (string, error)

	LoginUser(ctx context.Context, email model.Email, password model.Password) (*model.User, error)
	LogoutUser(ctx context.Context, userID string) error

	// DeleteUser removes the account with the given remote id.
	DeleteUser(ctx context.Context, userID string) error

	// GetUserID looks up the remote id registered for email. The bool is false
	// when no account matches; that case is not an error.
	GetUserID(ctx context.Context, email model.Email) (string, bool, error)

	UpdateUser(ctx context.Context, update model.UserUpdate) error
}
