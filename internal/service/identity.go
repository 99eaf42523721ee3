// Package service contains the business logic of the identity facade.
//
// THE LAYERS:
//
//	Handler (HTTP)        → decodes JSON, maps errors to status codes
//	Service (this package) → validates input, calls the provider, audits
//	Provider / Repository  → remote identity service, local audit store
//
// Validation always happens here, before any remote call, so every caller
// (HTTP handler, CLI, test) gets the same rules. The service returns
// *apperror.AppError values and knows nothing about HTTP.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/identity-facade/internal/apperror"
	"github.com/sakif/identity-facade/internal/identity"
	"github.com/sakif/identity-facade/internal/model"
	"github.com/sakif/identity-facade/internal/repository"
	"github.com/sakif/identity-facade/internal/requestid"
)

// Messages returned in successful responses.
const (
	MsgUserCreated = "User created successfully"
	MsgUserDeleted = "User deleted successfully"
)

type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type SignupResponse struct {
	KeycloakID string `json:"keycloak_id"`
	Message    string `json:"message"`
}

type GetUserIDRequest struct {
	Email string `json:"email"`
}

type GetUserIDResponse struct {
	UserID string `json:"user_id"`
}

type DeleteUserRequest struct {
	UserID string `json:"user_id"`
}

type DeleteUserResponse struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// IdentityService validates requests and forwards them to the provider.
//
// audit may be nil, in which case nothing is recorded.
type IdentityService struct {
	provider *identity.Guarded
	audit    repository.AuditRepository
	logger   *slog.Logger
}

func NewIdentityService(provider *identity.Guarded, audit repository.AuditRepository, logger *slog.Logger) *IdentityService {
	return &IdentityService{
		provider: provider,
		audit:    audit,
		logger:   logger,
	}
}

// Signup validates the request and creates the account remotely.
//
// Checks run in a fixed order and stop at the first failure: email, password,
// then first and last name. The username is the email address.
func (s *IdentityService) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	user, err := newSignupUser(req)
	if err != nil {
		s.logger.Warn("signup rejected", slog.String("kind", string(apperror.KindOf(err))))
		s.record(ctx, model.OpSignup, "", err)
		return nil, err
	}

	var id string
	err = s.provider.Write(ctx, func(ctx context.Context, p identity.Provider) error {
		var err error
		id, err = p.SignupUser(ctx, user)
		return err
	})
	s.record(ctx, model.OpSignup, id, err)
	if err != nil {
		s.logger.Error("signup failed", slog.String("kind", string(apperror.KindOf(err))), slog.Any("error", err))
		return nil, err
	}

	s.logger.Info("user signed up", slog.String("keycloak_id", id))
	return &SignupResponse{KeycloakID: id, Message: MsgUserCreated}, nil
}

func newSignupUser(req SignupRequest) (*model.User, error) {
	email, err := model.NewEmail(req.Email)
	if err != nil {
		return nil, err
	}
	password, err := model.NewPassword(req.Password)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return nil, apperror.InvalidInput("first_name is required")
	}
	if strings.TrimSpace(req.LastName) == "" {
		return nil, apperror.InvalidInput("last_name is required")
	}
	return model.NewUser(req.Email, email, password, req.FirstName, req.LastName, nil), nil
}

// GetUserID returns the remote id registered for an email address.
func (s *IdentityService) GetUserID(ctx context.Context, req GetUserIDRequest) (*GetUserIDResponse, error) {
	email, err := model.NewEmail(req.Email)
	if err != nil {
		s.record(ctx, model.OpGetUserID, "", err)
		return nil, err
	}

	var (
		id    string
		found bool
	)
	err = s.provider.Read(ctx, func(ctx context.Context, p identity.Provider) error {
		var err error
		id, found, err = p.GetUserID(ctx, email)
		return err
	})
	if err == nil && !found {
		err = apperror.UserNotFound()
	}
	s.record(ctx, model.OpGetUserID, id, err)
	if err != nil {
		s.logger.Warn("user lookup failed", slog.String("kind", string(apperror.KindOf(err))), slog.Any("error", err))
		return nil, err
	}

	return &GetUserIDResponse{UserID: id}, nil
}

// DeleteUser removes the account with the given remote id. An empty or
// whitespace-only id is rejected before any remote call.
func (s *IdentityService) DeleteUser(ctx context.Context, req DeleteUserRequest) (*DeleteUserResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		err := apperror.InvalidInput("user_id is required")
		s.record(ctx, model.OpDeleteUser, "", err)
		return nil, err
	}

	err := s.provider.Read(ctx, func(ctx context.Context, p identity.Provider) error {
		return p.DeleteUser(ctx, userID)
	})
	s.record(ctx, model.OpDeleteUser, userID, err)
	if err != nil {
		s.logger.Warn("user delete failed", slog.String("user_id", userID), slog.String("kind", string(apperror.KindOf(err))))
		return nil, err
	}

	s.logger.Info("user deleted", slog.String("user_id", userID))
	return &DeleteUserResponse{UserID: userID, Message: MsgUserDeleted}, nil
}

// record writes an audit event. Failures are logged and otherwise ignored;
// the audit trail never changes an operation's outcome.
func (s *IdentityService) record(ctx context.Context, op model.Operation, subject string, opErr error) {
	if s.audit == nil {
		return
	}

	outcome := model.OutcomeOK
	if opErr != nil {
		outcome = string(apperror.KindOf(opErr))
	}

	event := &model.AuditEvent{
		Operation: op,
		Subject:   subject,
		RequestID: requestid.From(ctx),
		Outcome:   outcome,
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Warn("audit record failed",
			slog.String("operation", string(op)),
			slog.Any("error", err),
		)
	}
}
