package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/identity-facade/internal/service"
)

// IdentityService is the subset of service.IdentityService the handlers use.
// Tests substitute a fake.
type IdentityService interface {
	Signup(ctx context.Context, req service.SignupRequest) (*service.SignupResponse, error)
	GetUserID(ctx context.Context, req service.GetUserIDRequest) (*service.GetUserIDResponse, error)
	DeleteUser(ctx context.Context, req service.DeleteUserRequest) (*service.DeleteUserResponse, error)
}

// IdentityHandler serves the /api/auth routes.
type IdentityHandler struct {
	svc    IdentityService
	logger *slog.Logger
}

func NewIdentityHandler(svc IdentityService, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{svc: svc, logger: logger}
}

// HandleSignup handles POST /api/auth/signup.
//
//	{"email", "password", "first_name", "last_name"} → 201 {"keycloak_id", "message"}
func (h *IdentityHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	resp, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleGetUserID handles POST /api/auth/get_user_id.
//
//	{"email"} → 200 {"user_id"}
func (h *IdentityHandler) HandleGetUserID(w http.ResponseWriter, r *http.Request) {
	var req service.GetUserIDRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	resp, err := h.svc.GetUserID(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDeleteUser handles POST /api/auth/delete_user.
//
//	{"user_id"} → 200 {"user_id", "message"}
func (h *IdentityHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	var req service.DeleteUserRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	resp, err := h.svc.DeleteUser(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
