package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/identity-facade/internal/apperror"
	"github.com/sakif/identity-facade/internal/handler"
	"github.com/sakif/identity-facade/internal/requestid"
	"github.com/sakif/identity-facade/internal/service"
)

// MockIdentityService records the last request and returns canned results.
type MockIdentityService struct {
	SignupReq  service.SignupRequest
	LookupReq  service.GetUserIDRequest
	DeleteReq  service.DeleteUserRequest
	SignupRes  *service.SignupResponse
	LookupRes  *service.GetUserIDResponse
	DeleteRes  *service.DeleteUserResponse
	ReturnErr  error
	CallsCount int
}

func (m *MockIdentityService) Signup(_ context.Context, req service.SignupRequest) (*service.SignupResponse, error) {
	m.CallsCount++
	m.SignupReq = req
	return m.SignupRes, m.ReturnErr
}

func (m *MockIdentityService) GetUserID(_ context.Context, req service.GetUserIDRequest) (*service.GetUserIDResponse, error) {
	m.CallsCount++
	m.LookupReq = req
	return m.LookupRes, m.ReturnErr
}

func (m *MockIdentityService) DeleteUser(_ context.Context, req service.DeleteUserRequest) (*service.DeleteUserResponse, error) {
	m.CallsCount++
	m.DeleteReq = req
	return m.DeleteRes, m.ReturnErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func post(t *testing.T, fn http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(requestid.With(req.Context(), "req-abc"))
	rr := httptest.NewRecorder()
	fn(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorBody {
	t.Helper()
	var body handler.ErrorBody
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestIdentityHandler_HandleSignup(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		mock := &MockIdentityService{SignupRes: &service.SignupResponse{KeycloakID: "kc-1", Message: service.MsgUserCreated}}
		h := handler.NewIdentityHandler(mock, testLogger())

		rr := post(t, h.HandleSignup, `{"email":"a@example.com","password":"Password1!","first_name":"A","last_name":"B"}`)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var res map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "kc-1", res["keycloak_id"])
		assert.Equal(t, service.MsgUserCreated, res["message"])

		assert.Equal(t, "a@example.com", mock.SignupReq.Email)
		assert.Equal(t, "A", mock.SignupReq.FirstName)
		assert.Equal(t, "B", mock.SignupReq.LastName)
	})

	t.Run("conflict", func(t *testing.T) {
		mock := &MockIdentityService{ReturnErr: apperror.UserExists()}
		h := handler.NewIdentityHandler(mock, testLogger())

		rr := post(t, h.HandleSignup, `{"email":"a@example.com","password":"Password1!","first_name":"A","last_name":"B"}`)

		assert.Equal(t, http.StatusConflict, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "UserExists", body.Code)
		assert.Equal(t, "req-abc", body.RequestID)
	})

	t.Run("malformed json", func(t *testing.T) {
		mock := &MockIdentityService{}
		h := handler.NewIdentityHandler(mock, testLogger())

		rr := post(t, h.HandleSignup, `{"email":`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "InvalidInput", decodeError(t, rr).Code)
		assert.Zero(t, mock.CallsCount)
	})
}

func TestIdentityHandler_HandleGetUserID(t *testing.T) {
	tests := []struct {
		name       string
		mock       *MockIdentityService
		wantStatus int
		wantCode   string
	}{
		{"found", &MockIdentityService{LookupRes: &service.GetUserIDResponse{UserID: "u-1"}}, http.StatusOK, ""},
		{"not found", &MockIdentityService{ReturnErr: apperror.UserNotFound()}, http.StatusNotFound, "UserNotFound"},
		{"invalid email", &MockIdentityService{ReturnErr: apperror.InvalidEmail()}, http.StatusBadRequest, "InvalidEmail"},
		{"upstream", &MockIdentityService{ReturnErr: apperror.Upstream("Failed to get user from Keycloak: 500")}, http.StatusBadGateway, "UpstreamError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewIdentityHandler(tt.mock, testLogger())

			rr := post(t, h.HandleGetUserID, `{"email":"dana@example.com"}`)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "dana@example.com", tt.mock.LookupReq.Email)

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rr).Code)
				return
			}
			var res map[string]string
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
			assert.Equal(t, "u-1", res["user_id"])
		})
	}
}

func TestIdentityHandler_HandleDeleteUser(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		mock := &MockIdentityService{DeleteRes: &service.DeleteUserResponse{UserID: "u-1", Message: service.MsgUserDeleted}}
		h := handler.NewIdentityHandler(mock, testLogger())

		rr := post(t, h.HandleDeleteUser, `{"user_id":"u-1"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		var res map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "u-1", res["user_id"])
		assert.Equal(t, service.MsgUserDeleted, res["message"])
		assert.Equal(t, "u-1", mock.DeleteReq.UserID)
	})

	t.Run("internal error hides trace", func(t *testing.T) {
		mock := &MockIdentityService{ReturnErr: apperror.NotSupported("keycloak: delete")}
		h := handler.NewIdentityHandler(mock, testLogger())

		rr := post(t, h.HandleDeleteUser, `{"user_id":"u-1"}`)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "InternalServerError", body.Code)
		assert.NotContains(t, body.Message, ".go:")
	})
}
