package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/identity-facade/internal/handler"
	"github.com/sakif/identity-facade/internal/model"
	"github.com/sakif/identity-facade/internal/repository"
	"github.com/sakif/identity-facade/internal/requestid"
	"github.com/sakif/identity-facade/internal/service"
)

type MockAuditService struct {
	Opts       repository.ListOptions
	Res        *service.AuditPage
	ReturnErr  error
	CallsCount int
}

func (m *MockAuditService) List(_ context.Context, opts repository.ListOptions) (*service.AuditPage, error) {
	m.CallsCount++
	m.Opts = opts
	return m.Res, m.ReturnErr
}

func get(t *testing.T, fn http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(requestid.With(req.Context(), "req-abc"))
	rr := httptest.NewRecorder()
	fn(rr, req)
	return rr
}

func TestAuditHandler_HandleList(t *testing.T) {
	t.Run("passes paging through", func(t *testing.T) {
		mock := &MockAuditService{Res: &service.AuditPage{
			Events: []model.AuditEvent{{ID: "e1", Operation: model.OpSignup, Outcome: model.OutcomeOK}},
			Limit:  5,
			Offset: 10,
		}}
		h := handler.NewAuditHandler(mock, testLogger())

		rr := get(t, h.HandleList, "/api/audit?limit=5&offset=10")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, repository.ListOptions{Limit: 5, Offset: 10}, mock.Opts)

		var page service.AuditPage
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&page))
		require.Len(t, page.Events, 1)
		assert.Equal(t, "e1", page.Events[0].ID)
		assert.Equal(t, 5, page.Limit)
	})

	t.Run("missing params are zero", func(t *testing.T) {
		mock := &MockAuditService{Res: &service.AuditPage{Events: []model.AuditEvent{}, Limit: 20}}
		h := handler.NewAuditHandler(mock, testLogger())

		rr := get(t, h.HandleList, "/api/audit")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, repository.ListOptions{}, mock.Opts)
		assert.Contains(t, rr.Body.String(), `"events":[]`)
	})

	for _, target := range []string{"/api/audit?limit=ten", "/api/audit?offset=1.5"} {
		t.Run("rejects "+target, func(t *testing.T) {
			mock := &MockAuditService{}
			h := handler.NewAuditHandler(mock, testLogger())

			rr := get(t, h.HandleList, target)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "InvalidInput", decodeError(t, rr).Code)
			assert.Zero(t, mock.CallsCount)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		mock := &MockAuditService{ReturnErr: errors.New("disk gone")}
		h := handler.NewAuditHandler(mock, testLogger())

		rr := get(t, h.HandleList, "/api/audit")

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "InternalServerError", decodeError(t, rr).Code)
	})
}

func TestRouteErrors(t *testing.T) {
	tests := []struct {
		name   string
		fn     http.HandlerFunc
		status int
		code   string
	}{
		{"not found", handler.NotFound(testLogger()), http.StatusNotFound, "NotFound"},
		{"method not allowed", handler.MethodNotAllowed(testLogger()), http.StatusMethodNotAllowed, "MethodNotAllowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, tt.fn, "/api/nowhere")

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			body := decodeError(t, rr)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, "req-abc", body.RequestID)
			assert.Contains(t, body.Message, "/api/nowhere")
		})
	}
}
