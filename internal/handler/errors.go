package handler

import (
	"errors"
	"net/http"

	"github.com/sakif/identity-facade/internal/apperror"
)

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// errorMapping is one row of the kind → transport table. A nil message means
// the error's Detail is used.
type errorMapping struct {
	status  int
	code    string
	message *string
}

func static(s string) *string { return &s }

// errorTable must cover every apperror.Kind; errors_test.go iterates
// apperror.Kinds() to enforce it.
var errorTable = map[apperror.Kind]errorMapping{
	apperror.KindInvalidEmail: {http.StatusBadRequest, "InvalidEmail",
		static("The provided email is invalid")},
	apperror.KindInvalidPassword: {http.StatusBadRequest, "InvalidPassword",
		static("Password must be at least 8 characters long with at least one number and one special character")},
	apperror.KindInvalidInput: {http.StatusBadRequest, "InvalidInput", nil},

	apperror.KindUnauthorized: {http.StatusUnauthorized, "Unauthorized",
		static("Authentication failed")},
	apperror.KindInvalidAdminCredentials: {http.StatusForbidden, "InvalidAdminCredentials",
		static("Admin credentials are invalid")},
	apperror.KindUserExists: {http.StatusConflict, "UserExists",
		static("The user already exists")},
	apperror.KindUserNotFound: {http.StatusNotFound, "UserNotFound",
		static("The user was not found")},
	apperror.KindUpstream: {http.StatusBadGateway, "UpstreamError", nil},
	apperror.KindNetwork:  {http.StatusBadGateway, "NetworkError", nil},

	apperror.KindPostgres:        {http.StatusInternalServerError, "DatabaseError", nil},
	apperror.KindUnknownDatabase: {http.StatusInternalServerError, "UnknownDatabaseError", nil},

	apperror.KindEmailClient: {http.StatusBadGateway, "EmailClientError", nil},

	apperror.KindInternal: {http.StatusInternalServerError, "InternalServerError", nil},
}

// MapError translates err into a status code and envelope. It is total:
// errors outside the taxonomy are treated as Internal, with their message as
// the detail.
func MapError(err error, requestID string) (int, ErrorBody) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(err)
	}

	m, ok := errorTable[appErr.Kind]
	if !ok {
		m = errorTable[apperror.KindInternal]
	}

	message := appErr.Detail
	if m.message != nil {
		message = *m.message
	}

	return m.status, ErrorBody{
		Code:      m.code,
		Message:   message,
		RequestID: requestID,
	}
}
