package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError, so success bodies and
// the error envelope look the same on every route:
//
//	{"code": "UserNotFound", "message": "The user was not found", "request_id": "..."}
//
// writeError is the transport boundary: it is the only place that turns an
// apperror kind into an HTTP status, and the only place an internal error's
// stack trace is logged.

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/identity-facade/internal/apperror"
	"github.com/sakif/identity-facade/internal/requestid"
)

// writeJSON sends data with the given status. Headers must be set before
// WriteHeader; anything set afterwards is silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already on the wire; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps err to the envelope and logs it. Internal errors include
// their captured stack in the log line, never in the body.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	reqID := requestid.From(r.Context())
	status, body := MapError(err, reqID)

	attrs := []any{
		slog.String("request_id", reqID),
		slog.String("code", body.Code),
		slog.Int("status", status),
	}
	if status >= http.StatusInternalServerError {
		if trace := apperror.Internal(err).Trace(); trace != "" {
			attrs = append(attrs, slog.String("trace", trace))
		}
		logger.Error(err.Error(), attrs...)
	} else {
		logger.Warn(err.Error(), attrs...)
	}

	writeJSON(w, status, body)
}

// maxBodyBytes caps request bodies; every request is a handful of short
// strings.
const maxBodyBytes = 64 << 10

// decodeJSON reads a JSON body into dst. On failure it writes an InvalidInput
// response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, logger, apperror.InvalidInput("invalid JSON body: "+err.Error()))
		return false
	}
	return true
}

// WriteError renders err as the error envelope. Middleware outside this
// package uses it so panics share the same body as handler failures.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	writeError(w, r, logger, err)
}

// NotFound answers requests that match no route.
func NotFound(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRouteError(w, r, logger, http.StatusNotFound, "NotFound",
			fmt.Sprintf("No route for %s %s", r.Method, r.URL.Path))
	}
}

// MethodNotAllowed answers requests whose path matches but method does not.
func MethodNotAllowed(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRouteError(w, r, logger, http.StatusMethodNotAllowed, "MethodNotAllowed",
			fmt.Sprintf("Method %s is not allowed on %s", r.Method, r.URL.Path))
	}
}

// writeRouteError covers routing failures, which happen before any operation
// runs and so sit outside the apperror taxonomy.
func writeRouteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, code, message string) {
	reqID := requestid.From(r.Context())
	logger.Debug(message, slog.String("request_id", reqID), slog.Int("status", status))
	writeJSON(w, status, ErrorBody{Code: code, Message: message, RequestID: reqID})
}
