package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/identity-facade/internal/apperror"
	"github.com/sakif/identity-facade/internal/handler"
)

// Recoverer turns a handler panic into an InternalServerError envelope
// carrying the request id. The stack captured at recovery is logged by the
// error writer, never sent. http.ErrAbortHandler is re-panicked so net/http
// can abort the connection as intended.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				handler.WriteError(w, r, logger, apperror.Internal(fmt.Errorf("panic: %v", rec)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
