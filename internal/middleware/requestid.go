package middleware

import (
	"net/http"

	"github.com/sakif/identity-facade/internal/requestid"
)

// maxRequestIDLength caps client-supplied ids.
const maxRequestIDLength = 128

// RequestID reads X-Request-ID from the request, or generates a UUID v4 when
// it is absent or unusable, stores it in the request context and echoes it on
// the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestid.Header)
		if !validRequestID(id) {
			id = requestid.New()
		}

		w.Header().Set(requestid.Header, id)
		next.ServeHTTP(w, r.WithContext(requestid.With(r.Context(), id)))
	})
}

// validRequestID accepts non-empty printable ASCII up to maxRequestIDLength.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
