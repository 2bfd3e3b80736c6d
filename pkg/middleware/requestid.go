package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/platinummonkey/hub/pkg/observability"
)

// RequestID assigns a UUID to every request, stores it in the request
// context, and echoes it in the X-Request-ID response header. An inbound
// X-Request-ID is honored so callers can propagate their own correlation IDs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := observability.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
