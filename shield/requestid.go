package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/mcmappings/idgen"
	"github.com/hazyhaar/mcmappings/kit"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

var newRequestID = idgen.NanoID(12)

// RequestID reuses a well-formed incoming X-Request-ID or generates one, and
// stores it with kit.WithRequestID. A logger tagged with the ID is stored
// under LoggerKey.
func RequestID(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if !validRequestID(id) {
				id = newRequestID()
			}
			w.Header().Set(RequestIDHeader, id)

			ctx := kit.WithRequestID(r.Context(), id)
			ctx = kit.WithTransport(ctx, kit.TransportHTTP)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)
			ctx = context.WithValue(ctx, LoggerKey, logger)
			logger.Debug("request")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validRequestID accepts short printable IDs; anything else is replaced so
// it cannot be used to inject into logs.
func validRequestID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
