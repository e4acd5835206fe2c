package middleware

import (
	"log/slog"
	"net/http"

	"github.com/curetcore/velox-storefront/pkg/logger"
)

// RequestLogger stores a request-scoped logger in context, enriched
// with correlation_id, session_id, trace_id, and span_id. Handlers
// retrieve it with logger.FromContext(ctx).
//
// Mount after RequestLogging (correlation_id) and Tracing (span
// context).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if sid := r.Header.Get("X-Session-ID"); sid != "" {
				ctx = logger.WithSessionID(ctx, sid)
			}

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
