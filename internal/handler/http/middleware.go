package http

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const sessionKey contextKey = "storefront_session"

// session identifies who owns the pipelines touched by a request. The
// wishlist follows the customer when one is signed in; everything else
// is keyed by the browsing session.
type session struct {
	ID            string
	CustomerID    string
	Authenticated bool
}

// Owner is the wishlist owner key.
func (s session) Owner() string {
	if s.Authenticated {
		return "customer:" + s.CustomerID
	}
	return s.ID
}

// SessionFromHeaders is middleware that reads the X-Session-ID header
// (set by the storefront edge for every visitor) and the optional
// X-Customer-ID header, and stores them in the request context. A
// request without a session is rejected.
func SessionFromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := r.Header.Get("X-Session-ID")
		if sid == "" {
			writeJSON(w, http.StatusBadRequest, response{
				Error: &errorResponse{Code: "INVALID_INPUT", Message: "X-Session-ID header is required"},
			})
			return
		}
		customer := r.Header.Get("X-Customer-ID")
		ctx := context.WithValue(r.Context(), sessionKey, session{
			ID:            sid,
			CustomerID:    customer,
			Authenticated: customer != "",
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) (session, bool) {
	s, ok := ctx.Value(sessionKey).(session)
	return s, ok && s.ID != ""
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
