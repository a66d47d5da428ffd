package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JustinTDCT/OralVault/internal/httputil"
)

type contextKey string

const contextSubject contextKey = "subject"

// RequireToken rejects requests without a valid bearer token. A nil issuer lets every
// request through.
func RequireToken(issuer *Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if issuer == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			claims, err := issuer.Validate(token)
			if errors.Is(err, ErrTokenExpired) {
				httputil.WriteError(w, http.StatusUnauthorized, "token_expired", "token expired")
				return
			}
			if err != nil {
				httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), contextSubject, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(contextSubject).(string)
	return s
}

// extractToken reads the Authorization header, falling back to ?token= for websocket
// clients that cannot set headers.
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
