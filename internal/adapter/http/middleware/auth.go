package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/gobid/internal/infrastructure/auth"
)

// ContextKey is the type for context keys.
type ContextKey string

// SenderContextKey holds the authenticated sender address.
const SenderContextKey ContextKey = "sender"

// Auth verifies a Bearer token when present and pins the sender address
// from its claims. Handlers then ignore the sender claimed in the request
// body. Requests without a token pass through unauthenticated; a token
// that fails verification is rejected.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), SenderContextKey, claims.Address)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SenderFromContext extracts the authenticated sender address, if any.
func SenderFromContext(ctx context.Context) (string, bool) {
	sender, ok := ctx.Value(SenderContextKey).(string)
	return sender, ok && sender != ""
}
