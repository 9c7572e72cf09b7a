package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// CookieName is the cookie that carries the session token.
const CookieName = "auth_token"

// TokenParser verifies a session token. auth.Issuer implements it.
type TokenParser interface {
	ParseToken(token string) (uuid.UUID, error)
}

type ctxKey struct{}

// TokenFromRequest reads the auth_token cookie, falling back to an Authorization bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// RequireUser rejects requests without a valid token and stores the user id in the context.
func RequireUser(tokens TokenParser) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}
			id, err := tokens.ParseToken(token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}

func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserID returns the id stored by RequireUser.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok
}
