package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const externalIDKey contextKey = "external_id"

// TokenValidator is what we need from the identity bridge. The interface
// keeps this package decoupled from the user service.
type TokenValidator interface {
	ValidateToken(tokenString string) (string, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(v TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: v}
}

// ExternalID returns the authenticated caller's external identity id.
func ExternalID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(externalIDKey).(string)
	return id, ok && id != ""
}

// WithExternalID injects an identity into the context. Used by tests and by
// the websocket handshake, which authenticates before upgrading.
func WithExternalID(ctx context.Context, externalID string) context.Context {
	return context.WithValue(ctx, externalIDKey, externalID)
}

func (am *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 {
				tokenString = parts[1]
			}
		}

		// Fallback for websocket clients that cannot set headers.
		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}

		if tokenString == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		externalID, err := am.validator.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithExternalID(r.Context(), externalID)))
	})
}
