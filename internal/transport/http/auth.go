package http

import (
	"context"
	"net/http"
	"strings"

	"disbroad/internal/domain"
	"disbroad/internal/service"
)

type ctxKey string

const ctxKeyToken ctxKey = "auth_token"

func tokenFromContext(ctx context.Context) (*domain.Token, bool) {
	token, ok := ctx.Value(ctxKeyToken).(*domain.Token)
	return token, ok
}

// bearerAuth validates the Authorization header against the token service and
// stores the live token row in the request context.
func bearerAuth(tokens service.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "not_authenticated", "Authentication required.")
				return
			}
			token, err := tokens.Verify(r.Context(), strings.TrimPrefix(raw, "Bearer "))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid_token", "Invalid or expired token.")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyToken, token)))
		})
	}
}

// optionalAuth attaches the token when a valid bearer header is present but
// never rejects the request.
func optionalAuth(tokens service.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(raw, "Bearer ") {
				if token, err := tokens.Verify(r.Context(), strings.TrimPrefix(raw, "Bearer ")); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), ctxKeyToken, token))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
