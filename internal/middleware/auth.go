package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/nikhil/begreen/internal/models"
	"github.com/nikhil/begreen/internal/session"
)

type ContextKey string

const UserContextKey ContextKey = "currentUser"

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(ctx context.Context, token string) (*session.Claims, error)
}

// AuthMiddleware requires a valid, not revoked bearer token.
func AuthMiddleware(tokens TokenParser) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Missing auth token")
				return
			}

			tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenStr == "" {
				writeError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			claims, err := tokens.Parse(r.Context(), tokenStr)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WebSocketAuthMiddleware reads the token from the query string, since
// browsers cannot set headers on websocket requests.
func WebSocketAuthMiddleware(tokens TokenParser) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := r.URL.Query().Get("token")
			if tokenStr == "" {
				tokenStr = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			}
			if tokenStr == "" {
				writeError(w, http.StatusUnauthorized, "Missing auth token")
				return
			}

			claims, err := tokens.Parse(r.Context(), tokenStr)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func ResponseWrapperMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func WithClaims(ctx context.Context, claims *session.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// ClaimsFromContext returns the verified token claims of the request.
func ClaimsFromContext(ctx context.Context) (*session.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*session.Claims)
	return claims, ok && claims != nil
}

// PrincipalFromContext returns the authenticated caller.
func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return models.Principal{}, false
	}
	return claims.Principal(), true
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
