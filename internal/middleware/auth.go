package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"go-auth-service/internal/model"
)

// TokenCookieName is the carrier cookie set on login and accepted by RequireAuth.
const TokenCookieName = "token"

const (
	msgUnauthenticated = "Unauthorized access"
	msgTokenInvalid    = "Token expired or invalid"
)

type tokenVerifier interface {
	Verify(tokenString string) (model.Subject, error)
}

type contextKey string

const subjectContextKey contextKey = "auth_subject"

type AuthMiddleware struct {
	verifier tokenVerifier
}

func NewAuthMiddleware(verifier tokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth verifies the bearer token (or the token cookie) and stores the
// subject in the request context. Every verification failure gets the same 401.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractToken(r)
		if !ok {
			writeUnauthorized(w, msgUnauthenticated)
			return
		}

		subject, err := m.verifier.Verify(token)
		if err != nil {
			slog.DebugContext(r.Context(), "token rejected", "error", err)
			writeUnauthorized(w, msgTokenInvalid)
			return
		}

		ctx := context.WithValue(r.Context(), subjectContextKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SubjectFromContext(ctx context.Context) (model.Subject, bool) {
	subject, ok := ctx.Value(subjectContextKey).(model.Subject)
	return subject, ok
}

func extractToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "bearer") {
			return "", false
		}
		token = strings.TrimSpace(token)
		return token, token != ""
	}

	cookie, err := r.Cookie(TokenCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return "", false
	}

	return strings.TrimSpace(cookie.Value), true
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{
		Success: false,
		Code:    "UNAUTHORIZED",
		Message: message,
	})
}
