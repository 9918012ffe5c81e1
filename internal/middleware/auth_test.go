package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-auth-service/internal/model"
	"go-auth-service/internal/security"
)

func newGate(t *testing.T) (*AuthMiddleware, *security.TokenService) {
	t.Helper()

	tokens, err := security.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	return NewAuthMiddleware(tokens), tokens
}

func subjectEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := SubjectFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(subject.UserID))
	})
}

func TestRequireAuth_BearerHeader(t *testing.T) {
	t.Parallel()
	gate, tokens := newGate(t)

	issued, err := tokens.Issue("user-1", "a@x.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Value)
	rec := httptest.NewRecorder()
	gate.RequireAuth(subjectEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestRequireAuth_CookieCarrier(t *testing.T) {
	t.Parallel()
	gate, tokens := newGate(t)

	issued, err := tokens.Issue("user-2", "b@x.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: issued.Value})
	rec := httptest.NewRecorder()
	gate.RequireAuth(subjectEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-2", rec.Body.String())
}

func TestRequireAuth_Rejections(t *testing.T) {
	t.Parallel()
	gate, _ := newGate(t)

	foreign, err := security.NewTokenService("another-secret", time.Hour)
	require.NoError(t, err)
	forged, err := foreign.Issue("user-1", "a@x.com")
	require.NoError(t, err)

	cases := []struct {
		name    string
		header  string
		message string
	}{
		{"no carrier", "", msgUnauthenticated},
		{"wrong scheme", "Basic dXNlcjpwdw==", msgUnauthenticated},
		{"empty bearer", "Bearer ", msgUnauthenticated},
		{"garbage token", "Bearer not.a.token", msgTokenInvalid},
		{"different secret", "Bearer " + forged.Value, msgTokenInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			gate.RequireAuth(next).ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var body model.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.message, body.Message)
		})
	}
}

func TestSubjectFromContext_Missing(t *testing.T) {
	t.Parallel()

	_, ok := SubjectFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
