//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"go-auth-service/internal/app"
	"go-auth-service/internal/config"
)

// newServer boots the full application. TEST_DATABASE_URL selects a postgres
// or mongo backend; without it the in-memory store is used.
func newServer(t *testing.T, rpm int) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Port:             "0",
		JWTSecret:        "integration-secret",
		JWTExpiresIn:     time.Hour,
		CookieTTL:        72 * time.Hour,
		BcryptCost:       4,
		StoreDriver:      config.StoreMemory,
		MongoDatabase:    "auth_integration",
		DBMaxConns:       4,
		DBMinConns:       1,
		CORSOrigins:      []string{"http://app.example"},
		AuthRateLimitRPM: rpm,
		RequestTimeout:   10 * time.Second,
	}

	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		cfg.DatabaseURL = url
		cfg.StoreDriver = config.StorePostgres
		if strings.HasPrefix(url, "mongodb") {
			cfg.StoreDriver = config.StoreMongo
		}
	}

	application, err := app.New(context.Background(), cfg)
	require.NoError(t, err)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)
	return server
}

// uniqueEmail keeps runs against a shared database from colliding.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}

func upper(s string) string {
	return strings.ToUpper(s)
}

func mustNewRequest(t *testing.T, method string, url string, body any) *http.Request {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

func doRequest(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	parsed := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return resp, parsed
}

func register(t *testing.T, server *httptest.Server, email string, password string) (*http.Response, map[string]any) {
	t.Helper()

	return doRequest(t, mustNewRequest(t, http.MethodPost, server.URL+"/api/v1/auth/register", map[string]string{
		"name":     "Integration User",
		"email":    email,
		"mobile":   "5550100",
		"password": password,
	}))
}

func login(t *testing.T, server *httptest.Server, email string, password string) (*http.Response, map[string]any) {
	t.Helper()

	return doRequest(t, mustNewRequest(t, http.MethodPost, server.URL+"/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}))
}
