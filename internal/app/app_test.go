package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-auth-service/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Port:             "0",
		JWTSecret:        "app-test-secret",
		JWTExpiresIn:     time.Hour,
		CookieTTL:        72 * time.Hour,
		BcryptCost:       4,
		StoreDriver:      config.StoreMemory,
		CORSOrigins:      []string{"*"},
		AuthRateLimitRPM: 10,
		RequestTimeout:   5 * time.Second,
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

func TestNewWithMemoryStore(t *testing.T) {
	application, err := New(context.Background(), memoryConfig())
	require.NoError(t, err)
	t.Cleanup(application.cleanup)

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"name":"A","email":"a@x.com","mobile":"1","password":"pw1"}`))
	application.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.StoreDriver = "cassandra"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}

func TestNewRejectsBadBcryptCost(t *testing.T) {
	cfg := memoryConfig()
	cfg.BcryptCost = 99

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}
