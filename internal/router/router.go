package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-auth-service/internal/config"
	"go-auth-service/internal/handler"
	"go-auth-service/internal/middleware"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Health *handler.HealthHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, handlers Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.AuthRateLimitRPM, cfg.TrustedProxyPrefixes())

	r.Use(globalMiddleware(cfg)...)

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/health", handlers.Health.Check)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.With(rateLimitMiddleware.Handler).Post("/register", handlers.Auth.Register)
			auth.With(rateLimitMiddleware.Handler).Post("/login", handlers.Auth.Login)
			auth.With(authMiddleware.RequireAuth).Get("/profile", handlers.Auth.Profile)
		})
	})

	return r
}

// globalMiddleware is applied to every route. Logging sits outside Recovery so
// a request that panics still gets its access-log line.
func globalMiddleware(cfg *config.Config) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.Logging,
		middleware.Recovery,
		middleware.CORS(cfg.CORSOrigins),
		middleware.SecurityHeaders,
	}
}
