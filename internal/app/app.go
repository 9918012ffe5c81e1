package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-auth-service/internal/config"
	"go-auth-service/internal/database"
	"go-auth-service/internal/handler"
	"go-auth-service/internal/middleware"
	"go-auth-service/internal/repository"
	"go-auth-service/internal/router"
	"go-auth-service/internal/security"
	"go-auth-service/internal/service"
)

const shutdownTimeout = 10 * time.Second

// userStore is what the app needs from whichever backend is configured.
type userStore interface {
	service.UserDirectory
	handler.Pinger
}

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	hasher, err := security.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	tokens, err := security.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	authService, err := service.NewAuthService(store, hasher, tokens)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	authMiddleware := middleware.NewAuthMiddleware(tokens)
	authHandler := handler.NewAuthHandler(authService, handler.CookieOptions{
		TTL:    cfg.CookieTTL,
		Secure: cfg.CookieSecure,
	})
	healthHandler := handler.NewHealthHandler(store)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:   authHandler,
		Health: healthHandler,
	})

	server := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server:       server,
		cleanupFuncs: []func(){cleanup},
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (userStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}

		slog.Info("database ready", "driver", cfg.StoreDriver)
		return repository.NewPostgresUserRepository(db.Pool), db.Close, nil

	case config.StoreMongo:
		slog.Info("connecting to MongoDB")
		mdb, err := database.NewMongo(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}

		closeMongo := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mdb.Close(closeCtx); err != nil {
				slog.Warn("mongo disconnect failed", "error", err)
			}
		}

		repo := repository.NewMongoUserRepository(mdb.Database)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeMongo()
			return nil, nil, fmt.Errorf("failed to ensure mongo indexes: %w", err)
		}

		slog.Info("database ready", "driver", cfg.StoreDriver)
		return repo, closeMongo, nil

	case config.StoreMemory:
		slog.Warn("using in-memory user store; data is lost on restart")
		repo := repository.NewMemoryUserRepository()
		return repo, repo.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// Handler exposes the routed handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		a.cleanup()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-stop:
		slog.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// In-flight requests finish before the store goes away.
	shutdownErr := a.server.Shutdown(ctx)
	a.cleanup()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for _, fn := range a.cleanupFuncs {
		fn()
	}
}
