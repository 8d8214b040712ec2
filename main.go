package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kredit-api/config"
	"kredit-api/handlers"
	"kredit-api/logging"
	"kredit-api/repository"
	"kredit-api/routes"
	"kredit-api/services"
	"kredit-api/session"
	"kredit-api/statemachine"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// store bundles the repositories of one backend with its shutdown hook.
type store struct {
	users repository.UserRepository
	apps  repository.ApplicationRepository
	ping  repository.Pinger
	close func(context.Context) error
}

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	gin.SetMode(cfg.GinMode)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	st, err := openStore(context.Background(), cfg)
	if err != nil {
		slog.Error("store connection failed", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	slog.Info("store connected", "driver", cfg.StoreDriver)

	// Services
	tokens := session.NewManager(cfg.JWTSecret, cfg.JWTExpiry)
	policy := statemachine.NewPolicy(
		statemachine.WithStrict(cfg.WorkflowStrict),
		statemachine.WithBackofficeStamping(cfg.WorkflowStampBackoffice),
	)
	authService := services.NewAuthService(st.users, tokens, cfg.BcryptCost)
	appService := services.NewApplicationService(st.apps, policy)

	r := routes.NewRouter(routes.Deps{
		Auth:         handlers.NewAuthHandler(authService),
		Applications: handlers.NewApplicationHandler(appService),
		Public:       handlers.NewPublicHandler(appService, st.ping),
		Verifier:     authService,
	}, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "strict_workflow", cfg.WorkflowStrict)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if err := st.close(ctx); err != nil {
		slog.Error("store close error", "error", err)
	}
	slog.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	if cfg.StoreDriver != config.DriverMongo {
		db, err := config.OpenDB(cfg)
		if err != nil {
			return nil, err
		}
		users := repository.NewGormUserRepo(db)
		return &store{
			users: users,
			apps:  repository.NewGormApplicationRepo(db),
			ping:  users,
			close: func(context.Context) error { return config.CloseDB(db) },
		}, nil
	}

	client, err := config.ConnectMongo(ctx, cfg)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDatabase)
	users := repository.NewMongoUserRepo(db)
	apps := repository.NewMongoApplicationRepo(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err := apps.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &store{
		users: users,
		apps:  apps,
		ping:  users,
		close: client.Disconnect,
	}, nil
}
