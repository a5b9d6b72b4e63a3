package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/himtika/proposal-tracker/internal/auth"
	"github.com/himtika/proposal-tracker/internal/config"
	"github.com/himtika/proposal-tracker/internal/database"
	"github.com/himtika/proposal-tracker/internal/handler"
	"github.com/himtika/proposal-tracker/internal/identity"
	"github.com/himtika/proposal-tracker/internal/logger"
	"github.com/himtika/proposal-tracker/internal/metrics"
	middlewarepkg "github.com/himtika/proposal-tracker/internal/middleware"
	"github.com/himtika/proposal-tracker/internal/outreach"
	"github.com/himtika/proposal-tracker/internal/repository"
	"github.com/himtika/proposal-tracker/internal/router"
	"github.com/himtika/proposal-tracker/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		if err := migrateUp(cfg); err != nil {
			zl.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := repository.OpenStore(connectCtx, cfg)
	cancel()
	if err != nil {
		zl.Fatal("failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer store.Close()

	template := outreach.DefaultTemplate()
	if cfg.MessageTemplatePath != "" {
		template, err = outreach.LoadTemplate(cfg.MessageTemplatePath)
		if err != nil {
			zl.Fatal("failed to load message template", zap.String("path", cfg.MessageTemplatePath), zap.Error(err))
		}
	}
	composer, err := outreach.NewComposer(template)
	if err != nil {
		zl.Fatal("invalid message template", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewOutreachMetrics(reg)

	notifier := newNotifier(ctx, cfg, zl)
	actors := identity.NewProvider(store.Users, notifier, cfg.ProfileCacheTTL, m)
	defer actors.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	revocations := auth.NewRevocations()

	authService := service.NewAuthService(store.Users, jwtManager, revocations, actors, zl)
	userService := service.NewUserService(store.Users, actors, zl)
	outreachService := service.NewOutreachService(store.Companies, composer,
		service.WithMetrics(m),
		service.WithLogger(zl),
		service.WithDefaultPageSize(cfg.DefaultPageSize),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(zl))
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, revocations, router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Profile:     handler.NewProfileHandler(userService),
		Users:       handler.NewUserAdminHandler(userService),
		Companies:   handler.NewCompaniesHandler(outreachService, actors),
		AdminUpload: handler.NewAdminUploadHandler(outreachService, actors),
		Actors:      actors,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})

	serverErr := make(chan error, 1)
	go func() {
		zl.Info("starting api server", zap.String("port", cfg.Port), zap.String("store", cfg.StoreDriver))
		serverErr <- e.Start(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		zl.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("server error", zap.Error(err))
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
	zl.Info("server stopped")
}

func migrateUp(cfg *config.Config) error {
	m, err := database.NewMigrator(cfg.StoreDriver, cfg.MigrationDSN())
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// newNotifier shares actor events over Redis when REDIS_URL is set and falls
// back to in-process delivery otherwise.
func newNotifier(ctx context.Context, cfg *config.Config, zl *zap.Logger) identity.Notifier {
	if cfg.RedisURL == "" {
		return identity.NewLocalNotifier()
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zl.Fatal("failed to parse redis url", zap.Error(err))
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		zl.Warn("redis unreachable, profile changes will not reach other instances", zap.Error(err))
	}

	notifier := identity.NewRedisNotifier(client, cfg.RedisChannel, zl)
	go func() {
		defer client.Close()
		for {
			err := notifier.Run(ctx)
			if err == nil || ctx.Err() != nil {
				return
			}
			zl.Warn("actor event relay failed, retrying", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
	}()
	return notifier
}
