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

	"github.com/ballotworks/roleboard/internal/app"
	"github.com/ballotworks/roleboard/internal/assignments"
	"github.com/ballotworks/roleboard/internal/binding"
	"github.com/ballotworks/roleboard/internal/observability"
	"github.com/ballotworks/roleboard/internal/permissions"
	"github.com/ballotworks/roleboard/internal/platform/cache"
	"github.com/ballotworks/roleboard/internal/platform/db"
	"github.com/ballotworks/roleboard/internal/roles"
	"github.com/ballotworks/roleboard/internal/tagcache"
	"github.com/ballotworks/roleboard/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, running without shared invalidation", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	metrics := observability.NewMetrics()

	coordinator := tagcache.NewCoordinator(redisClient)
	coordinator.UseLogger(logger)
	coordinator.OnInvalidate(func(tag tagcache.Tag) {
		metrics.ObserveInvalidation(string(tag))
	})
	if err := coordinator.Listen(ctx); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo, coordinator)
	permissionsRepo := permissions.NewRepository(pool)
	permissionsService := permissions.NewService(permissionsRepo, coordinator)
	bindingRepo := binding.NewRepository(pool)
	bindingService := binding.NewService(bindingRepo, coordinator)
	assignmentsRepo := assignments.NewRepository(pool)
	assignmentsService := assignments.NewService(assignmentsRepo, rolesRepo, coordinator)
	usersService := users.NewService(users.NewRepository(pool))

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		RolesHandler:       roles.NewHandler(logger, rolesService),
		PermissionsHandler: permissions.NewHandler(logger, permissionsService),
		BindingHandler:     binding.NewHandler(logger, bindingService),
		AssignmentsHandler: assignments.NewHandler(logger, assignmentsService),
		UsersHandler:       users.NewHandler(logger, usersService),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
	}
}
