package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ballotworks/roleboard/internal/app"
	"github.com/ballotworks/roleboard/internal/assignments"
	"github.com/ballotworks/roleboard/internal/platform/db"
	"github.com/ballotworks/roleboard/internal/tagcache"
	"github.com/ballotworks/roleboard/jobs"
	"github.com/redis/go-redis/v9"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

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

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = redisClient.Close() }()

	coordinator := tagcache.NewCoordinator(redisClient)
	coordinator.UseLogger(logger)

	expiry := &jobs.ExpiryHandler{
		Logger:  logger,
		Store:   assignments.NewRepository(pool),
		Cache:   coordinator,
		Metrics: jobs.NewMetrics(prometheus.DefaultRegisterer),
	}

	sweepTask, err := jobs.NewExpireAssignmentsTask(time.Time{})
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeExpireAssignments, Handler: expiry.HandleExpireDue},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "@every " + cfg.ExpirySweepInterval.String(), Task: sweepTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting")
	if err := worker.Run(ctx); err != nil {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
