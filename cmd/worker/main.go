// Package main is the entry point of the challenge worker.
//
// The worker keeps group challenge state fresh in the background:
//   - mirrors the fitness provider's activity feed into local storage
//   - warms rendered ranking boards and medal standings for the chat
//     front-end
//   - closes each month by promoting podium medals into the ledger
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pedal-hub/pedal-community-hub/config"
	"github.com/pedal-hub/pedal-community-hub/internal/application"
	"github.com/pedal-hub/pedal-community-hub/internal/infrastructure/external/fitness"
	"github.com/pedal-hub/pedal-community-hub/internal/infrastructure/persistence/postgres"
	"github.com/pedal-hub/pedal-community-hub/internal/infrastructure/persistence/redis"
	"github.com/pedal-hub/pedal-community-hub/internal/infrastructure/scheduler"
	"github.com/pedal-hub/pedal-community-hub/internal/infrastructure/scheduler/jobs"
	"github.com/pedal-hub/pedal-community-hub/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slogger := newSlogger(cfg)
	appLog := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})

	slogger.Info("starting worker",
		"app", cfg.App.Name,
		"version", cfg.App.Version,
		"env", string(cfg.App.Environment),
		"timezone", cfg.App.Timezone,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Postgres ──────────────────────────────────────────────────────

	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()

	if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slogger.Info("database ready")

	groupRepo := postgres.NewGroupRepository(conn)
	activityRepo := postgres.NewActivityRepository(conn)
	medalRepo := postgres.NewMedalAwardRepository(conn)

	// ── Redis (optional) ──────────────────────────────────────────────

	var (
		cache      *redis.Cache
		groupCache *redis.GroupCache
	)
	if cfg.Redis.Disabled {
		slogger.Warn("redis disabled, boards are computed on demand only")
	} else {
		cache, err = redis.NewCache(redisConfig(cfg))
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer cache.Close()
		groupCache = redis.NewGroupCache(cache)
		slogger.Info("redis ready")
	}

	// ── Application ───────────────────────────────────────────────────

	registry := application.NewRegistry(groupRepo, activityRepo, cfg.Stats.CacheTTL, appLog)

	groupIDs, err := groupRepo.ListGroupIDs(ctx)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}
	for _, id := range groupIDs {
		if _, err := registry.Engine(id); err != nil {
			slogger.Warn("skipping stored group", "group_id", id.Int64(), "error", err)
		}
	}
	slogger.Info("engines seeded", "groups", len(groupIDs))

	// ── Scheduler ─────────────────────────────────────────────────────

	sched := scheduler.New(scheduler.Config{
		Logger:   slogger,
		Timezone: cfg.App.Location,
	})

	if cfg.Provider.AccessToken == "" {
		slogger.Warn("no provider access token, activity sync disabled")
	} else {
		client, err := fitness.NewClient(fitness.ClientConfig{
			BaseURL:     cfg.Provider.BaseURL,
			AccessToken: cfg.Provider.AccessToken,
			Timeout:     cfg.Provider.RequestTimeout,
			RateLimiter: fitness.RateLimiterConfig{
				RequestsPerMinute: cfg.Provider.RateLimit,
				Burst:             cfg.Provider.RateLimitBurst,
			},
			Location: cfg.App.Location,
			Logger:   slogger,
		})
		if err != nil {
			return fmt.Errorf("create provider client: %w", err)
		}

		syncJob := jobs.NewSyncActivitiesJob(client, activityRepo, registry, slogger, cfg.App.Location)
		if err := sched.Register(syncJob, scheduler.NewIntervalSchedule(cfg.Scheduler.SyncInterval)); err != nil {
			return fmt.Errorf("register %s: %w", syncJob.Name(), err)
		}
	}

	if groupCache != nil {
		refreshJob := jobs.NewRefreshBoardsJob(registry, groupCache, slogger, cfg.App.Location, nil)
		if err := sched.Register(refreshJob, scheduler.NewIntervalSchedule(cfg.Scheduler.BoardRefreshInterval)); err != nil {
			return fmt.Errorf("register %s: %w", refreshJob.Name(), err)
		}
	}

	promotionCron, err := scheduler.ParseCronExpression(cfg.Scheduler.PromotionCron)
	if err != nil {
		return fmt.Errorf("parse promotion cron %q: %w", cfg.Scheduler.PromotionCron, err)
	}
	// Without Redis the promotion job skips snapshot invalidation and
	// runs unlocked.
	var (
		invalidator jobs.SnapshotInvalidator
		locker      jobs.Locker
	)
	if groupCache != nil {
		invalidator = groupCache
		locker = cache
	}
	promoteJob := jobs.NewPromoteMedalsJob(registry, medalRepo, invalidator, locker, slogger, cfg.App.Location)
	if err := sched.Register(promoteJob, promotionCron); err != nil {
		return fmt.Errorf("register %s: %w", promoteJob.Name(), err)
	}

	if !cfg.Scheduler.Enabled {
		slogger.Warn("scheduler disabled, worker is idle")
		<-ctx.Done()
		return nil
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	slogger.Info("shutdown signal received")

	done := make(chan error, 1)
	go func() { done <- sched.Stop() }()
	select {
	case err := <-done:
		if err != nil && err != scheduler.ErrSchedulerNotRunning {
			return fmt.Errorf("stop scheduler: %w", err)
		}
	case <-time.After(cfg.App.ShutdownTimeout):
		slogger.Error("shutdown timed out, exiting anyway")
	}

	slogger.Info("worker stopped")
	return nil
}

// newSlogger builds the worker's slog logger from observability config.
func newSlogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// redisConfig maps worker config onto the cache package's config.
func redisConfig(cfg *config.Config) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	return rc
}
