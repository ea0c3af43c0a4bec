package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"youth-sports-gamification/config"
	"youth-sports-gamification/handlers"
	"youth-sports-gamification/logger"
	"youth-sports-gamification/middleware"
	"youth-sports-gamification/repository"
	"youth-sports-gamification/services"
	"youth-sports-gamification/utils"
	"youth-sports-gamification/workers"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.App.Env, cfg.App.LogLevel)

	if cfg.Gateway.ServiceToken == "" {
		logger.Fatal().Msg("❌ gateway.service_token is not set — service cannot authenticate Gateway")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	if err := repository.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate")
	}

	clock := clockwork.NewRealClock()
	rules := services.NewRuleBook(cfg.Rules())
	if config.Watch(*configPath, func(next *config.Config) {
		rules.Store(next.Rules())
	}) {
		logger.Info().Msg("✅ Watching config file for rule changes")
	}

	events := repository.NewEventRepository(db)
	xp := repository.NewXPRepository(db)
	streakCache := repository.NewStreakRepository(db)
	badgeStore := repository.NewBadgeRepository(db)
	games := repository.NewGameRepository(db)
	goals := repository.NewGoalRepository(db)
	audit := repository.NewAuditRepository(db)

	// cooldowns are shared through Redis when several instances run
	var cooldowns services.CooldownCache
	var memCooldowns *services.MemoryCooldownCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("⚠️  Redis unreachable, cooldown checks will fall back to the event log")
		}
		cooldowns = repository.NewRedisCooldownCache(rdb)
	} else {
		memCooldowns = services.NewMemoryCooldownCache()
		cooldowns = memCooldowns
	}

	limiter := services.NewRateLimiter(events, xp, cooldowns, audit, rules, clock)
	ledger := services.NewXPLedger(xp, limiter, rules, clock)
	streaks := services.NewStreakCalculator(events, streakCache, rules, clock)
	badges := services.NewBadgeEngine(badgeStore, games, goals, ledger, rules, clock)
	progress := services.NewProgressAggregator(goals, games, rules)
	coordinator := services.NewCoordinator(ledger, streaks, badges, games, goals, rules, clock)

	var exporter services.AuditExporter
	if cfg.Audit.Enabled {
		r2, err := utils.NewR2Client(ctx, utils.R2Config{
			AccountID:       cfg.Audit.AccountID,
			AccessKeyID:     cfg.Audit.AccessKeyID,
			AccessKeySecret: cfg.Audit.AccessKeySecret,
			Bucket:          cfg.Audit.Bucket,
			PublicURL:       cfg.Audit.PublicURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize R2 client")
		}
		exporter = workers.NewAuditExporter(audit, r2, cfg.Audit.Prefix, cfg.Location())
	}

	sched, err := services.StartMaintenanceScheduler(clock, rules, services.MaintenanceJobs{
		Cooldowns: memCooldowns,
		Streaks:   streaks,
		Audit:     exporter,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer func() { _ = sched.Shutdown() }()

	requestLimiter := middleware.NewKeyedRateLimiter(ctx, rate.Limit(cfg.HTTP.RequestsPerSecond), cfg.HTTP.Burst)
	app := handlers.NewApp(handlers.AppOptions{
		ServiceToken:   cfg.Gateway.ServiceToken,
		AllowedOrigins: cfg.Gateway.AllowedOrigins,
		Throttle:       middleware.RateLimitMiddleware(requestLimiter),
	}, handlers.Services{
		Ledger:      ledger,
		Streaks:     streaks,
		Badges:      badges,
		Progress:    progress,
		Coordinator: coordinator,
	})

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	go func() {
		if err := app.Listen(addr); err != nil {
			logger.Error().Err(err).Msg("Server error")
		}
	}()

	logger.Info().Str("addr", addr).Msg("✅ Server running")
	logger.Info().Bool("redis_cooldowns", memCooldowns == nil).Bool("audit_export", exporter != nil).Msg("✅ Gamification engine ready")
	logger.Info().Msg("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
