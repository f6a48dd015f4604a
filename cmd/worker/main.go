// Package main - точка входа фонового процесса (Worker) движка наград.
//
// Worker отвечает за периодические задачи:
// - Деактивация прерванных серий после полуночи UTC
// - Перевод просроченных токенов погашения в состояние expired
// - Пересчёт окон лидерборда и обновление кэша
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/wellness-hub/rewards-engine/config"
	"github.com/wellness-hub/rewards-engine/internal/application/query"
	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/reward"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
	"github.com/wellness-hub/rewards-engine/internal/domain/streak"
	"github.com/wellness-hub/rewards-engine/internal/infrastructure/messaging"
	"github.com/wellness-hub/rewards-engine/internal/infrastructure/persistence/memory"
	"github.com/wellness-hub/rewards-engine/internal/infrastructure/persistence/postgres"
	"github.com/wellness-hub/rewards-engine/internal/infrastructure/persistence/redis"
	"github.com/wellness-hub/rewards-engine/internal/infrastructure/scheduler"
	"github.com/wellness-hub/rewards-engine/internal/infrastructure/scheduler/jobs"
	"github.com/wellness-hub/rewards-engine/pkg/keylock"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting rewards engine worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩЕ (PostgreSQL, либо in-memory для разработки)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		accounts     account.Repository
		transactions ledger.Repository
		streaks      streak.Repository
		catalog      reward.CatalogRepository
		tokens       reward.TokenRepository
	)

	if cfg.Database.URL != "" {
		log.Info("connecting to database...")
		dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()

		log.Info("checking database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")

		accounts = postgres.NewAccountRepository(dbConn)
		transactions = postgres.NewLedgerRepository(dbConn)
		streaks = postgres.NewStreakRepository(dbConn)
		catalog = postgres.NewRewardRepository(dbConn)
		tokens = postgres.NewTokenRepository(dbConn)
	} else {
		// Validate запрещает пустой DATABASE_URL в production.
		log.Warn("DATABASE_URL is not set, using in-memory storage")
		mem := memory.NewStore()
		accounts = mem.Accounts()
		transactions = mem.Ledger()
		streaks = mem.Streaks()
		catalog = mem.Rewards()
		tokens = mem.Tokens()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (опционально, кэш лидерборда и шина между инстансами)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var leaderboardCache *redis.LeaderboardCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			leaderboardCache = redis.NewLeaderboardCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ШИНА СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	localBusConfig := messaging.DefaultInMemoryEventBusConfig()
	localBusConfig.Logger = log

	var eventBus shared.EventBus
	if redisCache != nil {
		eventBus, err = messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         redisCache.Client(),
			LocalBusConfig: localBusConfig,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("failed to start redis event bus: %w", err)
		}
	} else {
		eventBus = messaging.NewInMemoryEventBus(localBusConfig)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ДОМЕННЫЕ СЕРВИСЫ
	// ─────────────────────────────────────────────────────────────────────────
	locks := keylock.New()

	store := ledger.NewStore(accounts, transactions, locks, ledger.StoreConfig{
		Publisher: eventBus,
	})

	tracker := streak.NewTracker(streaks, accounts, store, streak.TrackerConfig{
		Publisher: eventBus,
	})

	tokenSecret := cfg.Rewards.TokenSecret
	if len(tokenSecret) == 0 {
		// Validate запрещает пустой TOKEN_SECRET в production. Случайный
		// ключ означает, что выпущенные токены не переживут рестарт.
		log.Warn("TOKEN_SECRET is not set, using an ephemeral random key")
		tokenSecret = make([]byte, 32)
		if _, err := rand.Read(tokenSecret); err != nil {
			return fmt.Errorf("failed to generate token key: %w", err)
		}
	}

	codec, err := reward.NewCodec(tokenSecret)
	if err != nil {
		return fmt.Errorf("failed to create token codec: %w", err)
	}

	rewardService := reward.NewService(catalog, tokens, accounts, store, codec, reward.ServiceConfig{
		TokenValidity: cfg.Rewards.TokenValidity,
		Publisher:     eventBus,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ПЛАНИРОВЩИК ФОНОВЫХ ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		log.Info("initializing scheduler...")
		sched = scheduler.NewScheduler(scheduler.Config{Logger: log})

		streakSweep := scheduler.NewDailySchedule(
			cfg.Scheduler.StreakSweepHour,
			cfg.Scheduler.StreakSweepMinute,
		)
		if err := sched.Register(jobs.NewDeactivateStreaksJob(tracker, log), streakSweep); err != nil {
			return fmt.Errorf("failed to register streak sweep: %w", err)
		}

		tokenSweep := scheduler.NewIntervalSchedule(cfg.Scheduler.ExpireTokensInterval)
		if err := sched.Register(jobs.NewExpireTokensJob(rewardService, log), tokenSweep); err != nil {
			return fmt.Errorf("failed to register token sweep: %w", err)
		}

		if leaderboardCache != nil {
			lbHandler := query.NewGetLeaderboardHandler(accounts, transactions, leaderboardCache)
			rebuild := scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)
			if err := sched.Register(jobs.NewRebuildLeaderboardJob(lbHandler, leaderboardCache, log), rebuild); err != nil {
				return fmt.Errorf("failed to register leaderboard rebuild: %w", err)
			}
		} else {
			log.Info("leaderboard rebuild job skipped, no Redis cache")
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		log.Info("scheduler started", "jobs", len(sched.ListJobs()))
	} else {
		log.Warn("scheduler is disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("rewards engine worker is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	if sched != nil {
		if err := sched.Stop(); err != nil {
			log.Error("scheduler stop failed", "error", err)
		}
	}

	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Observability.LogLevel),
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Observability.LogFormat, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
