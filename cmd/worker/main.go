package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-importa/internal/config"
	"github.com/noah-isme/backend-importa/internal/landedcost"
	"github.com/noah-isme/backend-importa/internal/lock"
	"github.com/noah-isme/backend-importa/internal/obs"
	"github.com/noah-isme/backend-importa/internal/portfolio"
	"github.com/noah-isme/backend-importa/internal/repo"
)

const (
	taskPortfolioRefresh = "portfolio:refresh"
	taskReportWarm       = "report:warm"

	refreshLockKey = "lock:portfolio:refresh"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	store := repo.New(pool)
	costSvc := &landedcost.Service{
		Source:        store,
		R:             redisClient,
		TTL:           cfg.ReportCacheTTL,
		Home:          cfg.HomeCurrency,
		DefaultMethod: cfg.AllocDefaultMethod,
	}
	portfolioSvc := &portfolio.Service{
		Source:   store,
		Reporter: costSvc,
		R:        redisClient,
		TTL:      cfg.OverviewCacheTTL,
		Home:     cfg.HomeCurrency,
		TopN:     cfg.PortfolioTopN,
	}
	locker := lock.Locker{R: redisClient}

	asynqOpts := asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB}

	mux := asynq.NewServeMux()
	mux.HandleFunc(taskPortfolioRefresh, func(taskCtx context.Context, _ *asynq.Task) error {
		return locker.WithLock(taskCtx, refreshLockKey, time.Minute, func(lockCtx context.Context) error {
			overview, err := portfolioSvc.Refresh(lockCtx)
			if err != nil {
				return fmt.Errorf("refresh portfolio: %w", err)
			}
			logger.Info().
				Int("orders", overview.Orders).
				Int64("total_investment", overview.TotalInvestment.Units).
				Msg("portfolio overview refreshed")
			return nil
		})
	})
	mux.HandleFunc(taskReportWarm, func(taskCtx context.Context, task *asynq.Task) error {
		var payload struct {
			Limit int `json:"limit"`
		}
		if len(task.Payload()) > 0 {
			if err := json.Unmarshal(task.Payload(), &payload); err != nil {
				return fmt.Errorf("decode warm payload: %w", err)
			}
		}
		ids, err := store.ListOrderIDs(taskCtx)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		if payload.Limit > 0 && len(ids) > payload.Limit {
			ids = ids[:payload.Limit]
		}
		for _, id := range ids {
			if _, err := costSvc.Report(taskCtx, id); err != nil {
				logger.Error().Err(err).Str("order_id", id.String()).Msg("warm report")
			}
		}
		logger.Info().Int("orders", len(ids)).Msg("report cache warmed")
		return nil
	})

	server := asynq.NewServer(asynqOpts, asynq.Config{
		Concurrency: envInt("WORKER_CONCURRENCY", 4),
		Logger:      asynqLogger{logger},
	})

	scheduler := asynq.NewScheduler(asynqOpts, &asynq.SchedulerOpts{Logger: asynqLogger{logger}})
	refreshEvery := envOrDefault("PORTFOLIO_REFRESH_INTERVAL", "10m")
	if _, err := scheduler.Register("@every "+refreshEvery, asynq.NewTask(taskPortfolioRefresh, nil)); err != nil {
		logger.Fatal().Err(err).Msg("register portfolio refresh")
	}
	warmEvery := envOrDefault("REPORT_WARM_INTERVAL", "30m")
	if _, err := scheduler.Register("@every "+warmEvery, asynq.NewTask(taskReportWarm, nil)); err != nil {
		logger.Fatal().Err(err).Msg("register report warm")
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error().Err(err).Msg("scheduler stopped")
		}
	}()

	logger.Info().Msg("worker starting")
	if err := server.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}

	<-ctx.Done()
	scheduler.Shutdown()
	server.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

type asynqLogger struct {
	l zerolog.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "importa-worker"
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		var parsed int
		if _, err := fmt.Sscanf(strings.TrimSpace(val), "%d", &parsed); err == nil {
			return parsed
		}
	}
	return fallback
}
