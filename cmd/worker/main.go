package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	"feedstream/internal/aggregator/base"
	pgRepo "feedstream/internal/infra/adapter/persistence/postgres"
	"feedstream/internal/infra/browser"
	"feedstream/internal/infra/db"
	"feedstream/internal/infra/httpclient"
	workerPkg "feedstream/internal/infra/worker"
	"feedstream/internal/scheduler"
	"feedstream/internal/usecase/aggregation"

	// Concrete aggregators register themselves against the Registry (C3)
	// at init() time; importing for the side effect is the Go analogue of
	// the teacher's scraperFactory.CreateScrapers() map-building step.
	_ "feedstream/internal/aggregator/caschys"
	_ "feedstream/internal/aggregator/darklegacy"
	_ "feedstream/internal/aggregator/explosm"
	_ "feedstream/internal/aggregator/fullhtml"
	_ "feedstream/internal/aggregator/genericrss"
	_ "feedstream/internal/aggregator/heise"
	_ "feedstream/internal/aggregator/mactechnews"
	_ "feedstream/internal/aggregator/meinmmo"
	_ "feedstream/internal/aggregator/merkur"
	_ "feedstream/internal/aggregator/oglaf"
	_ "feedstream/internal/aggregator/podcast"
	_ "feedstream/internal/aggregator/reddit"
	_ "feedstream/internal/aggregator/tagesschau"
	_ "feedstream/internal/aggregator/youtube"
)

func waitForMigrations(logger *slog.Logger, db *sql.DB) {
	const probe = "SELECT 1 FROM feeds LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := db.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("crawl_timeout", workerConfig.CrawlTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	pool, service, browserPool := setupAggregation(logger, database, workerConfig)
	defer func() {
		if err := pool.Shutdown(context.Background()); err != nil {
			logger.Error("scheduler shutdown failed", slog.Any("error", err))
		}
		if err := browserPool.Close(); err != nil {
			logger.Error("browser pool shutdown failed", slog.Any("error", err))
		}
	}()

	cronJob := startCronWorker(logger, service, pool, workerConfig, workerMetrics, healthServer)
	defer cronJob.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("worker shutting down...")
}

func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and waits for migrations to complete.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	waitForMigrations(logger, database)
	return database
}

// setupAggregation builds the Scheduler (C7) and the Aggregation Service
// (C6) it runs jobs through: a shared static HTTP fetcher, headless
// browser pool, and URL cache feed the Base every Registry-resolved
// Aggregator delegates its fetch/sanitize/standardize stages to.
func setupAggregation(logger *slog.Logger, database *sql.DB, cfg *workerPkg.WorkerConfig) (*scheduler.Pool, *aggregation.Service, *browser.Pool) {
	feedRepo := pgRepo.NewFeedRepo(database)
	articleRepo := pgRepo.NewArticleRepo(database)
	taskRepo := pgRepo.NewTaskRepo(database)

	fetchCfg := httpclient.DefaultConfig()
	staticFetcher := httpclient.NewStaticFetcher(fetchCfg)
	browserPool := browser.NewPool(browser.DefaultConfig())
	urlCache := httpclient.NewURLCache()
	b := base.New(staticFetcher, browserPool, urlCache)

	service := aggregation.New(feedRepo, articleRepo, b)

	poolCfg := scheduler.DefaultConfig()
	poolCfg.JobTimeout = cfg.CrawlTimeout
	pool := scheduler.New(taskRepo, logger, poolCfg)

	return pool, service, browserPool
}

// startCronWorker schedules the daily aggregate_all run (spec.md §4.6/§4.7):
// one feed per task, dispatched through the Scheduler rather than run
// inline, so a single slow/broken feed cannot stall the others.
func startCronWorker(logger *slog.Logger, service *aggregation.Service, pool *scheduler.Pool, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, healthServer *workerPkg.HealthServer) *cron.Cron {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.CronSchedule, func() {
		runAggregateAll(logger, service, pool, metrics)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker marked as ready")
	logger.Info("worker started", slog.String("schedule", cfg.CronSchedule), slog.String("timezone", cfg.Timezone))

	return c
}

// runAggregateAll triggers one aggregate_all sweep, enqueueing one task
// per enabled feed onto the Scheduler rather than waiting for results
// inline (spec.md §4.7's async contract).
func runAggregateAll(logger *slog.Logger, service *aggregation.Service, pool *scheduler.Pool, metrics *workerPkg.WorkerMetrics) {
	startTime := time.Now()
	metrics.RecordJobRun("started")
	logger.Info("aggregate_all sweep started")

	ctx := context.Background()
	results, err := service.AggregateAll(ctx, 0, false, false, pool)
	if err != nil {
		logger.Error("aggregate_all sweep failed", slog.Any("error", err))
		metrics.RecordJobRun("failure")
		metrics.RecordJobDuration(time.Since(startTime).Seconds())
		return
	}

	metrics.RecordJobRun("success")
	metrics.RecordJobDuration(time.Since(startTime).Seconds())
	metrics.RecordFeedsProcessed(len(results))
	metrics.RecordLastSuccess()

	logger.Info("aggregate_all sweep queued", slog.Int("feeds_queued", len(results)))
}
