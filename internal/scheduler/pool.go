// Package scheduler implements the Scheduler (C7): a standing worker pool
// that accepts ad hoc named jobs and runs them on a bounded set of
// goroutines, recording a TaskRecord row per run via the Store. Grounded
// on the teacher's internal/infra/worker (cron-driven daily crawl, health
// server, fail-open config loading) generalized from "one fixed cron job"
// into "arbitrary Enqueue calls plus one fixed housekeeping cron job", and
// on usecase/fetch.Service's errgroup fan-out idiom for the pool itself.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"feedstream/internal/repository"

	"github.com/robfig/cron/v3"
)

// Config controls pool size and the housekeeping cron job.
type Config struct {
	Workers          int           // concurrent job goroutines, default 4
	QueueSize        int           // buffered job channel capacity, default 256
	JobTimeout       time.Duration // per-job context timeout, default 30m
	HousekeepingCron string        // robfig/cron expression, default "0 3 * * *"
	Timezone         string        // IANA timezone for the cron, default "UTC"
	TaskRetention    time.Duration // housekeeping cutoff age, default 7 days
}

// DefaultConfig mirrors the teacher's worker.DefaultConfig defaults where
// the concepts line up (30m job timeout matches CrawlTimeout); the
// housekeeping schedule and retention window are new to this spec.
func DefaultConfig() Config {
	return Config{
		Workers:          4,
		QueueSize:        256,
		JobTimeout:       30 * time.Minute,
		HousekeepingCron: "0 3 * * *",
		Timezone:         "UTC",
		TaskRetention:    7 * 24 * time.Hour,
	}
}

type queuedJob struct {
	id   int64
	name string
	fn   func(ctx context.Context) (string, error)
}

// Pool is the standing worker pool. It satisfies usecase/aggregation's
// Enqueuer interface so the Aggregation Service can dispatch async
// aggregate_by_type/aggregate_all runs without importing this package.
type Pool struct {
	tasks   repository.TaskRepository
	logger  *slog.Logger
	jobs    chan queuedJob
	wg      sync.WaitGroup
	cron    *cron.Cron
	timeout time.Duration
	retain  time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// New builds a Pool, starts its worker goroutines, and starts the
// housekeeping cron job. Call Shutdown to stop both cleanly.
func New(tasks repository.TaskRepository, logger *slog.Logger, cfg Config) *Pool {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	if cfg.HousekeepingCron == "" {
		cfg.HousekeepingCron = def.HousekeepingCron
	}
	if cfg.Timezone == "" {
		cfg.Timezone = def.Timezone
	}
	if cfg.TaskRetention <= 0 {
		cfg.TaskRetention = def.TaskRetention
	}

	p := &Pool{
		tasks:   tasks,
		logger:  logger,
		jobs:    make(chan queuedJob, cfg.QueueSize),
		timeout: cfg.JobTimeout,
		retain:  cfg.TaskRetention,
		done:    make(chan struct{}),
	}

	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("scheduler: invalid timezone, using UTC",
			slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	p.cron = cron.New(cron.WithLocation(loc))
	if _, err := p.cron.AddFunc(cfg.HousekeepingCron, p.runHousekeeping); err != nil {
		logger.Error("scheduler: failed to schedule housekeeping job",
			slog.String("schedule", cfg.HousekeepingCron), slog.Any("error", err))
	} else {
		p.cron.Start()
	}

	return p
}

// Enqueue persists a running TaskRecord for name, then queues fn to run on
// the next free worker goroutine. It returns as soon as the record exists
// and the job is queued; it does not wait for fn to finish. There is no
// ordering guarantee between tasks dispatched this way.
func (p *Pool) Enqueue(ctx context.Context, name string, fn func(ctx context.Context) (string, error)) (int64, error) {
	rec := &repository.TaskRecord{
		Name:      name,
		Status:    repository.TaskStatusRunning,
		StartedAt: time.Now(),
	}
	id, err := p.tasks.Create(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("scheduler: create task record: %w", err)
	}

	job := queuedJob{id: id, name: name, fn: fn}
	select {
	case p.jobs <- job:
		return id, nil
	case <-ctx.Done():
		return id, ctx.Err()
	}
}

// GetTask exposes a task's recorded outcome, e.g. for a status endpoint.
func (p *Pool) GetTask(ctx context.Context, id int64) (*repository.TaskRecord, error) {
	return p.tasks.Get(ctx, id)
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.run(job)
		case <-p.done:
			return
		}
	}
}

func (p *Pool) run(job queuedJob) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	result, err := job.fn(ctx)

	status := repository.TaskStatusSuccess
	errMsg := ""
	if err != nil {
		status = repository.TaskStatusFailure
		errMsg = err.Error()
		p.logger.Error("scheduler: job failed", slog.String("job", job.name), slog.Any("error", err))
	}

	if mErr := p.tasks.MarkFinished(context.Background(), job.id, status, result, errMsg, time.Now()); mErr != nil {
		p.logger.Error("scheduler: failed to persist task outcome",
			slog.String("job", job.name), slog.Int64("task_id", job.id), slog.Any("error", mErr))
	}
}

func (p *Pool) runHousekeeping() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-p.retain)
	n, err := p.tasks.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("scheduler: housekeeping failed", slog.Any("error", err))
		return
	}
	p.logger.Info("scheduler: housekeeping completed", slog.Int64("deleted", n), slog.Time("cutoff", cutoff))
}

// Shutdown stops the housekeeping cron and waits for in-flight jobs to
// finish, or ctx expires first. Queued-but-not-started jobs are abandoned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.cron.Stop()
		close(p.done)
	})

	waited := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
