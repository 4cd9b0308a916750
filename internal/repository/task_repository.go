package repository

import (
	"context"
	"time"
)

// TaskStatus is the terminal or in-flight state of a scheduled job.
type TaskStatus string

const (
	TaskStatusRunning TaskStatus = "running"
	TaskStatusSuccess TaskStatus = "success"
	TaskStatusFailure TaskStatus = "failure"
)

// TaskRecord is a durable row for one Scheduler job execution (spec.md
// §4.7): workers record start/stop timestamps and outcome so housekeeping
// can scan and prune them.
type TaskRecord struct {
	ID        int64
	Name      string
	Status    TaskStatus
	Result    string
	Error     string
	StartedAt time.Time
	StoppedAt *time.Time
}

// TaskRepository persists Scheduler task outcomes.
type TaskRepository interface {
	Create(ctx context.Context, rec *TaskRecord) (int64, error)
	MarkFinished(ctx context.Context, id int64, status TaskStatus, result, errMsg string, stoppedAt time.Time) error
	Get(ctx context.Context, id int64) (*TaskRecord, error)
	// DeleteOlderThan implements the housekeeping job: rows with
	// StoppedAt before cutoff are removed. Returns the count removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
