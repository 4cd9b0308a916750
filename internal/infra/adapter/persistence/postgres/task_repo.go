package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feedstream/internal/domain/entity"
	"feedstream/internal/repository"
)

// TaskRepo is the Postgres-backed TaskRepository used by the Scheduler (C7)
// to durably record job outcomes for housekeeping.
type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{db: db} }

var _ repository.TaskRepository = (*TaskRepo)(nil)

func (r *TaskRepo) Create(ctx context.Context, rec *repository.TaskRecord) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (name, status, started_at) VALUES ($1, $2, $3) RETURNING id`,
		rec.Name, rec.Status, rec.StartedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create task record: %w", err)
	}
	return id, nil
}

func (r *TaskRepo) MarkFinished(ctx context.Context, id int64, status repository.TaskStatus, result, errMsg string, stoppedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status = $2, result = $3, error = $4, stopped_at = $5 WHERE id = $1`,
		id, status, result, errMsg, stoppedAt)
	if err != nil {
		return fmt.Errorf("mark task finished: %w", err)
	}
	return nil
}

func (r *TaskRepo) Get(ctx context.Context, id int64) (*repository.TaskRecord, error) {
	var rec repository.TaskRecord
	var result, errMsg sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, status, result, error, started_at, stopped_at FROM tasks WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Name, &rec.Status, &result, &errMsg, &rec.StartedAt, &rec.StoppedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task record: %w", err)
	}
	rec.Result = result.String
	rec.Error = errMsg.String
	return &rec, nil
}

func (r *TaskRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE stopped_at IS NOT NULL AND stopped_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old task records: %w", err)
	}
	return res.RowsAffected()
}
