package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feedstream/internal/domain/entity"
	"feedstream/internal/repository"
)

type FeedGroupRepo struct{ db *sql.DB }

func NewFeedGroupRepo(db *sql.DB) *FeedGroupRepo { return &FeedGroupRepo{db: db} }

var _ repository.FeedGroupRepository = (*FeedGroupRepo)(nil)

func (r *FeedGroupRepo) Get(ctx context.Context, id int64) (*entity.FeedGroup, error) {
	var g entity.FeedGroup
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, name FROM feed_groups WHERE id = ?`, id).Scan(&g.ID, &g.UserID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	return &g, err
}

func (r *FeedGroupRepo) GetByName(ctx context.Context, userID int64, name string) (*entity.FeedGroup, error) {
	var g entity.FeedGroup
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, name FROM feed_groups WHERE user_id = ? AND name = ?`, userID, name).
		Scan(&g.ID, &g.UserID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	return &g, err
}

func (r *FeedGroupRepo) ListByUser(ctx context.Context, userID int64) ([]*entity.FeedGroup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, name FROM feed_groups WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*entity.FeedGroup
	for rows.Next() {
		var g entity.FeedGroup
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}

func (r *FeedGroupRepo) GetOrCreate(ctx context.Context, userID int64, name string) (*entity.FeedGroup, error) {
	existing, err := r.GetByName(ctx, userID, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, entity.ErrNotFound) {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO feed_groups (user_id, name) VALUES (?, ?)`, userID, name)
	if err != nil {
		return nil, fmt.Errorf("create feed group: %w", err)
	}
	id, _ := res.LastInsertId()
	return &entity.FeedGroup{ID: id, UserID: userID, Name: name}, nil
}

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

var _ repository.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Get(ctx context.Context, id int64) (*entity.User, error) {
	var u entity.User
	err := r.db.QueryRowContext(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	return &u, err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	err := r.db.QueryRowContext(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	return &u, err
}

func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, u.Email, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	u.ID, _ = res.LastInsertId()
	return nil
}

type AuthTokenRepo struct{ db *sql.DB }

func NewAuthTokenRepo(db *sql.DB) *AuthTokenRepo { return &AuthTokenRepo{db: db} }

var _ repository.AuthTokenRepository = (*AuthTokenRepo)(nil)

func (r *AuthTokenRepo) Create(ctx context.Context, t *entity.AuthToken) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO auth_tokens (user_id, token, expires_at) VALUES (?, ?, ?)`,
		t.UserID, t.Token, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create auth token: %w", err)
	}
	t.ID, _ = res.LastInsertId()
	return nil
}

func (r *AuthTokenRepo) GetByToken(ctx context.Context, token string) (*entity.AuthToken, error) {
	var t entity.AuthToken
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, token, expires_at, created_at FROM auth_tokens WHERE token = ?`, token).
		Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	return &t, err
}

func (r *AuthTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE expires_at IS NOT NULL AND expires_at < ?`, time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type TaskRepo struct{ db *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{db: db} }

var _ repository.TaskRepository = (*TaskRepo)(nil)

func (r *TaskRepo) Create(ctx context.Context, rec *repository.TaskRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO tasks (name, status, started_at) VALUES (?, ?, ?)`,
		rec.Name, rec.Status, rec.StartedAt)
	if err != nil {
		return 0, fmt.Errorf("create task record: %w", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

func (r *TaskRepo) MarkFinished(ctx context.Context, id int64, status repository.TaskStatus, result, errMsg string, stoppedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tasks SET status=?, result=?, error=?, stopped_at=? WHERE id=?`,
		status, result, errMsg, stoppedAt, id)
	return err
}

func (r *TaskRepo) Get(ctx context.Context, id int64) (*repository.TaskRecord, error) {
	var rec repository.TaskRecord
	var result, errMsg sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT id, name, status, result, error, started_at, stopped_at FROM tasks WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Name, &rec.Status, &result, &errMsg, &rec.StartedAt, &rec.StoppedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	rec.Result, rec.Error = result.String, errMsg.String
	return &rec, err
}

func (r *TaskRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE stopped_at IS NOT NULL AND stopped_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
