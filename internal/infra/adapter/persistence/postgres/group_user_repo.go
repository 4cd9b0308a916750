package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"feedstream/internal/domain/entity"
	"feedstream/internal/repository"
)

// FeedGroupRepo is the Postgres-backed FeedGroupRepository (GReader labels).
type FeedGroupRepo struct {
	db *sql.DB
}

func NewFeedGroupRepo(db *sql.DB) *FeedGroupRepo { return &FeedGroupRepo{db: db} }

var _ repository.FeedGroupRepository = (*FeedGroupRepo)(nil)

func (r *FeedGroupRepo) Get(ctx context.Context, id int64) (*entity.FeedGroup, error) {
	var g entity.FeedGroup
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, name FROM feed_groups WHERE id = $1`, id).
		Scan(&g.ID, &g.UserID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get feed group: %w", err)
	}
	return &g, nil
}

func (r *FeedGroupRepo) GetByName(ctx context.Context, userID int64, name string) (*entity.FeedGroup, error) {
	var g entity.FeedGroup
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, name FROM feed_groups WHERE user_id = $1 AND name = $2`,
		userID, name).Scan(&g.ID, &g.UserID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get feed group by name: %w", err)
	}
	return &g, nil
}

func (r *FeedGroupRepo) ListByUser(ctx context.Context, userID int64) ([]*entity.FeedGroup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, name FROM feed_groups WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list feed groups: %w", err)
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
	var g entity.FeedGroup
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO feed_groups (user_id, name) VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, user_id, name`, userID, name).Scan(&g.ID, &g.UserID, &g.Name)
	if err != nil {
		return nil, fmt.Errorf("get or create feed group: %w", err)
	}
	return &g, nil
}

// UserRepo is the Postgres-backed UserRepository.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

var _ repository.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Get(ctx context.Context, id int64) (*entity.User, error) {
	var u entity.User
	err := r.db.QueryRowContext(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	err := r.db.QueryRowContext(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id, created_at`,
		u.Email, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
}

// AuthTokenRepo is the Postgres-backed AuthTokenRepository.
type AuthTokenRepo struct {
	db *sql.DB
}

func NewAuthTokenRepo(db *sql.DB) *AuthTokenRepo { return &AuthTokenRepo{db: db} }

var _ repository.AuthTokenRepository = (*AuthTokenRepo)(nil)

func (r *AuthTokenRepo) Create(ctx context.Context, t *entity.AuthToken) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO auth_tokens (user_id, token, expires_at) VALUES ($1, $2, $3) RETURNING id, created_at`,
		t.UserID, t.Token, t.ExpiresAt).Scan(&t.ID, &t.CreatedAt)
}

func (r *AuthTokenRepo) GetByToken(ctx context.Context, token string) (*entity.AuthToken, error) {
	var t entity.AuthToken
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token, expires_at, created_at FROM auth_tokens WHERE token = $1`, token).
		Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get auth token: %w", err)
	}
	return &t, nil
}

func (r *AuthTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE expires_at IS NOT NULL AND expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return res.RowsAffected()
}
