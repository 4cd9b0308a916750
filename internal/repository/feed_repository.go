package repository

import (
	"context"

	"feedstream/internal/domain/entity"
)

// FeedRepository is the Store's Feed-facing surface, grounded on the
// teacher's SourceRepository (Get/List/Create/Update/Delete/TouchCrawledAt)
// and generalized to per-user ownership and group membership.
type FeedRepository interface {
	Get(ctx context.Context, id int64) (*entity.Feed, error)
	// GetOwned returns the feed only if it belongs to userID, else
	// entity.ErrNotFound — callers use this to implement the 403 "cannot
	// modify other users' feeds" rule at the handler layer.
	GetOwned(ctx context.Context, userID, id int64) (*entity.Feed, error)
	GetByIdentifier(ctx context.Context, userID int64, aggregatorID, identifier string) (*entity.Feed, error)

	ListByUser(ctx context.Context, userID int64) ([]*entity.Feed, error)
	ListEnabled(ctx context.Context) ([]*entity.Feed, error)
	ListEnabledByAggregatorType(ctx context.Context, aggregatorType string) ([]*entity.Feed, error)

	Create(ctx context.Context, feed *entity.Feed) error
	Update(ctx context.Context, feed *entity.Feed) error
	Delete(ctx context.Context, id int64) error

	// SetEnabled is used both by subscription_edit (unsubscribe) and by
	// the Aggregation Service when a Registry lookup permanently fails.
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	TouchCrawledAt(ctx context.Context, id int64) error

	// CountAddedToday supports the daily-limit pacing calculation
	// (spec.md §4.4): Articles for this feed created since UTC midnight.
	CountAddedToday(ctx context.Context, feedID int64) (int, error)
}

// FeedGroupRepository backs GReader labels (spec.md §3 FeedGroup).
type FeedGroupRepository interface {
	Get(ctx context.Context, id int64) (*entity.FeedGroup, error)
	GetByName(ctx context.Context, userID int64, name string) (*entity.FeedGroup, error)
	ListByUser(ctx context.Context, userID int64) ([]*entity.FeedGroup, error)
	GetOrCreate(ctx context.Context, userID int64, name string) (*entity.FeedGroup, error)
}

// UserRepository backs login and ownership checks.
type UserRepository interface {
	Get(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
}

// AuthTokenRepository backs C9 (spec.md §4.9).
type AuthTokenRepository interface {
	Create(ctx context.Context, token *entity.AuthToken) error
	GetByToken(ctx context.Context, token string) (*entity.AuthToken, error)
	DeleteExpired(ctx context.Context) (int64, error)
}
