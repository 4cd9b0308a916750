package repository

import (
	"context"
	"time"

	"feedstream/internal/domain/entity"
)

// StreamOrder controls the ordering of ArticleFilter results.
type StreamOrder int

const (
	// OrderNewestFirst is the default GReader ordering.
	OrderNewestFirst StreamOrder = iota
	// OrderOldestFirst is requested via r=o.
	OrderOldestFirst
)

// ArticleFilter is the filter grammar behind GET stream/items/ids
// (spec.md §4.8): a stream scope narrowed by read/starred flags and a
// date window, paginated by an opaque continuation cursor.
type ArticleFilter struct {
	UserID int64

	FeedIDs  []int64 // nil means "all the user's feeds"
	GroupID  *int64  // user/-/label/<name> scope
	OnlyRead    *bool // xt/it derived: nil = no constraint
	OnlyStarred *bool

	OlderThan *time.Time // ot
	NewerThan *time.Time // nt

	Order StreamOrder
	Limit int

	// Cursor resumes after the article with (CursorDate, CursorID) per
	// Order's direction; both zero means "start from the beginning".
	CursorDate time.Time
	CursorID   int64
}

// ArticleFields is a partial update: nil/zero fields are left untouched by
// UpdateArticleFields, matching spec.md's "never observe partial fields"
// atomicity requirement for writers.
type ArticleFields struct {
	Name         *string
	Author       *string
	Date         *time.Time
	RawContent   *string
	Content      *string
	IconURL      *string
	IconData     []byte
	IconType     *string
	MediaURL     *string
	MediaType    *string
	Duration     *int
	ThumbnailURL *string
	Score        *int
	ExternalID   *string
}

// StatePatch is one upsert target for BulkSetState.
type StatePatch struct {
	IsRead  *bool
	IsSaved *bool
}

// ArticleRepository is the Store's Article-facing surface (spec.md §4.1).
type ArticleRepository interface {
	// GetOrInsertArticle implements the dedupe invariant: at most one
	// Article per (feedID, identifier). Returns the existing row
	// unmodified when one is already present; created reports which case
	// occurred. Must be atomic under concurrent calls for the same pair.
	GetOrInsertArticle(ctx context.Context, feedID int64, identifier string, seed *entity.Article) (article *entity.Article, created bool, err error)

	UpdateArticleFields(ctx context.Context, articleID int64, fields ArticleFields) error

	Get(ctx context.Context, id int64) (*entity.Article, error)
	GetByIdentifier(ctx context.Context, feedID int64, identifier string) (*entity.Article, error)

	// ExistsTitleSince supports the duplicate-title skip (spec.md §4.4.3d):
	// true if an Article with this name exists in this feed created at or
	// after since.
	ExistsTitleSince(ctx context.Context, feedID int64, name string, since time.Time) (bool, error)

	// FindArticles resolves a stream filter to article ids plus an
	// opaque continuation cursor, honoring ArticleFilter.Limit.
	FindArticles(ctx context.Context, filter ArticleFilter) (ids []int64, nextCursor *string, err error)

	// DeleteArticlesWhere deletes Articles with Date before cutoff, except
	// those starred by any user, and returns the count removed
	// (spec.md §4.6 delete_old_articles).
	DeleteArticlesWhere(ctx context.Context, cutoff time.Time) (int64, error)

	// BulkSetState upserts one UserArticleState row per (userID,
	// articleID) pair inside a single transaction (spec.md §4.8 edit-tag,
	// mark-all-as-read).
	BulkSetState(ctx context.Context, userID int64, articleIDs []int64, patch StatePatch) error

	// GetState returns the per-user state for a set of articles; ids with
	// no row are simply absent from the result map (unread, unstarred).
	GetState(ctx context.Context, userID int64, articleIDs []int64) (map[int64]entity.UserArticleState, error)

	// VisibleToUser reports which of the given article ids belong to a
	// feed owned by userID (spec.md §8 state-scoping property).
	VisibleToUser(ctx context.Context, userID int64, articleIDs []int64) (map[int64]bool, error)
}
