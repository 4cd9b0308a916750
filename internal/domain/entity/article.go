// Package entity defines the core domain entities and validation logic:
// the normalized Article/Feed/User graph shared by the aggregation
// pipeline, the scheduler, and the GReader-compatible stream engine.
package entity

import "time"

// Article is a normalized item produced by an Aggregator. Identity is the
// pair (FeedID, Identifier) — at most one Article exists per pair; this is
// the deduplication key enforced by the Store.
type Article struct {
	ID          int64
	FeedID      int64
	Identifier  string
	Name        string
	Author      string
	Date        time.Time
	RawContent  string
	Content     string
	IconURL     string
	IconData    []byte
	IconType    string
	MediaURL    string
	MediaType   string
	Duration    int
	ThumbnailURL string
	Score        int
	ExternalID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserArticleState holds per-user read/starred flags for an Article. An
// absent row means unread and unstarred; callers must never synthesize a
// zero-value UserArticleState and treat it as "exists".
type UserArticleState struct {
	ID        int64
	UserID    int64
	ArticleID int64
	IsRead    bool
	IsSaved   bool
	UpdatedAt time.Time
}
