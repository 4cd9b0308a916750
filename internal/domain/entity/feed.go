package entity

import (
	"errors"
	"time"
)

// Feed represents a user subscription to one aggregator-backed source.
// Identifier's meaning depends on the aggregator: a URL for RSS-style
// sources, a subreddit name for Reddit, a channel handle/id for YouTube.
//
// UserID is nil for a shared feed (original_source's "managed" feeds):
// visible read-only to every user, never writable by one. The Store
// honors this at read time (ListByUser/FindArticles return the union of
// the caller's own feeds and shared feeds); ownership checks
// (GetOwned/resolveOwnedFeed) never match a nil UserID, so shared feeds
// stay un-editable and un-unsubscribable by ordinary users.
type Feed struct {
	ID            int64
	UserID        *int64
	Name          string
	AggregatorID  string
	Identifier    string
	GroupID       *int64
	Enabled       bool
	Icon          string
	DailyLimit    int
	Options       map[string]any
	SkipDuplicates      bool
	UseCurrentTimestamp bool
	GenerateTitleImage  bool
	AddSourceFooter     bool
	IgnoreTitleContains   []string
	IgnoreContentContains []string
	ExcludeSelectors      []string
	RegexReplacements     []string
	LastCrawledAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the invariants spec.md §3 places on a Feed. It does not
// check Registry resolution; that is the Aggregator Registry's job at
// aggregation time (an unresolvable aggregator_id disables the feed on its
// next run, not at validation time).
func (f *Feed) Validate() error {
	if f.Identifier == "" {
		return errors.New("identifier must not be empty")
	}
	if f.AggregatorID == "" {
		return errors.New("aggregator_id must not be empty")
	}
	if f.Name == "" {
		return errors.New("name must not be empty")
	}
	return nil
}

// ScraperConfig is retained for the fullhtml aggregator variant, which
// still needs per-feed CSS selectors the way the teacher's Webflow/NextJS/
// Remix scrapers did; it now travels inside Feed.Options instead of as a
// first-class Feed field, since most aggregators don't need it.
type ScraperConfig struct {
	ItemSelector  string `json:"item_selector,omitempty"`
	TitleSelector string `json:"title_selector,omitempty"`
	DateSelector  string `json:"date_selector,omitempty"`
	URLSelector   string `json:"url_selector,omitempty"`
	DateFormat    string `json:"date_format,omitempty"`
	WaitForSelector string `json:"wait_for_selector,omitempty"`
	URLPrefix     string `json:"url_prefix,omitempty"`
}
