// Package reddit implements the social aggregator for subreddits, backed
// by the vartanbeno/go-reddit/v2 client. Grounded on
// original_source/legacy_backend/aggregators/reddit.py's
// normalize_subreddit/validate_subreddit identifier handling; PRAW's API
// calls are replaced by go-reddit/v2's read-only client.
package reddit

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"feedstream/internal/aggregator"
	"feedstream/internal/aggregator/base"
	"feedstream/internal/domain/entity"

	"github.com/vartanbeno/go-reddit/v2/reddit"
	"github.com/yuin/goldmark"
)

const ID = "reddit"

func init() {
	aggregator.Register(ID, func() aggregator.Aggregator { return New(nil) })
}

type Aggregator struct {
	Base *base.Base
}

func New(b *base.Base) *Aggregator { return &Aggregator{Base: b} }

func (a *Aggregator) SetBase(b any) {
	if bb, ok := b.(*base.Base); ok {
		a.Base = bb
	}
}

func (a *Aggregator) Metadata() aggregator.Metadata {
	return aggregator.Metadata{
		ID:                  ID,
		Type:                aggregator.TypeSocial,
		Name:                "Reddit",
		Description:         "Posts from a subreddit.",
		ExampleURL:          "https://reddit.com/r/golang",
		IdentifierType:      aggregator.IdentifierString,
		IdentifierLabel:     "Subreddit",
		IdentifierDescription: "Subreddit name, with or without the r/ prefix.",
		IdentifierPlaceholder: "golang",
		IdentifierEditable:  true,
		Options: aggregator.OptionSchema{
			"sort_by": {
				Type:    "choice",
				Label:   "Sort",
				Default: "hot",
				Choices: []string{"hot", "new", "top", "rising"},
			},
		},
	}
}

var subredditURLPattern = regexp.MustCompile(`(?:reddit\.com)?/r/([a-zA-Z0-9_]+)`)

// NormalizeSubreddit handles "python", "r/python", "/r/python", and full
// reddit.com URLs, all collapsing to "python".
func NormalizeSubreddit(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if m := subredditURLPattern.FindStringSubmatch(identifier); len(m) == 2 {
		return m[1]
	}
	identifier = strings.TrimPrefix(identifier, "/r/")
	identifier = strings.TrimPrefix(identifier, "r/")
	return identifier
}

var subredditNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{2,21}$`)

// ValidateSubreddit reports whether identifier normalizes to a
// syntactically valid subreddit name.
func ValidateSubreddit(identifier string) (bool, string) {
	if identifier == "" {
		return false, "subreddit is required"
	}
	name := NormalizeSubreddit(identifier)
	if !subredditNamePattern.MatchString(name) {
		return false, "invalid subreddit name: use 2-21 alphanumeric characters or underscores"
	}
	return true, ""
}

func (a *Aggregator) Fetch(ctx context.Context, feed *entity.Feed) ([]aggregator.RawEntry, error) {
	ok, reason := ValidateSubreddit(feed.Identifier)
	if !ok {
		return nil, fmt.Errorf("reddit feed %d: %s", feed.ID, reason)
	}
	subreddit := NormalizeSubreddit(feed.Identifier)

	client, err := reddit.NewReadonlyClient()
	if err != nil {
		return nil, fmt.Errorf("create reddit client: %w", err)
	}

	sortBy, _ := feed.Options["sort_by"].(string)
	opts := &reddit.ListPostOptions{ListOptions: reddit.ListOptions{Limit: 50}}

	var posts []*reddit.Post
	switch sortBy {
	case "new":
		posts, _, err = client.Subreddit.NewPosts(ctx, subreddit, opts)
	case "top":
		posts, _, err = client.Subreddit.TopPosts(ctx, subreddit, &reddit.ListPostOptions{ListOptions: opts.ListOptions})
	case "rising":
		posts, _, err = client.Subreddit.RisingPosts(ctx, subreddit, opts)
	default:
		posts, _, err = client.Subreddit.HotPosts(ctx, subreddit, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch r/%s posts: %w", subreddit, err)
	}

	entries := make([]aggregator.RawEntry, 0, len(posts))
	for _, p := range posts {
		body := p.Body
		if body == "" {
			body = p.URL
		}
		entries = append(entries, aggregator.RawEntry{
			Identifier: p.FullID,
			URL:        "https://reddit.com" + p.Permalink,
			Title:      p.Title,
			Author:     p.Author,
			Date:       p.Created.Time.Format(time.RFC3339),
			Content:    body,
			MediaURL:   p.URL,
		})
	}
	return entries, nil
}

func (a *Aggregator) Process(ctx context.Context, feed *entity.Feed, entry aggregator.RawEntry) (*entity.Article, error) {
	date := time.Now()
	if entry.Date != "" {
		if parsed, err := time.Parse(time.RFC3339, entry.Date); err == nil {
			date = parsed
		}
	}

	var bodyHTML strings.Builder
	if err := goldmark.Convert([]byte(html.UnescapeString(entry.Content)), &bodyHTML); err != nil {
		bodyHTML.Reset()
		bodyHTML.WriteString(entry.Content)
	}

	processedEntry := entry
	processedEntry.Content = bodyHTML.String()

	stage := base.StageConfig{FetchMode: base.ModeNone}
	return a.Base.ProcessEntry(ctx, feed, processedEntry, date, false, stage)
}

var (
	_ aggregator.Aggregator     = (*Aggregator)(nil)
	_ aggregator.BaseInjectable = (*Aggregator)(nil)
)
