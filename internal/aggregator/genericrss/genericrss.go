// Package genericrss implements the generic RSS/Atom aggregator: any feed
// URL the user supplies, passed through as-is. Grounded on the teacher's
// scraper.RSSFetcher (gofeed parse, circuit breaker + retry wrapped).
package genericrss

import (
	"context"
	"time"

	"feedstream/internal/aggregator"
	"feedstream/internal/aggregator/base"
	"feedstream/internal/domain/entity"
	"feedstream/internal/resilience/circuitbreaker"
	"feedstream/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
)

const ID = "generic_rss"

func init() {
	aggregator.Register(ID, func() aggregator.Aggregator { return New(nil) })
}

// Aggregator is the generic RSS/Atom aggregator. Base is nil-able: Fetch
// doesn't need it (gofeed does its own HTTP), but Process does for the
// content-enhancement fetch of each entry's page.
type Aggregator struct {
	Base    *base.Base
	breaker *circuitbreaker.CircuitBreaker
	retry   retry.Config
}

func New(b *base.Base) *Aggregator {
	return &Aggregator{
		Base:    b,
		breaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retry:   retry.FeedFetchConfig(),
	}
}

func (a *Aggregator) Metadata() aggregator.Metadata {
	return aggregator.Metadata{
		ID:                  ID,
		Type:                aggregator.TypeCustom,
		Name:                "RSS / Atom Feed",
		Description:         "Any standard RSS or Atom feed.",
		ExampleURL:          "https://example.com/feed.xml",
		IdentifierType:      aggregator.IdentifierURL,
		IdentifierLabel:     "Feed URL",
		IdentifierDescription: "The RSS or Atom feed URL.",
		IdentifierPlaceholder: "https://example.com/feed.xml",
		Options: aggregator.OptionSchema{
			"fetch_full_content": {
				Type:     "boolean",
				Label:    "Fetch full article content",
				HelpText: "When the feed only provides a summary, fetch the linked page for the full article body.",
				Default:  false,
			},
		},
	}
}

func (a *Aggregator) Fetch(ctx context.Context, feed *entity.Feed) ([]aggregator.RawEntry, error) {
	var entries []aggregator.RawEntry

	err := retry.WithBackoff(ctx, a.retry, func() error {
		res, err := a.breaker.Execute(func() (interface{}, error) {
			return a.parse(ctx, feed.Identifier)
		})
		if err != nil {
			return err
		}
		entries = res.([]aggregator.RawEntry)
		return nil
	})
	return entries, err
}

func (a *Aggregator) parse(ctx context.Context, feedURL string) ([]aggregator.RawEntry, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "FeedstreamBot/1.0"

	parsed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	out := make([]aggregator.RawEntry, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		content := it.Content
		if content == "" {
			content = it.Description
		}
		author := ""
		if it.Author != nil {
			author = it.Author.Name
		}

		out = append(out, aggregator.RawEntry{
			Identifier: it.Link,
			URL:        it.Link,
			Title:      it.Title,
			Author:     author,
			Date:       entryDate(it),
			Content:    content,
		})
	}
	return out, nil
}

func entryDate(it *gofeed.Item) string {
	if it.PublishedParsed != nil {
		return it.PublishedParsed.Format(time.RFC3339)
	}
	if it.UpdatedParsed != nil {
		return it.UpdatedParsed.Format(time.RFC3339)
	}
	return ""
}

func (a *Aggregator) Process(ctx context.Context, feed *entity.Feed, entry aggregator.RawEntry) (*entity.Article, error) {
	date := time.Now()
	if entry.Date != "" {
		if parsed, err := time.Parse(time.RFC3339, entry.Date); err == nil {
			date = parsed
		}
	}

	cfg := base.StageConfig{FetchMode: base.ModeNone}
	if fetchFull, _ := feed.Options["fetch_full_content"].(bool); fetchFull {
		cfg.FetchMode = base.ModeStatic
	}

	return a.Base.ProcessEntry(ctx, feed, entry, date, false, cfg)
}

// SetBase implements aggregator.BaseInjectable.
func (a *Aggregator) SetBase(b any) {
	if bb, ok := b.(*base.Base); ok {
		a.Base = bb
	}
}

var (
	_ aggregator.Aggregator      = (*Aggregator)(nil)
	_ aggregator.BaseInjectable = (*Aggregator)(nil)
)
