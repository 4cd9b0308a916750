// Package caschys implements the managed aggregator for Caschys Blog
// (German tech blog): fixed RSS source, rendered-mode fetch of the
// entry-inner content element, Amazon affiliate widget removal, and a
// title filter for sponsored ("Anzeige") posts. Grounded on
// original_source/legacy_backend/aggregators/caschys_blog.py.
package caschys

import (
	"context"
	"strings"
	"time"

	"feedstream/internal/aggregator"
	"feedstream/internal/aggregator/base"
	"feedstream/internal/domain/entity"
	"feedstream/internal/resilience/circuitbreaker"
	"feedstream/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
)

const ID = "caschys_blog"

const feedURL = "https://stadt-bremerhaven.de/feed/"
const contentSelector = ".entry-inner"
const waitForSelector = ".entry-inner"

var removeSelectors = []string{".aawp", ".aawp-disclaimer", "script", "style", "iframe", "noscript", "svg"}

const sponsoredMarker = "(Anzeige)"

func init() {
	aggregator.Register(ID, func() aggregator.Aggregator { return New(nil) })
}

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

func (a *Aggregator) SetBase(b any) {
	if bb, ok := b.(*base.Base); ok {
		a.Base = bb
	}
}

func (a *Aggregator) Metadata() aggregator.Metadata {
	return aggregator.Metadata{
		ID:                 ID,
		Type:               aggregator.TypeManaged,
		Name:               "Caschys Blog",
		Description:        "Specialized aggregator for Caschys Blog (German tech blog). Extracts article content and removes Amazon affiliate widgets and sponsored posts.",
		ExampleURL:         feedURL,
		IdentifierEditable: false,
	}
}

func (a *Aggregator) Fetch(ctx context.Context, feed *entity.Feed) ([]aggregator.RawEntry, error) {
	var entries []aggregator.RawEntry
	err := retry.WithBackoff(ctx, a.retry, func() error {
		res, err := a.breaker.Execute(func() (interface{}, error) {
			return a.parse(ctx)
		})
		if err != nil {
			return err
		}
		entries = res.([]aggregator.RawEntry)
		return nil
	})
	return entries, err
}

func (a *Aggregator) parse(ctx context.Context) ([]aggregator.RawEntry, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "FeedstreamBot/1.0"
	parsed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	out := make([]aggregator.RawEntry, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		date := ""
		if it.PublishedParsed != nil {
			date = it.PublishedParsed.Format(time.RFC3339)
		}
		out = append(out, aggregator.RawEntry{
			Identifier: it.Link,
			URL:        it.Link,
			Title:      it.Title,
			Date:       date,
			Content:    it.Description,
		})
	}
	return out, nil
}

func (a *Aggregator) Process(ctx context.Context, feed *entity.Feed, entry aggregator.RawEntry) (*entity.Article, error) {
	if strings.Contains(entry.Title, sponsoredMarker) {
		return nil, nil // filtered content: sponsored post
	}

	date := time.Now()
	if entry.Date != "" {
		if parsed, err := time.Parse(time.RFC3339, entry.Date); err == nil {
			date = parsed
		}
	}

	stage := base.StageConfig{
		FetchMode:       base.ModeRendered,
		ContentSelector: contentSelector,
		RemoveSelectors: removeSelectors,
		WaitForSelector: waitForSelector,
	}
	return a.Base.ProcessEntry(ctx, feed, entry, date, false, stage)
}

var (
	_ aggregator.Aggregator     = (*Aggregator)(nil)
	_ aggregator.BaseInjectable = (*Aggregator)(nil)
)
