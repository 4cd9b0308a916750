// Package explosm implements the managed aggregator for Explosm/Cyanide &
// Happiness: fixed RSS source, rendered-mode fetch of the comic image
// element, with the surrounding link/meta/lazy-load chrome removed.
// Grounded on original_source/legacy_backend/aggregators/explosm.py.
package explosm

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

const ID = "explosm"

const feedURL = "https://explosm.net/rss.xml"
const contentSelector = "#comic"
const waitForSelector = "#comic"

var removeSelectors = []string{
	`div[class*="MainComic__LinkContainer"]`, `div[class*="MainComic__MetaContainer"]`,
	`img[loading~="lazy"]`, "aside", "script", "style", "iframe",
}

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
		ID:          ID,
		Type:        aggregator.TypeManaged,
		Name:        "Cyanide & Happiness",
		Description: "Daily webcomic featuring dark humor and stick figure comedy from Explosm Entertainment.",
		ExampleURL:  feedURL,
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
		})
	}
	return out, nil
}

func (a *Aggregator) Process(ctx context.Context, feed *entity.Feed, entry aggregator.RawEntry) (*entity.Article, error) {
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
