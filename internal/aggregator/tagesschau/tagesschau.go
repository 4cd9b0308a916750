// Package tagesschau implements the managed aggregator for Tagesschau.de
// (German public-broadcaster news): fixed RSS source, rendered-mode
// fetch with teaser/chrome removal, and a title/URL skip list that
// filters out video bulletins and podcast episodes this pipeline has no
// media player for. Grounded on
// original_source/legacy_backend/aggregators/tagesschau.py.
package tagesschau

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

const ID = "tagesschau"

const feedURL = "https://www.tagesschau.de/xml/rss2/"
const waitForSelector = "p.textabsatz"

var removeSelectors = []string{
	"div.teaser", "div.socialbuttons", "aside", "nav", "button",
	"div.bigfive", "div.metatextline", "script", "style", "iframe",
	"noscript", "svg",
}

// skipTitleTerms filters video-bulletin and podcast entries: this pipeline
// extracts text paragraphs, not video/audio players, so these would
// otherwise publish an empty article body.
var skipTitleTerms = []string{"tagesschau", "tagesthemen", "11KM-Podcast", "Podcast 15 Minuten"}

const skipURLSubstring = "bilder/blickpunkte"

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
		Name:        "Tagesschau",
		Description: "Specialized aggregator for Tagesschau.de (German public-broadcaster news). Extracts article text paragraphs and filters out video bulletins, podcasts, and image galleries.",
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
		if strings.Contains(it.Link, skipURLSubstring) {
			continue
		}
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
	for _, term := range skipTitleTerms {
		if strings.Contains(entry.Title, term) {
			return nil, nil // filtered content: video bulletins and podcast episodes
		}
	}

	date := time.Now()
	if entry.Date != "" {
		if parsed, err := time.Parse(time.RFC3339, entry.Date); err == nil {
			date = parsed
		}
	}

	stage := base.StageConfig{
		FetchMode:       base.ModeRendered,
		RemoveSelectors: removeSelectors,
		WaitForSelector: waitForSelector,
	}
	return a.Base.ProcessEntry(ctx, feed, entry, date, false, stage)
}

var (
	_ aggregator.Aggregator     = (*Aggregator)(nil)
	_ aggregator.BaseInjectable = (*Aggregator)(nil)
)
