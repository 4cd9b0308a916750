// Package merkur implements the managed aggregator for Merkur.de (German
// regional news): a user-selectable regional RSS feed, rendered-mode
// fetch of the idjs-Story content element, and removal of tracking/
// recommendation chrome. Grounded on
// original_source/legacy_backend/aggregators/merkur.py.
package merkur

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

const ID = "merkur"

const defaultFeedURL = "https://www.merkur.de/rssfeed.rdf"
const contentSelector = ".idjs-Story"
const waitForSelector = ".idjs-Story"

var removeSelectors = []string{
	".id-DonaldBreadcrumb--default", ".id-StoryElement-headline",
	".lp_west_printAction", ".lp_west_webshareAction", ".id-Recommendation",
	".enclosure", ".id-Story-timestamp", ".id-Story-authors",
	".id-Story-interactionBar", ".id-Comments", ".id-ClsPrevention",
	"figcaption", "script", "style", "iframe", "noscript", "svg",
	".id-StoryElement-intestitialLink", ".id-StoryElement-embed--fanq",
}

// regionalFeeds mirrors the teacher's identifier_choices: the main feed
// plus one per Oberbayern/Oberland district edition.
var regionalFeeds = []string{"Main Feed", "Garmisch-Partenkirchen", "Würmtal", "Starnberg",
	"Fürstenfeldbruck", "Dachau", "Freising", "Erding", "Ebersberg", "München",
	"München Landkreis", "Holzkirchen", "Miesbach", "Region Tegernsee",
	"Bad Tölz", "Wolfratshausen", "Weilheim", "Schongau"}

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
		ID:                    ID,
		Type:                  aggregator.TypeManaged,
		Name:                  "Merkur",
		Description:           "Specialized aggregator for Merkur.de (German regional news). Extracts article content from idjs-Story elements and removes tracking and recommendation elements.",
		ExampleURL:            defaultFeedURL,
		IdentifierType:        aggregator.IdentifierURL,
		IdentifierLabel:       "Feed Selection",
		IdentifierDescription: "Select the Merkur edition to aggregate.",
		IdentifierPlaceholder: defaultFeedURL,
		IdentifierEditable:    true,
		IdentifierChoices:     regionalFeeds,
	}
}

func (a *Aggregator) Fetch(ctx context.Context, feed *entity.Feed) ([]aggregator.RawEntry, error) {
	feedURL := feed.Identifier
	if feedURL == "" {
		feedURL = defaultFeedURL
	}

	var entries []aggregator.RawEntry
	err := retry.WithBackoff(ctx, a.retry, func() error {
		res, err := a.breaker.Execute(func() (interface{}, error) {
			return parse(ctx, feedURL)
		})
		if err != nil {
			return err
		}
		entries = res.([]aggregator.RawEntry)
		return nil
	})
	return entries, err
}

func parse(ctx context.Context, feedURL string) ([]aggregator.RawEntry, error) {
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
