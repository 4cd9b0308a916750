// Package meinmmo implements the managed aggregator for Mein-MMO.de
// (German gaming news): fixed RSS source, rendered-mode fetch of the
// entry-content element, ad/pagination chrome removal, and conversion of
// YouTube/Twitter/Reddit embed placeholders into plain links (this
// pipeline has no consent-wall iframe renderer to resolve them against).
// Grounded on original_source/legacy_backend/aggregators/mein_mmo.py.
package meinmmo

import (
	"context"
	"strings"
	"time"

	"feedstream/internal/aggregator"
	"feedstream/internal/aggregator/base"
	"feedstream/internal/domain/entity"
	"feedstream/internal/resilience/circuitbreaker"
	"feedstream/internal/resilience/retry"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const ID = "mein_mmo"

const feedURL = "https://mein-mmo.de/feed/"
const contentSelector = "div.gp-entry-content"
const waitForSelector = "div.gp-entry-content"

var removeSelectors = []string{
	"div.wp-block-mmo-video", "div.wp-block-mmo-recirculation-box",
	"div.reading-position-indicator-end", "label.toggle",
	"a.wp-block-mmo-content-box", "ul.page-numbers", ".post-page-numbers",
	"#ftwp-container-outer", "script", "style", "iframe", "noscript",
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
		Name:        "Mein-MMO",
		Description: "Specialized aggregator for Mein-MMO.de (German gaming news). Extracts article content, removes ads and tracking, and standardizes embeds to plain links.",
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

// Process runs the standard rendered-fetch/extract/sanitize pipeline and
// then rewrites YouTube/Twitter/Reddit embed placeholders left in the
// extracted content into plain links, since this pipeline has no
// consent-wall iframe renderer to resolve them against.
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

	article, err := a.Base.ProcessEntry(ctx, feed, entry, date, false, stage)
	if err != nil {
		return nil, err
	}
	article.Content = convertEmbedsToLinks(article.Content)
	return article, nil
}

// convertEmbedsToLinks replaces YouTube/Twitter/Reddit embed figures with
// plain links, since this pipeline has no consent-wall iframe renderer.
func convertEmbedsToLinks(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	doc.Find("figure").Each(func(_ int, figure *goquery.Selection) {
		var target, label string
		figure.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
			href, _ := link.Attr("href")
			switch {
			case strings.Contains(href, "youtube.com"), strings.Contains(href, "youtu.be"):
				target, label = cleanEmbedURL(href, true), "Watch on YouTube"
				return false
			case strings.Contains(href, "twitter.com"), strings.Contains(href, "x.com"):
				target, label = cleanEmbedURL(href, false), "View on X/Twitter"
				return false
			case strings.Contains(href, "reddit.com"):
				target, label = cleanEmbedURL(href, false), "View on Reddit"
				return false
			}
			return true
		})
		if target == "" {
			return
		}
		figure.ReplaceWithHtml(`<p><a href="` + target + `" target="_blank" rel="noopener">` + label + `</a></p>`)
	})

	rendered, err := doc.Html()
	if err != nil {
		return html
	}
	return rendered
}

func cleanEmbedURL(href string, keepWatchQuery bool) string {
	if idx := strings.Index(href, "?"); idx >= 0 {
		if keepWatchQuery && strings.Contains(href, "youtube.com/watch") {
			return href
		}
		return href[:idx]
	}
	return href
}

var (
	_ aggregator.Aggregator     = (*Aggregator)(nil)
	_ aggregator.BaseInjectable = (*Aggregator)(nil)
)
