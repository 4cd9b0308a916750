// Package fullhtml implements the aggregator for sites with no RSS feed:
// a listing page is scraped directly using feed-supplied CSS selectors.
// Grounded on the teacher's scraper.{NextJS,Remix,Webflow} family, which
// scraped JSON-in-script listings the same way this scrapes selector-
// addressed listings — goquery replaces the JSON extraction since the
// generic case has no predictable embedded data blob to parse.
package fullhtml

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"feedstream/internal/aggregator"
	"feedstream/internal/aggregator/base"
	"feedstream/internal/domain/entity"
	"feedstream/internal/infra/browser"

	"github.com/PuerkitoBio/goquery"
)

const ID = "full_html"

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
		Type:                aggregator.TypeCustom,
		Name:                "Full HTML Page (no RSS)",
		Description:         "Scrapes an article listing page directly using CSS selectors, for sites without a feed.",
		ExampleURL:          "https://example.com/blog",
		IdentifierType:      aggregator.IdentifierURL,
		IdentifierLabel:     "Listing page URL",
		IdentifierDescription: "The page listing articles (e.g. a blog index).",
		Options: aggregator.OptionSchema{
			"item_selector":    {Type: "string", Label: "Item selector", Required: true},
			"title_selector":   {Type: "string", Label: "Title selector", Required: true},
			"url_selector":     {Type: "string", Label: "URL selector (anchor)", Required: true},
			"date_selector":    {Type: "string", Label: "Date selector"},
			"date_format":      {Type: "string", Label: "Date format (Go reference layout)"},
			"url_prefix":       {Type: "string", Label: "URL prefix", HelpText: "Prepended to relative links"},
			"wait_for_selector": {Type: "string", Label: "Wait for selector (rendered fetch)"},
		},
	}
}

// scraperConfig decodes the feed's Options map into a ScraperConfig; the
// json tags on ScraperConfig match the option keys declared in Metadata,
// so a single marshal/unmarshal roundtrip does the work.
func scraperConfig(feed *entity.Feed) entity.ScraperConfig {
	var cfg entity.ScraperConfig
	raw, err := json.Marshal(feed.Options)
	if err != nil {
		return cfg
	}
	_ = json.Unmarshal(raw, &cfg)
	return cfg
}

func (a *Aggregator) Fetch(ctx context.Context, feed *entity.Feed) ([]aggregator.RawEntry, error) {
	cfg := scraperConfig(feed)
	if cfg.ItemSelector == "" || cfg.TitleSelector == "" || cfg.URLSelector == "" {
		return nil, fmt.Errorf("full_html feed %d: item_selector/title_selector/url_selector are required", feed.ID)
	}

	mode := base.ModeStatic
	if cfg.WaitForSelector != "" {
		mode = base.ModeRendered
	}

	raw, ferr := a.fetchListing(ctx, feed.Identifier, mode, cfg.WaitForSelector)
	if ferr != nil {
		return nil, ferr
	}

	doc, perr := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if perr != nil {
		return nil, fmt.Errorf("parse listing page: %w", perr)
	}

	var entries []aggregator.RawEntry
	doc.Find(cfg.ItemSelector).Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find(cfg.TitleSelector).First().Text())
		href, _ := s.Find(cfg.URLSelector).First().Attr("href")
		if title == "" || href == "" {
			return
		}
		if cfg.URLPrefix != "" && !strings.HasPrefix(href, "http") {
			href = cfg.URLPrefix + href
		}

		var dateStr string
		if cfg.DateSelector != "" {
			dateText := strings.TrimSpace(s.Find(cfg.DateSelector).First().Text())
			if dateText != "" {
				layout := cfg.DateFormat
				if layout == "" {
					layout = time.RFC3339
				}
				if parsed, derr := time.Parse(layout, dateText); derr == nil {
					dateStr = parsed.Format(time.RFC3339)
				}
			}
		}

		entries = append(entries, aggregator.RawEntry{
			Identifier: href,
			URL:        href,
			Title:      title,
			Date:       dateStr,
		})
	})

	return entries, nil
}

func (a *Aggregator) fetchListing(ctx context.Context, url string, mode base.FetchMode, waitFor string) (string, error) {
	switch mode {
	case base.ModeRendered:
		res, err := a.Base.Browser.Fetch(ctx, url, browser.FetchOptions{WaitForSelector: waitFor})
		if err != nil {
			return "", err
		}
		return res.HTML, nil
	default:
		body, err := a.Base.Static.Fetch(ctx, url)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}
}

func (a *Aggregator) Process(ctx context.Context, feed *entity.Feed, entry aggregator.RawEntry) (*entity.Article, error) {
	cfg := scraperConfig(feed)
	date := time.Now()
	if entry.Date != "" {
		if parsed, err := time.Parse(time.RFC3339, entry.Date); err == nil {
			date = parsed
		}
	}

	stage := base.StageConfig{FetchMode: base.ModeStatic}
	if cfg.WaitForSelector != "" {
		stage.FetchMode = base.ModeRendered
		stage.WaitForSelector = cfg.WaitForSelector
	}

	return a.Base.ProcessEntry(ctx, feed, entry, date, false, stage)
}

var (
	_ aggregator.Aggregator     = (*Aggregator)(nil)
	_ aggregator.BaseInjectable = (*Aggregator)(nil)
)
