// Package podcast implements the podcast-feed aggregator: an RSS feed
// whose entries carry an audio enclosure and iTunes namespace extensions.
// Grounded on original_source/legacy_backend/aggregators/podcast.py, with
// gofeed's built-in iTunes extension parsing replacing that file's manual
// entry.get("itunes_duration")-style field access.
package podcast

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"feedstream/internal/aggregator"
	"feedstream/internal/aggregator/base"
	"feedstream/internal/domain/entity"
	"feedstream/internal/resilience/circuitbreaker"
	"feedstream/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
)

const ID = "podcast"

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
		Type:                  aggregator.TypeCustom,
		Name:                  "Podcast",
		Description:           "An RSS podcast feed: extracts the audio enclosure, iTunes duration, and episode artwork.",
		ExampleURL:            "https://example.com/podcast.xml",
		IdentifierType:        aggregator.IdentifierURL,
		IdentifierLabel:       "Feed URL",
		IdentifierDescription: "The podcast's RSS feed URL.",
		IdentifierPlaceholder: "https://example.com/podcast.xml",
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
		audioURL, audioType := extractEnclosure(it)
		if audioURL == "" {
			continue
		}

		out = append(out, aggregator.RawEntry{
			Identifier: it.Link,
			URL:        it.Link,
			Title:      it.Title,
			Author:     authorName(it),
			Date:       entryDate(it),
			Content:    extractDescription(it),
			MediaURL:   audioURL,
			MediaType:  audioType,
			Duration:   extractDuration(it),
			IconURL:    extractImage(it),
		})
	}
	return out, nil
}

func extractEnclosure(it *gofeed.Item) (url, mediaType string) {
	for _, enc := range it.Enclosures {
		if enc.URL == "" {
			continue
		}
		mediaType = enc.Type
		if mediaType == "" {
			mediaType = "audio/mpeg"
		}
		return enc.URL, mediaType
	}
	return "", ""
}

func extractDuration(it *gofeed.Item) int {
	if it.ITunesExt == nil {
		return 0
	}
	seconds, _ := parseDurationToSeconds(it.ITunesExt.Duration)
	return seconds
}

// parseDurationToSeconds supports HH:MM:SS, MM:SS, and plain seconds.
func parseDurationToSeconds(duration string) (int, bool) {
	duration = strings.TrimSpace(duration)
	if duration == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(duration); err == nil {
		return n, true
	}

	parts := strings.Split(duration, ":")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, false
		}
		nums[i] = n
	}
	switch len(nums) {
	case 3:
		return nums[0]*3600 + nums[1]*60 + nums[2], true
	case 2:
		return nums[0]*60 + nums[1], true
	default:
		return 0, false
	}
}

func extractDescription(it *gofeed.Item) string {
	if it.Content != "" {
		return it.Content
	}
	if it.ITunesExt != nil && it.ITunesExt.Summary != "" {
		return it.ITunesExt.Summary
	}
	return it.Description
}

func extractImage(it *gofeed.Item) string {
	if it.ITunesExt != nil && it.ITunesExt.Image != "" {
		return it.ITunesExt.Image
	}
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	return ""
}

func authorName(it *gofeed.Item) string {
	if it.Author != nil {
		return it.Author.Name
	}
	if it.ITunesExt != nil && it.ITunesExt.Author != "" {
		return it.ITunesExt.Author
	}
	return ""
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

	playerEntry := entry
	playerEntry.Content = playerHTML(entry) + entry.Content

	stage := base.StageConfig{FetchMode: base.ModeNone}
	article, err := a.Base.ProcessEntry(ctx, feed, playerEntry, date, false, stage)
	if err != nil {
		return nil, err
	}
	if entry.IconURL != "" {
		article.IconURL = entry.IconURL
		article.ThumbnailURL = entry.IconURL
	}
	return article, nil
}

func playerHTML(entry aggregator.RawEntry) string {
	var b strings.Builder
	b.WriteString(`<div class="podcast-player">`)
	b.WriteString(fmt.Sprintf(`<audio controls preload="metadata"><source src="%s" type="%s">Your browser does not support the audio element.</audio>`, entry.MediaURL, entry.MediaType))
	if entry.Duration > 0 {
		b.WriteString(fmt.Sprintf(`<span class="podcast-duration">%s</span>`, formatDuration(entry.Duration)))
	}
	b.WriteString(fmt.Sprintf(`<a href="%s" class="podcast-download" download>Download Episode</a>`, entry.MediaURL))
	b.WriteString(`</div>`)
	return b.String()
}

func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

var (
	_ aggregator.Aggregator     = (*Aggregator)(nil)
	_ aggregator.BaseInjectable = (*Aggregator)(nil)
)
