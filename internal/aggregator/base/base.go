package base

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"feedstream/internal/aggregator"
	"feedstream/internal/contentproc"
	"feedstream/internal/domain/entity"
	"feedstream/internal/infra/browser"
	"feedstream/internal/infra/httpclient"
)

// FetchMode picks how Base retrieves an entry's article page.
type FetchMode int

const (
	// ModeNone skips fetching the article page entirely; the entry's
	// RSS/API-provided Content is used as-is (podcast, reddit selftext).
	ModeNone FetchMode = iota
	// ModeStatic performs a plain GET (genericrss, most managed sites).
	ModeStatic
	// ModeRendered drives the headless browser pool (fullhtml with
	// WaitForSelector, oglaf's age gate, JS-heavy sites).
	ModeRendered
)

// StageConfig customizes Base.ProcessEntry per aggregator. Concrete
// aggregators build one of these (usually a package-level constant plus a
// per-feed override for fullhtml) instead of Python's mixin-override
// hierarchy.
type StageConfig struct {
	FetchMode          FetchMode
	ContentSelector    string // "" falls back to the whole body
	RemoveSelectors    []string
	WaitForSelector    string
	ClickSelector      string
	CustomSkipTerms    []string // e.g. heise's "Anzeige" sponsored-post marker
	GenerateTitleImage bool
}

// Base is the shared nine-stage pipeline every concrete Aggregator embeds.
// It does not implement aggregator.Aggregator itself — concrete
// aggregators call ProcessEntry from their own Process method, supplying
// the StageConfig and RawEntry for that feed.
type Base struct {
	Static  *httpclient.StaticFetcher
	Browser *browser.Pool
	Cache   *httpclient.URLCache
	HTTP    *http.Client // plain client for header-image lookups (fxtwitter)
}

func New(static *httpclient.StaticFetcher, pool *browser.Pool, cache *httpclient.URLCache) *Base {
	return &Base{
		Static:  static,
		Browser: pool,
		Cache:   cache,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// ShouldSkip implements pipeline stage 3. existsTitleSince should query the
// Store's (feed, name, created_at) index; callers pass it in rather than
// Base depending on the repository layer directly.
func (b *Base) ShouldSkip(
	ctx context.Context,
	feed *entity.Feed,
	entry aggregator.RawEntry,
	entryDate time.Time,
	forceRefresh bool,
	cfg StageConfig,
	existsTitleSince func(ctx context.Context, feedID int64, name string, since time.Time) (bool, error),
) (skip bool, reason string) {
	lowerTitle := strings.ToLower(entry.Title)
	lowerContent := strings.ToLower(entry.Content)

	for _, term := range cfg.CustomSkipTerms {
		if term != "" && strings.Contains(lowerTitle, strings.ToLower(term)) {
			return true, fmt.Sprintf("skipping %q: matched custom skip term %q", entry.Title, term)
		}
	}

	for _, term := range feed.IgnoreTitleContains {
		if term != "" && strings.Contains(lowerTitle, strings.ToLower(term)) {
			return true, fmt.Sprintf("skipping %q: title contains ignored term %q", entry.Title, term)
		}
	}
	for _, term := range feed.IgnoreContentContains {
		if term != "" && strings.Contains(lowerContent, strings.ToLower(term)) {
			return true, fmt.Sprintf("skipping %q: content contains ignored term %q", entry.Title, term)
		}
	}

	if !forceRefresh && contentproc.IsContentTooOld(entryDate) {
		return true, fmt.Sprintf("skipping %q: older than retention threshold", entry.Title)
	}

	if !forceRefresh && feed.SkipDuplicates && existsTitleSince != nil {
		since := time.Now().AddDate(0, 0, -7)
		exists, err := existsTitleSince(ctx, feed.ID, entry.Title, since)
		if err == nil && exists {
			return true, fmt.Sprintf("skipping duplicate title from last 7 days: %q", entry.Title)
		}
	}

	return false, ""
}

// fetchPage retrieves the raw HTML for entry.URL per cfg.FetchMode,
// honoring the process-wide URL cache unless forceRefresh is set.
func (b *Base) fetchPage(ctx context.Context, entry aggregator.RawEntry, cfg StageConfig, forceRefresh bool) (string, error) {
	if cfg.FetchMode == ModeNone || entry.URL == "" {
		return entry.Content, nil
	}

	if !forceRefresh && b.Cache != nil {
		if cached, ok := b.Cache.Get(entry.URL); ok {
			return string(cached), nil
		}
	} else if forceRefresh && b.Cache != nil {
		b.Cache.Purge(entry.URL)
	}

	var html string
	switch cfg.FetchMode {
	case ModeStatic:
		body, err := b.Static.Fetch(ctx, entry.URL)
		if err != nil {
			return "", err
		}
		html = string(body)
	case ModeRendered:
		if b.Browser == nil {
			return "", fmt.Errorf("rendered fetch requested but no browser pool configured")
		}
		res, err := b.Browser.Fetch(ctx, entry.URL, browser.FetchOptions{
			WaitForSelector: cfg.WaitForSelector,
			ClickSelector:   cfg.ClickSelector,
		})
		if err != nil {
			return "", err
		}
		html = res.HTML
	default:
		html = entry.Content
	}

	if b.Cache != nil {
		b.Cache.Set(entry.URL, []byte(html))
	}
	return html, nil
}

// ProcessEntry runs pipeline stages 4-8 (header image through
// standardize) and returns the assembled entity.Article, ready for the
// Aggregation Service to persist (stage 9).
func (b *Base) ProcessEntry(ctx context.Context, feed *entity.Feed, entry aggregator.RawEntry, entryDate time.Time, forceRefresh bool, cfg StageConfig) (*entity.Article, error) {
	html, err := b.fetchPage(ctx, entry, cfg, forceRefresh)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	var headerImageURL string
	if cfg.GenerateTitleImage || feed.GenerateTitleImage {
		if img, herr := contentproc.HeaderImageURL(ctx, b.HTTP, entry.URL, html); herr == nil {
			headerImageURL = img
		}
	}

	content := html
	if cfg.ContentSelector != "" {
		if extracted, ok, eerr := contentproc.ExtractBySelector(html, cfg.ContentSelector); eerr == nil && ok {
			content = extracted
		}
	}

	removeSelectors := append(append([]string{}, cfg.RemoveSelectors...), feed.ExcludeSelectors...)
	if cleaned, rerr := contentproc.RemoveElementsBySelectors(content, removeSelectors); rerr == nil {
		content = cleaned
	}

	content = contentproc.SanitizeHTML(content)
	content = applyRegexReplacements(content, feed.RegexReplacements)
	content = contentproc.StandardizeContentFormat(content, headerImageURL, entry.URL, feed.AddSourceFooter)

	date := entryDate
	if feed.UseCurrentTimestamp {
		date = time.Now()
	}

	return &entity.Article{
		FeedID:       feed.ID,
		Identifier:   entry.Identifier,
		Name:         entry.Title,
		Author:       entry.Author,
		Date:         date,
		RawContent:   entry.Content,
		Content:      content,
		IconURL:      headerImageURL,
		MediaURL:     entry.MediaURL,
		MediaType:    entry.MediaType,
		Duration:     entry.Duration,
		ThumbnailURL: headerImageURL,
		ExternalID:   entry.Identifier,
	}, nil
}

// applyRegexReplacements applies each "pattern|replacement" rule from
// feed.RegexReplacements in order, per spec.md §4.4 stage 8. A literal `|`
// inside either half is written as `\|`.
func applyRegexReplacements(content string, rules []string) string {
	for _, rule := range rules {
		pattern, replacement, ok := splitReplacementRule(rule)
		if !ok {
			continue
		}
		re, err := compileReplacementPattern(pattern)
		if err != nil {
			continue
		}
		content = re.ReplaceAllString(content, replacement)
	}
	return content
}
