// Package heise implements the managed aggregator for Heise.de (German
// tech news): fixed RSS source, fixed content selectors/removals, a
// filtered-title skip list, and optional forum comment extraction.
// Grounded on original_source/legacy_backend/aggregators/heise.py.
package heise

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
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

const ID = "heise"

const feedURL = "https://www.heise.de/rss/heise.rdf"

func init() {
	aggregator.Register(ID, func() aggregator.Aggregator { return New(nil) })
}

var skipTitleTerms = []string{
	"die Bilder der Woche",
	"Produktwerker",
	"heise-Angebot",
	"#TGIQF",
	"heise+",
	"#heiseshow:",
	"Mein Scrum ist kaputt",
	"software-architektur.tv",
	"Developer Snapshots",
}

var removeSelectors = []string{
	".ad-label", ".ad", ".article-sidebar", "section",
	"a[name='meldung.ho.bottom.zurstartseite']", "a-img",
	".a-article-header__lead", ".a-article-header__title",
	".a-article-header__publish-info", ".a-article-header__service",
	"div[data-component='RecommendationBox']", ".opt-in__content-container",
	".a-box", "iframe", ".a-u-inline", ".redakteurskuerzel", ".branding",
	"a-gift", "aside", "script", "style", "noscript", "footer", ".rte__list",
	"#wtma_teaser_ho_vertrieb_inline_branding",
}

const contentSelector = "#meldung, .StoryContent"
const waitForSelector = "#meldung, .StoryContent"

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
		Name:        "Heise",
		Description: "Specialized aggregator for Heise.de (German tech news). Extracts article content, removes ads and tracking elements, and filters out premium content and image galleries.",
		ExampleURL:  feedURL,
		Options: aggregator.OptionSchema{
			"traverse_multipage": {
				Type:     "boolean",
				Label:    "Traverse multi-page articles",
				HelpText: "Fetch and inline all pages of multi-page articles into a single article",
				Default:  false,
			},
			"max_comments": {
				Type:     "integer",
				Label:    "Maximum comments to extract",
				HelpText: "Number of comments to extract and inline at the end of articles (0 to disable)",
				Default:  0,
				Min:      floatPtr(0),
				Max:      floatPtr(100),
			},
		},
	}
}

func floatPtr(f float64) *float64 { return &f }

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
		author := ""
		if it.Author != nil {
			author = it.Author.Name
		}
		out = append(out, aggregator.RawEntry{
			Identifier: it.Link,
			URL:        it.Link,
			Title:      it.Title,
			Author:     author,
			Date:       date,
			Content:    it.Description,
		})
	}
	return out, nil
}

func (a *Aggregator) Process(ctx context.Context, feed *entity.Feed, entry aggregator.RawEntry) (*entity.Article, error) {
	for _, term := range skipTitleTerms {
		if strings.Contains(entry.Title, term) {
			return nil, nil // filtered content: sponsored posts, roundups, video-only segments
		}
	}

	date := time.Now()
	if entry.Date != "" {
		if parsed, err := time.Parse(time.RFC3339, entry.Date); err == nil {
			date = parsed
		}
	}

	traverseMultipage, _ := feed.Options["traverse_multipage"].(bool)
	fetchURL := entry.URL
	if traverseMultipage {
		fetchURL = allPagesURL(fetchURL)
	}
	fetchEntry := entry
	fetchEntry.URL = fetchURL

	stage := base.StageConfig{
		FetchMode:       base.ModeRendered,
		ContentSelector: contentSelector,
		RemoveSelectors: removeSelectors,
		WaitForSelector: waitForSelector,
	}

	article, err := a.Base.ProcessEntry(ctx, feed, fetchEntry, date, false, stage)
	if err != nil {
		return nil, err
	}

	maxComments := optionInt(feed.Options, "max_comments")
	if maxComments > 0 {
		if commentsHTML, err := a.appendComments(ctx, entry.URL, maxComments); err == nil && commentsHTML != "" {
			article.Content = article.Content + "\n\n" + commentsHTML
		}
	}

	return article, nil
}

func allPagesURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("seite", "all")
	u.RawQuery = q.Encode()
	return u.String()
}

func (a *Aggregator) appendComments(ctx context.Context, articleURL string, maxComments int) (string, error) {
	articleHTML, err := a.Base.Static.Fetch(ctx, articleURL)
	if err != nil {
		return "", err
	}
	forumURL, ok := extractForumURL(string(articleHTML), articleURL)
	if !ok {
		return "", nil
	}

	forumHTML, err := a.Base.Static.Fetch(ctx, forumURL)
	if err != nil {
		return fmt.Sprintf(`<h3><a href="%s">Comments</a></h3>\n<p><em>No comments available for this article.</em></p>`, forumURL), nil
	}

	return extractComments(string(forumHTML), forumURL, articleURL, maxComments), nil
}

var discussionURLPattern = regexp.MustCompile(`/forum/.*comment`)

func extractForumURL(articleHTML, articleURL string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(articleHTML))
	if err != nil {
		return "", false
	}

	var found string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var single struct {
			DiscussionURL string `json:"discussionUrl"`
		}
		var list []struct {
			DiscussionURL string `json:"discussionUrl"`
		}
		text := s.Text()
		if err := json.Unmarshal([]byte(text), &single); err == nil && single.DiscussionURL != "" {
			found = resolveRelative(single.DiscussionURL, articleURL)
			return false
		}
		if err := json.Unmarshal([]byte(text), &list); err == nil {
			for _, item := range list {
				if item.DiscussionURL != "" {
					found = resolveRelative(item.DiscussionURL, articleURL)
					return false
				}
			}
		}
		return true
	})
	if found != "" {
		return found, true
	}

	href, exists := doc.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		return ok && discussionURLPattern.MatchString(href)
	}).First().Attr("href")
	if exists && href != "" {
		return resolveRelative(href, articleURL), true
	}
	return "", false
}

func resolveRelative(href, articleURL string) string {
	if !strings.HasPrefix(href, "/") {
		return href
	}
	u, err := url.Parse(articleURL)
	if err != nil {
		return href
	}
	return u.Scheme + "://" + u.Host + href
}

var commentSelectors = []string{"li.posting_element", `[id^="posting_"]`, ".posting", ".a-comment"}
var authorSelectors = []string{`a[href*="/forum/heise-online/Meinungen"]`, ".pseudonym", ".username", "strong"}
var contentSelectors = []string{".text", ".posting-content", ".comment-body", "p"}

func extractComments(forumHTML, forumURL, articleURL string, maxComments int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(forumHTML))
	if err != nil {
		return ""
	}

	var elements *goquery.Selection
	for _, sel := range commentSelectors {
		found := doc.Find(sel)
		if found.Length() > 0 {
			elements = found
			break
		}
	}
	if elements == nil || elements.Length() == 0 {
		return ""
	}

	var parts []string
	parts = append(parts, fmt.Sprintf(`<h3><a href="%s">Comments</a></h3>`, forumURL))

	count := 0
	elements.EachWithBreak(func(i int, el *goquery.Selection) bool {
		if count >= maxComments {
			return false
		}
		author := "Unknown"
		var content, commentURL string

		if goquery.NodeName(el) == "li" {
			if a := el.Find(".tree_thread_list--written_by_user, .pseudonym").First(); a.Length() > 0 {
				author = strings.TrimSpace(a.Text())
			}
			titleLink := el.Find("a.posting_subject").First()
			if titleLink.Length() == 0 {
				return true
			}
			title := strings.TrimSpace(titleLink.Text())
			content = "<p>" + htmlEscape(title) + "</p>"
			href, _ := titleLink.Attr("href")
			commentURL = href
		} else {
			for _, sel := range authorSelectors {
				if a := el.Find(sel).First(); a.Length() > 0 {
					text := strings.TrimSpace(a.Text())
					if text != "" && len(text) < 50 {
						author = text
						break
					}
				}
			}
			for _, sel := range contentSelectors {
				if c := el.Find(sel).First(); c.Length() > 0 {
					if h, err := c.Html(); err == nil {
						content = h
					}
					break
				}
			}
			commentID, exists := el.Attr("id")
			if !exists || commentID == "" {
				commentID = fmt.Sprintf("comment-%d", i)
			}
			commentURL = articleURL + "#" + commentID
		}

		if strings.TrimSpace(content) == "" {
			return true
		}

		parts = append(parts, fmt.Sprintf(
			"<blockquote>\n<p><strong>%s</strong> | <a href=\"%s\">source</a></p>\n<div>%s</div>\n</blockquote>",
			htmlEscape(author), commentURL, content,
		))
		count++
		return true
	})

	if count == 0 {
		return ""
	}
	return strings.Join(parts, "\n")
}

func htmlEscape(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return replacer.Replace(s)
}

// optionInt reads an integer-typed feed option that may have arrived as a
// JSON number (float64, the encoding/json default) or a JSON string.
func optionInt(options map[string]any, key string) int {
	switch v := options[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

var (
	_ aggregator.Aggregator     = (*Aggregator)(nil)
	_ aggregator.BaseInjectable = (*Aggregator)(nil)
)
