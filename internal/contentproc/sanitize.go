// Package contentproc is the Content Processor (C5): the HTML
// sanitization, element removal, image extraction/compression, and format
// standardization stages shared by every Aggregator's pipeline.
//
// Grounded on original_source/legacy_backend/aggregators/base/{process,
// utils}.py (sanitize_html/remove_elements_by_selectors/compress_image/
// extract_youtube_video_id), reimplemented with the teacher's goquery
// dependency plus bluemonday/x-image for the parts the teacher's own code
// never needed (it sanitized nothing; its output fed an AI summarizer).
package contentproc

import (
	"github.com/microcosm-cc/bluemonday"
)

var articlePolicy = newArticlePolicy()

// newArticlePolicy builds the bluemonday policy used for article bodies:
// common formatting/structure elements plus images and links, stripping
// scripts, styles, and event-handler attributes.
func newArticlePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowStandardURLs()
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("target").OnElements("a")
	p.RequireNoFollowOnLinks(true)

	p.AllowAttrs("src", "alt", "title", "width", "height", "loading").OnElements("img")
	p.AllowAttrs("src").OnElements("source", "iframe", "video", "audio")
	p.AllowAttrs("controls", "poster").OnElements("video")
	p.AllowAttrs("controls").OnElements("audio")
	p.AllowAttrs("allowfullscreen").OnElements("iframe")

	p.AllowElements(
		"p", "br", "hr", "div", "span",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "dl", "dt", "dd",
		"blockquote", "pre", "code",
		"strong", "b", "em", "i", "u", "s", "mark", "small", "sub", "sup",
		"table", "thead", "tbody", "tr", "th", "td",
		"figure", "figcaption",
	)
	p.AllowAttrs("class").Globally()

	return p
}

// SanitizeHTML strips any element/attribute not on the article allowlist,
// the stage that protects GReader clients from third-party HTML carried in
// from an aggregator (spec.md §4.4 stage 7; the teacher never needed this
// since it fed Readability text, not raw HTML, to an LLM).
func SanitizeHTML(html string) string {
	return articlePolicy.Sanitize(html)
}
