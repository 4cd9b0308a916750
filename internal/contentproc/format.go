package contentproc

import (
	"fmt"
	"time"
)

// ContentMaxAge mirrors original_source's CONTENT_MAX_AGE_MONTHS: articles
// older than this are skipped rather than imported (spec.md §4.4 stage 3).
const ContentMaxAge = 2 * 30 * 24 * time.Hour

// IsContentTooOld reports whether date falls outside ContentMaxAge.
func IsContentTooOld(date time.Time) bool {
	return time.Since(date) > ContentMaxAge
}

// StandardizeContentFormat assembles the final article body: an optional
// header image prepended, the sanitized content body, and an optional
// "view original" footer — grounded on original_source's
// BaseAggregator.standardize_format.
func StandardizeContentFormat(body, headerImageURL, sourceURL string, addSourceFooter bool) string {
	var out string
	if headerImageURL != "" {
		out += fmt.Sprintf(`<p><img src="%s" alt="" loading="lazy"></p>`, headerImageURL)
	}
	out += body
	if addSourceFooter && sourceURL != "" {
		out += fmt.Sprintf(`<p><a href="%s" target="_blank" rel="noopener noreferrer">View original</a></p>`, sourceURL)
	}
	return out
}
