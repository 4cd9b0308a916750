package contentproc

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RemoveElementsBySelectors strips every element matching any of
// selectors from html, grounded on original_source's
// remove_elements_by_selectors (BeautifulSoup .select + .decompose())
// translated to goquery's .Find(...).Remove(), the teacher's own HTML
// manipulation library.
func RemoveElementsBySelectors(html string, selectors []string) (string, error) {
	if len(selectors) == 0 {
		return html, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	for _, sel := range selectors {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		doc.Find(sel).Remove()
	}
	out, err := doc.Find("body").Html()
	if err != nil {
		return "", err
	}
	return out, nil
}

// ExtractBySelector returns the inner HTML of the first element matching
// selector, or ok=false if nothing matched — the selector-driven
// replacement for the teacher's dropped Readability-scoring extraction
// (spec.md §4.4 stage 5).
func ExtractBySelector(html, selector string) (content string, ok bool, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false, err
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false, nil
	}
	out, err := sel.Html()
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}
