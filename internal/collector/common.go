// Package collector holds the five source collectors. Each one implements
// the same contract (fetch, extract, classify, persist) with source-specific
// extraction rules, and never lets a fault escape Scrape: transport and
// per-item errors are recorded in the result and processing continues.
package collector

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// compactTagLimit caps tags for sources whose listings mention many
// technologies at once; the store cap (model.MaxTags) applies everywhere else.
const compactTagLimit = 10

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	multiBlankRe = regexp.MustCompile(`\n{3,}`)
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
)

// stripHTML converts an HTML or HTML-encoded string to plain text: unescape
// entities, drop tags, collapse whitespace.
func stripHTML(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRe.ReplaceAllString(unescaped, " ")
	return strings.Join(strings.Fields(plain), " ")
}

// collapseText normalizes extracted text: runs of spaces become one space,
// three or more newlines become two.
func collapseText(s string) string {
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = multiBlankRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// firstText returns the first non-empty trimmed text among the given
// selectors under sel.
func firstText(sel *goquery.Selection, selectors ...string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(sel.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// descriptionFromDoc tries each selector in order and returns the first block
// of text longer than minLen, or "" when none qualifies.
func descriptionFromDoc(doc *goquery.Document, selectors []string, minLen int) string {
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := collapseText(sel.Text())
		if len(text) > minLen {
			return text
		}
	}
	return ""
}

// absoluteURL prefixes site-relative hrefs with the source's origin.
func absoluteURL(origin, href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return origin + href
}

// truncate caps s at n bytes.
func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
