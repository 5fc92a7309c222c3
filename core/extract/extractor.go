// Package extract finds embedded videos on an HTML page.
// It looks, in priority order, at:
//  1. Open Graph video metadata (og:video:secure_url, og:video:url, og:video)
//  2. <video src> and <video><source src> elements
//  3. plain <a href> links accepted by the caller's link filter
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CandidateKind records where a video URL was found.
type CandidateKind string

const (
	KindMeta  CandidateKind = "meta"
	KindVideo CandidateKind = "video"
	KindLink  CandidateKind = "link"
)

// Candidate is an absolute video URL found on a page.
type Candidate struct {
	URL  string
	Kind CandidateKind
}

// PageVideo is the result of extracting a page.
type PageVideo struct {
	Title      string
	Candidates []Candidate
}

// metaSelectors are Open Graph properties that carry a playable video URL.
var metaSelectors = []string{
	`meta[property="og:video:secure_url"]`,
	`meta[property="og:video:url"]`,
	`meta[property="og:video"]`,
}

// VideoExtractor pulls the page title and video candidates out of HTML.
type VideoExtractor struct{}

// New creates a VideoExtractor.
func New() *VideoExtractor {
	return &VideoExtractor{}
}

// Extract parses html (served from baseURL) and returns its title and video
// candidates in priority order. keepLink decides which <a href> targets count
// as videos; nil skips links entirely.
func (e *VideoExtractor) Extract(html, baseURL string, keepLink func(string) bool) (*PageVideo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	out := &PageVideo{Title: pageTitle(doc)}
	add := func(raw string, kind CandidateKind) {
		if resolved := resolveURL(strings.TrimSpace(raw), base); resolved != "" {
			out.Candidates = append(out.Candidates, Candidate{URL: resolved, Kind: kind})
		}
	}

	for _, sel := range metaSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr("content"); ok {
				add(v, KindMeta)
			}
		})
	}

	doc.Find("video").Each(func(_ int, v *goquery.Selection) {
		if src, ok := v.Attr("src"); ok {
			add(src, KindVideo)
		}
		v.Find("source[src]").Each(func(_ int, s *goquery.Selection) {
			src, _ := s.Attr("src")
			add(src, KindVideo)
		})
	})

	if keepLink != nil {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			resolved := resolveURL(strings.TrimSpace(href), base)
			if resolved != "" && keepLink(resolved) {
				out.Candidates = append(out.Candidates, Candidate{URL: resolved, Kind: KindLink})
			}
		})
	}

	return out, nil
}

// pageTitle prefers og:title over <title>.
func pageTitle(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// resolveURL resolves a potentially relative URL against a base.
func resolveURL(href string, base *url.URL) string {
	// Skip mailto, javascript, etc.
	if href == "" || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "data:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	// Strip fragments.
	resolved.Fragment = ""
	return resolved.String()
}
