package feed

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// commonFeedPaths are probed relative to the page URL when no explicit
// endpoint parses as a feed.
var commonFeedPaths = []string{
	"/feed",
	"/rss",
	"/atom.xml",
	"/feed.xml",
	"/rss.xml",
	"/index.xml",
}

var feedLinkTypes = map[string]bool{
	"application/rss+xml":  true,
	"application/atom+xml": true,
	"application/xml":      true,
	"text/xml":             true,
}

// autoDiscover fetches the primary endpoint as an HTML page, collects
// <link rel="alternate"> hints plus common feed paths, and returns the items
// from the first candidate that parses as a feed with at least one entry.
func (s *Source) autoDiscover(ctx context.Context) ([]Item, string, error) {
	pageURL := s.src.Endpoint
	if pageURL == "" {
		return nil, "", fmt.Errorf("auto-discovery needs a primary endpoint")
	}

	candidates := s.discoverCandidates(ctx, pageURL)
	if len(candidates) == 0 {
		return nil, "", fmt.Errorf("no feed candidates found at %s", pageURL)
	}

	var lastErr error
	for _, candidate := range candidates {
		items, err := s.readFeed(ctx, candidate)
		if err != nil {
			lastErr = err
			continue
		}
		return items, candidate, nil
	}
	return nil, "", fmt.Errorf("no candidate parsed as a feed: %w", lastErr)
}

// discoverCandidates orders page hints before common-path guesses.
func (s *Source) discoverCandidates(ctx context.Context, pageURL string) []string {
	var candidates []string
	seen := map[string]bool{}
	add := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			candidates = append(candidates, u)
		}
	}

	for _, hint := range s.pageHints(ctx, pageURL) {
		add(hint)
	}

	if base, err := url.Parse(pageURL); err == nil {
		root := &url.URL{Scheme: base.Scheme, Host: base.Host}
		for _, path := range commonFeedPaths {
			add(root.JoinPath(path).String())
		}
	}

	return candidates
}

// pageHints extracts <link rel="alternate"> feed URLs from the page head,
// resolved against the page URL. Errors degrade to no hints.
func (s *Source) pageHints(ctx context.Context, pageURL string) []string {
	body, err := s.get(ctx, pageURL)
	if err != nil {
		s.debug("auto-discovery page fetch failed", "url", pageURL, "error", err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var hints []string
	doc.Find(`link[rel="alternate"]`).Each(func(_ int, sel *goquery.Selection) {
		linkType, _ := sel.Attr("type")
		if !feedLinkTypes[strings.ToLower(strings.TrimSpace(linkType))] {
			return
		}
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		resolved, err := base.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		hints = append(hints, resolved.String())
	})
	return hints
}
