package html

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"FeedHarvester/internal/domain"
	"FeedHarvester/internal/ports"
	"FeedHarvester/internal/retry"
)

const maxBodyBytes = 10 << 20

// Selector keys understood by the HTML listing scanner. "item" scopes one
// listing entry; "link" and "title" are resolved inside each entry.
const (
	selectorItem  = "item"
	selectorLink  = "link"
	selectorTitle = "title"
)

// Source discovers articles from an ad hoc HTML listing page using
// catalog-configured CSS selectors.
type Source struct {
	src    domain.SourceDescriptor
	client *http.Client
	logger *slog.Logger
}

var _ ports.Source = (*Source)(nil)

// NewSource wires an HTTP client; a nil client gets a conservative default.
func NewSource(src domain.SourceDescriptor, client *http.Client, logger *slog.Logger) *Source {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Source{src: src, client: client, logger: logger}
}

// Discover fetches the listing page and extracts up to count entries.
func (s *Source) Discover(ctx context.Context, count int) ([]domain.Article, error) {
	doc, err := s.fetchDocument(ctx, s.src.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.src.ID, err)
	}

	base, err := url.Parse(s.src.Endpoint)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("source %s: bad endpoint: %w", s.src.ID, err))
	}

	articles := s.extractArticles(doc, base, count)
	if len(articles) == 0 {
		return nil, retry.Permanent(fmt.Errorf("source %s: no entries matched selector %q", s.src.ID, s.selector(selectorItem)))
	}
	return articles, nil
}

// Fetch retrieves the raw payload behind one discovered article.
func (s *Source) Fetch(ctx context.Context, article domain.Article) (domain.Content, error) {
	body, err := s.get(ctx, article.URL)
	if err != nil {
		return domain.Content{}, fmt.Errorf("fetch %s: %w", article.URL, err)
	}
	return domain.Content{
		Article:     article,
		Body:        body,
		RetrievedAt: time.Now().UTC(),
	}, nil
}

func (s *Source) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := s.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("parse document: %w", err))
	}
	return doc, nil
}

func (s *Source) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", "FeedHarvester/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (s *Source) extractArticles(doc *goquery.Document, base *url.URL, count int) []domain.Article {
	var collected []domain.Article
	seen := map[string]struct{}{}

	doc.Find(s.selector(selectorItem)).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		article, ok := s.parseEntry(item, base)
		if !ok {
			return true
		}
		if _, dup := seen[article.URL]; dup {
			return true
		}
		seen[article.URL] = struct{}{}
		collected = append(collected, article)
		return count <= 0 || len(collected) < count
	})

	return collected
}

func (s *Source) parseEntry(item *goquery.Selection, base *url.URL) (domain.Article, bool) {
	link := item.Find(s.selector(selectorLink)).First()
	href, ok := link.Attr("href")
	if !ok {
		// the item node itself may be the anchor
		if href, ok = item.Attr("href"); !ok {
			return domain.Article{}, false
		}
		link = item
	}

	resolved, err := base.Parse(strings.TrimSpace(href))
	if err != nil {
		return domain.Article{}, false
	}

	title := strings.TrimSpace(item.Find(s.selector(selectorTitle)).First().Text())
	if title == "" {
		title = strings.TrimSpace(link.Text())
	}

	return domain.Article{
		URL:    resolved.String(),
		Title:  title,
		Source: s.src.ID,
	}, true
}

func (s *Source) selector(key string) string {
	if v, ok := s.src.Selectors[key]; ok && v != "" {
		return v
	}
	switch key {
	case selectorItem:
		return "article"
	case selectorLink:
		return "a"
	default:
		return "h2"
	}
}

// Strategy builds HTML listing sources for the scanner registry.
type Strategy struct {
	client *http.Client
	logger *slog.Logger
}

// NewStrategy shares one HTTP client across all HTML sources.
func NewStrategy(client *http.Client, logger *slog.Logger) *Strategy {
	return &Strategy{client: client, logger: logger}
}

// Name identifies the strategy inside the registry.
func (st *Strategy) Name() string {
	return "html"
}

// Build validates the descriptor and constructs its adapter.
func (st *Strategy) Build(src domain.SourceDescriptor) (ports.Source, error) {
	if src.Endpoint == "" {
		return nil, fmt.Errorf("source %s has no endpoint", src.ID)
	}
	return NewSource(src, st.client, st.logger), nil
}
