package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"FeedHarvester/internal/domain"
	"FeedHarvester/internal/ports"
	"FeedHarvester/internal/retry"
)

const maxBodyBytes = 10 << 20

// Source discovers articles from a feed endpoint with ordered fallbacks and
// optional auto-discovery of the actual feed URL.
type Source struct {
	src    domain.SourceDescriptor
	client *http.Client
	sink   ports.StatusSink
	logger *slog.Logger
}

var _ ports.Source = (*Source)(nil)

// NewSource wires an HTTP client; a nil client gets a conservative default.
func NewSource(src domain.SourceDescriptor, client *http.Client, sink ports.StatusSink, logger *slog.Logger) *Source {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Source{src: src, client: client, sink: sink, logger: logger}
}

// Discover walks the primary endpoint and its fallbacks in order and returns
// up to count articles from the first endpoint that parses as a feed. When
// every configured endpoint fails and auto-discovery is enabled, common feed
// paths and page link hints are probed before giving up.
func (s *Source) Discover(ctx context.Context, count int) ([]domain.Article, error) {
	var lastErr error

	for i, endpoint := range s.src.Endpoints() {
		items, err := s.readFeed(ctx, endpoint)
		if err != nil {
			s.debug("endpoint failed", "endpoint", endpoint, "error", err)
			lastErr = err
			continue
		}
		if i > 0 && s.sink != nil {
			s.sink.FallbackUsed(s.src.ID, endpoint)
		}
		return s.toArticles(items, count), nil
	}

	if s.src.AutoDiscover {
		items, endpoint, err := s.autoDiscover(ctx)
		if err == nil {
			if s.sink != nil {
				s.sink.FallbackUsed(s.src.ID, endpoint)
			}
			return s.toArticles(items, count), nil
		}
		s.debug("auto-discovery failed", "error", err)
		if lastErr == nil {
			lastErr = err
		}
	}

	if lastErr == nil {
		lastErr = retry.Permanent(fmt.Errorf("no endpoints configured"))
	}
	return nil, fmt.Errorf("source %s: %w", s.src.ID, lastErr)
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

func (s *Source) readFeed(ctx context.Context, endpoint string) ([]Item, error) {
	body, err := s.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	_, items, err := Parse(body)
	if err != nil {
		// A malformed feed will not fix itself on retry.
		return nil, retry.Permanent(fmt.Errorf("parse %s: %w", endpoint, err))
	}
	return items, nil
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

func (s *Source) toArticles(items []Item, count int) []domain.Article {
	if count > 0 && len(items) > count {
		items = items[:count]
	}

	articles := make([]domain.Article, 0, len(items))
	for _, item := range items {
		articles = append(articles, domain.Article{
			URL:         item.Link,
			Title:       item.Title,
			Source:      s.src.ID,
			PublishedAt: item.Published,
		})
	}
	return articles
}

func (s *Source) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// Strategy builds feed sources for the scanner registry.
type Strategy struct {
	client *http.Client
	sink   ports.StatusSink
	logger *slog.Logger
}

// NewStrategy shares one HTTP client across all feed sources.
func NewStrategy(client *http.Client, sink ports.StatusSink, logger *slog.Logger) *Strategy {
	return &Strategy{client: client, sink: sink, logger: logger}
}

// Name identifies the strategy inside the registry.
func (st *Strategy) Name() string {
	return "feed"
}

// Build validates the descriptor and constructs its adapter.
func (st *Strategy) Build(src domain.SourceDescriptor) (ports.Source, error) {
	if src.Endpoint == "" && len(src.Fallbacks) == 0 {
		return nil, fmt.Errorf("source %s has no endpoints", src.ID)
	}
	return NewSource(src, st.client, st.sink, st.logger), nil
}
