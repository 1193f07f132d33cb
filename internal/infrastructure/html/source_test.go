package html

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"FeedHarvester/internal/domain"
	"FeedHarvester/internal/retry"
)

const listingPage = `<html><body>
  <div class="post">
    <h2 class="title">First Article</h2>
    <a class="more" href="/articles/1">read</a>
  </div>
  <div class="post">
    <h2 class="title">Second Article</h2>
    <a class="more" href="https://other.example.com/articles/2">read</a>
  </div>
  <div class="post">
    <h2 class="title">Duplicate</h2>
    <a class="more" href="/articles/1">read</a>
  </div>
</body></html>`

func listingSelectors() map[string]string {
	return map[string]string{
		"item":  "div.post",
		"link":  "a.more",
		"title": "h2.title",
	}
}

func TestDiscoverExtractsEntries(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, listingPage)
	}))
	defer server.Close()

	src := NewSource(domain.SourceDescriptor{
		ID:        "news",
		Endpoint:  server.URL + "/list",
		Selectors: listingSelectors(),
	}, server.Client(), nil)

	articles, err := src.Discover(context.Background(), 10)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 unique articles, got %d", len(articles))
	}

	// Relative links resolve against the listing URL.
	if articles[0].URL != server.URL+"/articles/1" {
		t.Fatalf("unexpected url: %s", articles[0].URL)
	}
	if articles[0].Title != "First Article" {
		t.Fatalf("unexpected title: %s", articles[0].Title)
	}
	// Absolute links pass through untouched.
	if articles[1].URL != "https://other.example.com/articles/2" {
		t.Fatalf("unexpected url: %s", articles[1].URL)
	}
}

func TestDiscoverHonorsCount(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, listingPage)
	}))
	defer server.Close()

	src := NewSource(domain.SourceDescriptor{
		ID:        "news",
		Endpoint:  server.URL,
		Selectors: listingSelectors(),
	}, server.Client(), nil)

	articles, err := src.Discover(context.Background(), 1)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
}

func TestDiscoverNoMatchesIsPermanent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><p>nothing to see</p></body></html>`)
	}))
	defer server.Close()

	src := NewSource(domain.SourceDescriptor{
		ID:        "empty",
		Endpoint:  server.URL,
		Selectors: listingSelectors(),
	}, server.Client(), nil)

	_, err := src.Discover(context.Background(), 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if retry.IsTransient(err) {
		t.Fatalf("selector mismatch must not be retried: %v", err)
	}
}

func TestDiscoverServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	src := NewSource(domain.SourceDescriptor{
		ID:        "down",
		Endpoint:  server.URL,
		Selectors: listingSelectors(),
	}, server.Client(), nil)

	_, err := src.Discover(context.Background(), 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if !retry.IsTransient(err) {
		t.Fatalf("502 should classify as transient: %v", err)
	}
}

func TestFetchReturnsBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "full article")
	}))
	defer server.Close()

	src := NewSource(domain.SourceDescriptor{ID: "news"}, server.Client(), nil)

	content, err := src.Fetch(context.Background(), domain.Article{URL: server.URL + "/articles/1"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(content.Body) != "full article" {
		t.Fatalf("unexpected body: %s", content.Body)
	}
}

func TestAnchorItemsWithoutNestedLink(t *testing.T) {
	t.Parallel()

	page := `<html><body>
	  <a class="entry" href="/a">Entry A</a>
	  <a class="entry" href="/b">Entry B</a>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer server.Close()

	src := NewSource(domain.SourceDescriptor{
		ID:        "anchors",
		Endpoint:  server.URL,
		Selectors: map[string]string{"item": "a.entry"},
	}, server.Client(), nil)

	articles, err := src.Discover(context.Background(), 10)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Title != "Entry A" {
		t.Fatalf("anchor text should become the title, got %q", articles[0].Title)
	}
}

func TestStrategyRejectsEndpointlessSource(t *testing.T) {
	t.Parallel()

	strategy := NewStrategy(nil, nil)
	if _, err := strategy.Build(domain.SourceDescriptor{ID: "empty"}); err == nil {
		t.Fatal("expected error for source without endpoint")
	}
	if strategy.Name() != "html" {
		t.Fatalf("unexpected name: %s", strategy.Name())
	}
}
