package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FeedHarvester/internal/infrastructure/catalog"
)

const sampleCatalog = `
sources:
  - id: hn
    name: Hacker News
    category: tech
    endpoint: https://news.ycombinator.com/rss
  - id: fragile-blog
    scanner: feed
    endpoint: https://fragile.example.com/
    fallbacks:
      - https://fragile.example.com/feed.xml
    autoDiscover: true
    overrides:
      failureThreshold: 2
      openTimeout: 3m
      rate: 0.5
      burst: 2
      timeoutFloor: 10s
  - id: listing
    scanner: html
    endpoint: https://listing.example.com/news
    selectors:
      item: div.post
      link: a.more
      title: h2
`

func TestParseCatalog(t *testing.T) {
	t.Parallel()

	sources, err := catalog.Parse([]byte(sampleCatalog))
	require.NoError(t, err)
	require.Len(t, sources, 3)

	// Order is preserved.
	require.Equal(t, "hn", sources[0].ID)
	require.Equal(t, "Hacker News", sources[0].Name)
	require.Equal(t, "feed", sources[0].Scanner) // default scanner

	fragile := sources[1]
	require.Equal(t, "fragile-blog", fragile.Name) // name defaults to id
	require.True(t, fragile.AutoDiscover)
	require.Equal(t, []string{"https://fragile.example.com/feed.xml"}, fragile.Fallbacks)
	require.Equal(t, 2, fragile.Overrides.FailureThreshold)
	require.Equal(t, 3*time.Minute, fragile.Overrides.OpenTimeout)
	require.Equal(t, 0.5, fragile.Overrides.Rate)
	require.Equal(t, 2, fragile.Overrides.Burst)
	require.Equal(t, 10*time.Second, fragile.Overrides.TimeoutFloor)

	listing := sources[2]
	require.Equal(t, "html", listing.Scanner)
	require.Equal(t, "div.post", listing.Selectors["item"])
}

func TestParseCatalogRejectsMissingID(t *testing.T) {
	t.Parallel()

	_, err := catalog.Parse([]byte("sources:\n  - endpoint: https://example.com/rss\n"))
	require.ErrorContains(t, err, "missing id")
}

func TestParseCatalogRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	doc := `
sources:
  - id: twin
    endpoint: https://a.example.com/rss
  - id: twin
    endpoint: https://b.example.com/rss
`
	_, err := catalog.Parse([]byte(doc))
	require.ErrorContains(t, err, "duplicate source id")
}

func TestParseCatalogRejectsBadDuration(t *testing.T) {
	t.Parallel()

	doc := `
sources:
  - id: bad
    endpoint: https://example.com/rss
    overrides:
      openTimeout: soon
`
	_, err := catalog.Parse([]byte(doc))
	require.ErrorContains(t, err, "openTimeout")
}

func TestFileProviderReadsCatalog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	provider := catalog.NewFileProvider(path)
	sources, err := provider.Sources(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 3)
}

func TestFileProviderMissingFile(t *testing.T) {
	t.Parallel()

	provider := catalog.NewFileProvider(filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := provider.Sources(context.Background())
	require.Error(t, err)
}
