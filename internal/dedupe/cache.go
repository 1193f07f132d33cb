package dedupe

import (
	"net/url"
	"strings"
	"sync"
)

// URLCache is a process-lifetime set of claimed article URLs. It exists to
// close the check-then-act race: membership test and insert are a single
// atomic operation, so concurrent workers can never both claim one URL.
type URLCache struct {
	mu    sync.Mutex
	items map[string]struct{}
}

// NewURLCache builds an empty cache. One instance is created at pipeline
// start and injected everywhere; the cache is never persisted.
func NewURLCache() *URLCache {
	return &URLCache{items: make(map[string]struct{})}
}

// TryClaim records the url and returns true iff it was not already present.
// Exactly one caller wins for a given url regardless of interleaving.
func (c *URLCache) TryClaim(rawURL string) bool {
	key := Canonical(rawURL)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		return false
	}
	c.items[key] = struct{}{}
	return true
}

// Contains reports membership without claiming.
func (c *URLCache) Contains(rawURL string) bool {
	key := Canonical(rawURL)

	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[key]
	return ok
}

// Len reports the number of claimed URLs.
func (c *URLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Canonical normalizes a URL for dedup purposes: lowercased scheme/host,
// stripped fragment, stripped trailing slash. Unparseable input is used as-is.
func Canonical(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
