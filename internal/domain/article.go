package domain

import "time"

// Article is a core entity describing an item discovered at a source.
type Article struct {
	URL         string
	Title       string
	Source      string
	PublishedAt time.Time
	Metadata    map[string]string
}

// Content carries the raw payload fetched for a discovered article.
// The engine never parses or renders Body; downstream consumers do.
type Content struct {
	Article     Article
	Body        []byte
	RetrievedAt time.Time
}
