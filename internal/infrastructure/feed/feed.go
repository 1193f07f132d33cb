package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// Item is one entry extracted from an RSS or Atom document.
type Item struct {
	Title     string
	Link      string
	Published time.Time
}

type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Title string    `xml:"title"`
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
}

type atomDocument struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Links     []atomLink `xml:"link"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

// Parse decodes an RSS 2.0 or Atom payload. A document that decodes as
// neither, or that carries zero entries, is an error: "parses as a feed"
// means at least one usable item.
func Parse(data []byte) (string, []Item, error) {
	if title, items, ok := parseRSS(data); ok {
		return title, items, nil
	}
	if title, items, ok := parseAtom(data); ok {
		return title, items, nil
	}
	return "", nil, fmt.Errorf("payload is not an RSS or Atom feed with entries")
}

func parseRSS(data []byte) (string, []Item, bool) {
	var doc rssDocument
	if err := xml.Unmarshal(data, &doc); err != nil || len(doc.Channel.Items) == 0 {
		return "", nil, false
	}

	items := make([]Item, 0, len(doc.Channel.Items))
	for _, it := range doc.Channel.Items {
		link := strings.TrimSpace(it.Link)
		if link == "" {
			continue
		}
		items = append(items, Item{
			Title:     strings.TrimSpace(it.Title),
			Link:      link,
			Published: parseDate(it.PubDate),
		})
	}
	if len(items) == 0 {
		return "", nil, false
	}
	return strings.TrimSpace(doc.Channel.Title), items, true
}

func parseAtom(data []byte) (string, []Item, bool) {
	var doc atomDocument
	if err := xml.Unmarshal(data, &doc); err != nil || len(doc.Entries) == 0 {
		return "", nil, false
	}

	items := make([]Item, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		link := entryLink(entry.Links)
		if link == "" {
			continue
		}
		published := entry.Published
		if published == "" {
			published = entry.Updated
		}
		items = append(items, Item{
			Title:     strings.TrimSpace(entry.Title),
			Link:      link,
			Published: parseDate(published),
		})
	}
	if len(items) == 0 {
		return "", nil, false
	}
	return strings.TrimSpace(doc.Title), items, true
}

// entryLink prefers rel="alternate" (or unset rel) over enclosure/self links.
func entryLink(links []atomLink) string {
	for _, l := range links {
		if l.Rel == "" || l.Rel == "alternate" {
			return strings.TrimSpace(l.Href)
		}
	}
	if len(links) > 0 {
		return strings.TrimSpace(links[0].Href)
	}
	return ""
}

var dateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
}

func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, f := range dateFormats {
		if ts, err := time.Parse(f, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}
