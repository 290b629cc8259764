package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
)

// RSSSource fetches entries from a single RSS or Atom feed.
type RSSSource struct {
	feedURL string
	name    string
	parser  *gofeed.Parser
}

// NewRSSSource creates a source for one feed URL. The source name is
// derived from the feed host.
func NewRSSSource(feedURL string) *RSSSource {
	parser := gofeed.NewParser()
	parser.UserAgent = "reputrack/1.0"
	return &RSSSource{
		feedURL: feedURL,
		name:    sourceName(feedURL),
		parser:  parser,
	}
}

func (r *RSSSource) Name() string {
	return r.name
}

// Fetch parses the feed and returns up to limit entries in feed order.
func (r *RSSSource) Fetch(ctx context.Context, limit int) ([]Entry, error) {
	feed, err := r.parser.ParseURLWithContext(r.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", r.feedURL, err)
	}

	var entries []Entry
	for _, item := range feed.Items {
		if len(entries) >= limit {
			break
		}

		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}

		itemURL := item.Link
		if itemURL == "" {
			itemURL = item.GUID
		}

		var author string
		if item.Author != nil {
			author = item.Author.Name
		}

		entries = append(entries, Entry{
			Title:     strings.TrimSpace(item.Title),
			Summary:   strings.TrimSpace(stripHTML(item.Description)),
			URL:       itemURL,
			Author:    author,
			Published: published,
		})
	}

	return entries, nil
}

// sourceName extracts a short identifier from a feed URL, e.g.
// "https://www.example.com/rss" -> "example".
func sourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "rss.", "feeds.", "noticias."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}
	return host
}

// stripHTML removes tags and decodes the entities commonly seen in feed
// summaries, then collapses whitespace.
func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	return strings.Join(strings.Fields(s), " ")
}
