package intake

import (
	"context"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/reliefboard/internal/config"
)

// FeedItem is one announcement from a feed.
type FeedItem struct {
	GUID   string
	Title  string
	Link   string
	Text   string
	Source string
}

func parseFeed(ctx context.Context, parser *gofeed.Parser, fc config.Feed, maxItems int) ([]FeedItem, error) {
	feed, err := parser.ParseURLWithContext(fc.URL, ctx)
	if err != nil {
		return nil, err
	}

	source := fc.Name
	if source == "" {
		source = strings.TrimSpace(feed.Title)
	}
	if source == "" {
		source = extractSourceName(fc.URL)
	}

	var items []FeedItem
	for _, it := range feed.Items {
		if maxItems > 0 && len(items) >= maxItems {
			break
		}
		if item := parseItem(it, source); item != nil {
			items = append(items, *item)
		}
	}
	return items, nil
}

func parseItem(item *gofeed.Item, source string) *FeedItem {
	guid := item.GUID
	if guid == "" {
		guid = item.Link
	}
	if guid == "" {
		return nil
	}

	var text string
	if item.Content != "" {
		text = stripHTML(item.Content)
	} else if item.Description != "" {
		text = stripHTML(item.Description)
	}

	title := strings.TrimSpace(item.Title)
	if title == "" && text == "" && item.Link == "" {
		return nil
	}

	return &FeedItem{
		GUID:   guid,
		Title:  title,
		Link:   item.Link,
		Text:   text,
		Source: source,
	}
}

func stripHTML(text string) string {
	// Simple HTML tag removal
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
	// Decode common entities
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	// Normalize whitespace
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}
	return host
}
