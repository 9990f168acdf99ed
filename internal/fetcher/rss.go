package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSSFetcher polls RSS, Atom and JSON feeds.
type RSSFetcher struct {
	client *http.Client
	parser *gofeed.Parser
}

func NewRSSFetcher(timeout time.Duration) *RSSFetcher {
	return &RSSFetcher{
		client: &http.Client{Timeout: timeout},
		parser: gofeed.NewParser(),
	}
}

func (f *RSSFetcher) Fetch(ctx context.Context, endpoint string) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("rss: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rss: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss: unexpected status %d", resp.StatusCode)
	}

	feed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rss: failed to parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		description := item.Description
		if strings.TrimSpace(description) == "" {
			description = item.Content
		}

		var published *time.Time
		if item.PublishedParsed != nil {
			p := *item.PublishedParsed
			published = &p
		}

		entries = append(entries, Entry{
			Title:       PlainText(item.Title),
			Description: PlainText(description),
			Link:        strings.TrimSpace(item.Link),
			Published:   published,
			Source:      endpoint,
		})
	}

	return entries, nil
}
