package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/ryosukesatoh/daily-brief/internal/config"
)

// Entry is one item returned by polling a feed endpoint.
type Entry struct {
	Title       string
	Description string
	Link        string
	Published   *time.Time // nil when the feed gives no usable publish date
	Source      string     // endpoint the entry was read from
}

// Fetcher polls a single feed endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) ([]Entry, error)
}

// New creates a new feed fetcher based on the configuration
func New(cfg *config.Config) (Fetcher, error) {
	switch cfg.Sources.Type {
	case "rss":
		return NewRSSFetcher(cfg.Sources.Timeout), nil
	default:
		return nil, ErrUnsupportedFetcherType
	}
}

// ErrUnsupportedFetcherType is returned when an unsupported fetcher type is specified
var ErrUnsupportedFetcherType = errors.New("unsupported fetcher type")

const userAgent = "daily-brief/1.0 (+https://github.com/ryosukesatoh/daily-brief)"
