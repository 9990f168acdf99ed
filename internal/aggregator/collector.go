package aggregator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ryosukesatoh/daily-brief/internal/fetcher"
	"github.com/ryosukesatoh/daily-brief/internal/logging"
)

// TextFetcher retrieves the full body of an article.
type TextFetcher interface {
	FetchText(ctx context.Context, link string) (string, error)
}

// Collector polls endpoints and assembles the corpus for one attempt.
type Collector struct {
	feeds      fetcher.Fetcher
	articles   TextFetcher
	classifier *Classifier
	window     time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

func NewCollector(feeds fetcher.Fetcher, articles TextFetcher, classifier *Classifier, window time.Duration, logger *slog.Logger) *Collector {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Collector{
		feeds:      feeds,
		articles:   articles,
		classifier: classifier,
		window:     window,
		now:        time.Now,
		logger:     logging.OrDefault(logger),
	}
}

// Collect polls every endpoint in order and returns a fresh corpus. A failing
// endpoint contributes no entries. The only error is context cancellation.
func (c *Collector) Collect(ctx context.Context, endpoints []string) (*Corpus, error) {
	reference := c.now()
	corpus := &Corpus{}
	seen := make(map[string]struct{})

	for _, endpoint := range endpoints {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entries, err := c.feeds.Fetch(ctx, endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("Feed unavailable, skipping", "endpoint", endpoint, "error", err)
			continue
		}

		kept := 0
		for _, e := range entries {
			if !InWindow(e.Published, reference, c.window) {
				continue
			}
			if key := strings.TrimSpace(e.Link); key != "" {
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			corpus.Add(c.prepare(ctx, e))
			kept++
		}
		c.logger.Debug("Polled feed", "endpoint", endpoint, "entries", len(entries), "kept", kept)
	}

	c.logger.Info("Collected news", "entries", corpus.Count(), "full_text", corpus.FullTextCount())
	return corpus, nil
}

// prepare classifies an entry and, when it is relevant, tries to replace the
// description with the article body.
func (c *Collector) prepare(ctx context.Context, e fetcher.Entry) RelevantEntry {
	re := RelevantEntry{
		Entry:          e,
		Classification: c.classifier.Classify(e.Title, e.Description),
		Content:        e.Description,
	}
	if re.Classification != FullText || c.articles == nil {
		return re
	}

	text, err := c.articles.FetchText(ctx, e.Link)
	switch {
	case err != nil:
		c.logger.Warn("Full text unavailable, using summary", "link", e.Link, "error", err)
	case strings.TrimSpace(text) == "":
		c.logger.Warn("Full text empty, using summary", "link", e.Link)
	default:
		re.Content = text
		re.Enriched = true
	}
	return re
}
