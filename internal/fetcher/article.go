package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

// maxArticleBytes caps how much of an article page is read.
const maxArticleBytes = 5 << 20

// ErrNoText is returned when an article page yields no readable body.
var ErrNoText = errors.New("article: no readable text")

// ArticleFetcher downloads a page and extracts its main body text.
type ArticleFetcher struct {
	client   *http.Client
	maxChars int
}

func NewArticleFetcher(timeout time.Duration, maxChars int) *ArticleFetcher {
	return &ArticleFetcher{
		client:   &http.Client{Timeout: timeout},
		maxChars: maxChars,
	}
}

// FetchText returns the article body truncated to the configured number of
// characters. Any failure is returned as an error; callers decide the fallback.
func (f *ArticleFetcher) FetchText(ctx context.Context, link string) (string, error) {
	pageURL, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("article: invalid url %q: %w", link, err)
	}
	if pageURL.Scheme != "http" && pageURL.Scheme != "https" {
		return "", fmt.Errorf("article: unsupported scheme %q", pageURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("article: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("article: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article: unexpected status %d", resp.StatusCode)
	}

	// Redirects (news aggregator links) change the base for relative URLs.
	if resp.Request != nil && resp.Request.URL != nil {
		pageURL = resp.Request.URL
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxArticleBytes), pageURL)
	if err != nil {
		return "", fmt.Errorf("article: failed to parse: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", ErrNoText
	}
	return truncateRunes(text, f.maxChars), nil
}
