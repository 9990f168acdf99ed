package fetcher

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ryosukesatoh/daily-brief/internal/config"
)

// SearchTemplate builds keyword search feed URLs of the form
// {BaseURL}?q={keyword}+when:{Recency}&hl={Language}&gl={Country}&ceid={Country}:{Language}.
type SearchTemplate struct {
	BaseURL  string
	Recency  string
	Language string
	Country  string
}

// URL returns the search feed URL for keyword.
func (t SearchTemplate) URL(keyword string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(keyword), "+", "%20")
	return fmt.Sprintf("%s?q=%s+when:%s&hl=%s&gl=%s&ceid=%s:%s",
		t.BaseURL, escaped, t.Recency, t.Language, t.Country, t.Country, t.Language)
}

// Sources is the immutable set of endpoints polled by one run.
type Sources struct {
	feeds    []string
	keywords []string
	search   SearchTemplate
}

func NewSources(feeds, keywords []string, search SearchTemplate) *Sources {
	return &Sources{
		feeds:    append([]string(nil), feeds...),
		keywords: append([]string(nil), keywords...),
		search:   search,
	}
}

// SourcesFromConfig builds the registry from the sources section.
func SourcesFromConfig(cfg config.SourcesConfig) *Sources {
	return NewSources(cfg.Feeds, cfg.Keywords, SearchTemplate{
		BaseURL:  cfg.Search.BaseURL,
		Recency:  cfg.Search.Recency,
		Language: cfg.Search.Language,
		Country:  cfg.Search.Country,
	})
}

// Endpoints returns the static feeds followed by one search feed per keyword,
// in keyword order. Duplicate keywords yield duplicate endpoints.
func (s *Sources) Endpoints() []string {
	endpoints := make([]string, 0, len(s.feeds)+len(s.keywords))
	endpoints = append(endpoints, s.feeds...)
	for _, kw := range s.keywords {
		endpoints = append(endpoints, s.search.URL(kw))
	}
	return endpoints
}

// Keywords returns a copy of the tracked keywords.
func (s *Sources) Keywords() []string {
	return append([]string(nil), s.keywords...)
}
