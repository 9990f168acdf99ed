package summarizer

import (
	"errors"
	"strings"

	"github.com/ryosukesatoh/daily-brief/internal/config"
)

// New creates a new summarizer based on the configuration
func New(cfg *config.Config) (Summarizer, error) {
	s := cfg.Summarizer
	switch s.Type {
	case "gemini":
		g := NewGeminiSummarizer(s.APIKey, s.Model, s.MaxTokens, s.Timeout)
		if s.BaseURL != "" {
			g.baseURL = strings.TrimSuffix(s.BaseURL, "/")
		}
		return g, nil
	case "anthropic":
		a := NewAnthropicSummarizer(s.APIKey, s.Model, s.MaxTokens, s.Timeout)
		if s.BaseURL != "" {
			a.baseURL = s.BaseURL
		}
		return a, nil
	default:
		return nil, ErrUnsupportedSummarizerType
	}
}

// ErrUnsupportedSummarizerType is returned when an unsupported summarizer type is specified
var ErrUnsupportedSummarizerType = errors.New("unsupported summarizer type")

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("empty response")
