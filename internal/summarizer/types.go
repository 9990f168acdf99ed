package summarizer

import (
	"context"
	"errors"
	"time"

	"github.com/ryosukesatoh/daily-brief/internal/aggregator"
)

// Summarizer sends one prompt to a generative model and returns its text.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Status tags the outcome of a report request.
type Status int

const (
	StatusNoNews Status = iota
	StatusAnalyzed
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusNoNews:
		return "NO_NEWS"
	case StatusAnalyzed:
		return "ANALYZED"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Result is the outcome of one report request. Citations are the corpus
// citations and are only set when Status is StatusAnalyzed.
type Result struct {
	Status     Status
	Text       string
	Citations  []aggregator.Citation
	Reason     string
	EntryCount int
}

// Digest is the delivered report: analysis text, its sources and the
// rendered document.
type Digest struct {
	Date         time.Time             `json:"date"`
	Analysis     string                `json:"analysis"`
	Citations    []aggregator.Citation `json:"citations"`
	EntryCount   int                   `json:"entry_count"`
	DocumentPath string                `json:"document_path"`
}

// Err returns the failure carried by an error result, nil otherwise.
func (res Result) Err() error {
	if res.Status != StatusError {
		return nil
	}
	return errors.New(res.Reason)
}
