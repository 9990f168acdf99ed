package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ryosukesatoh/daily-brief/internal/aggregator"
	"github.com/ryosukesatoh/daily-brief/internal/logging"
)

// Requester turns a corpus into one summarization call.
type Requester struct {
	summarizer Summarizer
	prompt     PromptConfig
	logger     *slog.Logger
}

func NewRequester(s Summarizer, pc PromptConfig, logger *slog.Logger) *Requester {
	return &Requester{
		summarizer: s,
		prompt:     pc,
		logger:     logging.OrDefault(logger),
	}
}

// Request asks the summarizer for the report. An empty corpus yields
// StatusNoNews without calling the summarizer; a failed or blank answer
// yields StatusError with a readable message in Text.
func (r *Requester) Request(ctx context.Context, corpus *aggregator.Corpus) Result {
	if corpus.Empty() {
		return Result{Status: StatusNoNews, Text: "No new news found in the last 24 hours."}
	}

	prompt := BuildPrompt(r.prompt, corpus)
	r.logger.Info("Requesting analysis", "entries", corpus.Count(), "prompt_chars", len([]rune(prompt)))

	text, err := r.summarizer.Summarize(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		r.logger.Error("Analysis request failed", "error", err)
		return Result{
			Status:     StatusError,
			Text:       fmt.Sprintf("An error occurred while generating the analysis report: %v", err),
			Reason:     err.Error(),
			EntryCount: corpus.Count(),
		}
	}

	return Result{
		Status:     StatusAnalyzed,
		Text:       text,
		Citations:  corpus.Citations(),
		EntryCount: corpus.Count(),
	}
}

