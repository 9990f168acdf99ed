package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ryosukesatoh/daily-brief/internal/aggregator"
	"github.com/ryosukesatoh/daily-brief/internal/logging"
	"github.com/ryosukesatoh/daily-brief/internal/publisher"
	"github.com/ryosukesatoh/daily-brief/internal/render"
	"github.com/ryosukesatoh/daily-brief/internal/retry"
	"github.com/ryosukesatoh/daily-brief/internal/summarizer"
)

// ErrExhausted is returned by Run when every attempt failed.
var ErrExhausted = errors.New("runner: retries exhausted")

// Outcome is how a successful run ended.
type Outcome int

const (
	NoNews Outcome = iota + 1
	Delivered
)

func (o Outcome) String() string {
	switch o {
	case NoNews:
		return "NO_NEWS"
	case Delivered:
		return "DELIVERED"
	default:
		return "NONE"
	}
}

// Collector builds the corpus for one attempt.
type Collector interface {
	Collect(ctx context.Context, endpoints []string) (*aggregator.Corpus, error)
}

// Requester turns a corpus into a report result.
type Requester interface {
	Request(ctx context.Context, corpus *aggregator.Corpus) summarizer.Result
}

// Runner orchestrates the collect -> analyze -> render -> publish pipeline
// with a bounded number of attempts.
type Runner struct {
	endpoints  []string
	collector  Collector
	requester  Requester
	renderer   render.Renderer
	publishers []publisher.Publisher
	policy     retry.Policy
	now        func() time.Time
	logger     *slog.Logger
}

func New(endpoints []string, c Collector, req Requester, rnd render.Renderer, pubs []publisher.Publisher, policy retry.Policy, logger *slog.Logger) *Runner {
	return &Runner{
		endpoints:  endpoints,
		collector:  c,
		requester:  req,
		renderer:   rnd,
		publishers: pubs,
		policy:     policy,
		now:        time.Now,
		logger:     logging.OrDefault(logger),
	}
}

// Run executes attempts until one succeeds or the policy is exhausted. A
// failed run returns an error wrapping ErrExhausted, or the context error if
// the run was cancelled while waiting to retry.
func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	var outcome Outcome

	err := retry.Linear(ctx, r.policy, func(ctx context.Context, attempt int) error {
		r.logger.Info("Starting attempt", "attempt", attempt, "max_attempts", r.policy.MaxAttempts)

		o, err := r.attempt(ctx, attempt)
		if err != nil {
			r.logger.Error("Attempt failed", "attempt", attempt, "error", err)
			return err
		}
		outcome = o
		return nil
	})
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return 0, err
		}
		r.logger.Error("Run failed", "error", err)
		return 0, fmt.Errorf("%w: %w", ErrExhausted, err)
	}

	r.logger.Info("Run completed", "outcome", outcome)
	return outcome, nil
}

func (r *Runner) attempt(ctx context.Context, n int) (outcome Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = 0
			err = fmt.Errorf("runner: panic in attempt %d: %v", n, rec)
		}
	}()

	corpus, err := r.collector.Collect(ctx, r.endpoints)
	if err != nil {
		return 0, fmt.Errorf("runner: collect failed: %w", err)
	}
	r.logger.Info("Corpus assembled", "entries", corpus.Count(), "full_text", corpus.FullTextCount())

	res := r.requester.Request(ctx, corpus)
	switch res.Status {
	case summarizer.StatusNoNews:
		r.logger.Info("No news in window, nothing to deliver")
		return NoNews, nil
	case summarizer.StatusError:
		return 0, fmt.Errorf("runner: analysis failed: %w", res.Err())
	}

	doc, err := r.renderer.Render(res.Text, res.Citations)
	if err != nil {
		return 0, fmt.Errorf("runner: render failed: %w", err)
	}
	if doc.Degraded {
		r.logger.Warn("Document rendered with fallback styling", "path", doc.Path)
	}
	r.logger.Info("Document rendered", "path", doc.Path, "pages", doc.Pages)

	r.publish(ctx, &summarizer.Digest{
		Date:         r.now(),
		Analysis:     res.Text,
		Citations:    res.Citations,
		EntryCount:   res.EntryCount,
		DocumentPath: doc.Path,
	})

	return Delivered, nil
}

// publish hands the digest to every sink. Sink failures are logged and do
// not fail the attempt.
func (r *Runner) publish(ctx context.Context, digest *summarizer.Digest) {
	failed := 0
	for _, pub := range r.publishers {
		if err := pub.Publish(ctx, digest); err != nil {
			failed++
			r.logger.Error("Publish failed", "publisher", fmt.Sprintf("%T", pub), "error", err)
			continue
		}
		r.logger.Info("Published", "publisher", fmt.Sprintf("%T", pub))
	}
	if failed > 0 {
		r.logger.Warn("Delivery incomplete", "failed", failed, "publishers", len(r.publishers))
	}
}
