package publisher

import (
	"context"

	"github.com/ryosukesatoh/daily-brief/internal/summarizer"
)

// Publisher delivers a finished report to some output destination.
type Publisher interface {
	Publish(ctx context.Context, digest *summarizer.Digest) error
}
