package publisher

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ryosukesatoh/daily-brief/internal/summarizer"
)

// StdoutPublisher prints the report to stdout.
type StdoutPublisher struct {
	out io.Writer
}

func NewStdoutPublisher() *StdoutPublisher {
	return &StdoutPublisher{out: os.Stdout}
}

func (p *StdoutPublisher) Publish(_ context.Context, digest *summarizer.Digest) error {
	w := p.out
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintf(w, "Daily Brief: %d news items\n", digest.EntryCount)
	fmt.Fprintf(w, "Date: %s\n", digest.Date.Format("2006-01-02 15:04"))
	if digest.DocumentPath != "" {
		fmt.Fprintf(w, "Document: %s\n", digest.DocumentPath)
	}
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)

	fmt.Fprintln(w, digest.Analysis)
	fmt.Fprintln(w)

	if len(digest.Citations) > 0 {
		fmt.Fprintln(w, strings.Repeat("-", 72))
		fmt.Fprintln(w, "News Sources:")
		for _, c := range digest.Citations {
			fmt.Fprintf(w, "  %s\n", c.Label)
			fmt.Fprintf(w, "    %s\n", c.Link)
		}
	}

	fmt.Fprintln(w, strings.Repeat("=", 72))
	return nil
}
