package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ryosukesatoh/daily-brief/internal/retry"
	"github.com/ryosukesatoh/daily-brief/internal/summarizer"
)

const (
	embedDescriptionLimit = 4096
	embedFieldsLimit      = 25
	messageCharLimit      = 6000
	embedColor            = 0x228B22
)

type discordEmbedFooter struct {
	Text string `json:"text"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	URL         string              `json:"url,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      *discordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// DiscordPublisher posts the report to a Discord channel via webhook.
type DiscordPublisher struct {
	webhookURL  string
	client      *http.Client
	retryConfig retry.Config
}

func NewDiscordPublisher(webhookURL string) *DiscordPublisher {
	return &DiscordPublisher{
		webhookURL:  webhookURL,
		client:      &http.Client{Timeout: 30 * time.Second},
		retryConfig: retry.DefaultConfig(),
	}
}

// Publish sends the analysis followed by its sources as a series of embeds.
func (d *DiscordPublisher) Publish(ctx context.Context, digest *summarizer.Digest) error {
	batches := batchEmbeds(buildEmbeds(digest))

	for i, batch := range batches {
		err := retry.WithBackoff(ctx, d.retryConfig, func(ctx context.Context) error {
			return d.sendWebhook(ctx, batch)
		})
		if err != nil {
			return fmt.Errorf("discord: failed to send batch %d: %w", i+1, err)
		}

		// Delay between batches to avoid rate limits.
		if i < len(batches)-1 {
			if err := retry.Sleep(ctx, 500*time.Millisecond); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildEmbeds splits the analysis across description-sized embeds and lists
// the citations as fields. A citation embed holds at most 25 fields and never
// exceeds the per-message character limit on its own.
func buildEmbeds(digest *summarizer.Digest) []discordEmbed {
	var embeds []discordEmbed

	for i, chunk := range splitText(digest.Analysis, embedDescriptionLimit) {
		e := discordEmbed{Description: chunk, Color: embedColor}
		if i == 0 {
			e.Title = fmt.Sprintf("Daily Brief: %s", digest.Date.Format("2006-01-02"))
			e.Footer = &discordEmbedFooter{Text: fmt.Sprintf("%d news items", digest.EntryCount)}
			e.Timestamp = digest.Date.Format(time.RFC3339)
		}
		embeds = append(embeds, e)
	}

	sources := discordEmbed{Title: "News Sources", Color: embedColor}
	for _, c := range digest.Citations {
		value := c.Link
		if value == "" {
			value = "-"
		}
		field := discordEmbedField{
			Name:  truncate(c.Label, 256),
			Value: truncate(value, 1024),
		}

		size := utf8.RuneCountInString(field.Name) + utf8.RuneCountInString(field.Value)
		if len(sources.Fields) == embedFieldsLimit ||
			(len(sources.Fields) > 0 && embedCharCount(sources)+size > messageCharLimit) {
			embeds = append(embeds, sources)
			sources = discordEmbed{Color: embedColor}
		}
		sources.Fields = append(sources.Fields, field)
	}
	if len(sources.Fields) > 0 {
		embeds = append(embeds, sources)
	}

	return embeds
}

// batchEmbeds splits embeds into batches respecting Discord limits:
// max 10 embeds per message, max 6000 total characters per message.
func batchEmbeds(embeds []discordEmbed) [][]discordEmbed {
	var batches [][]discordEmbed
	var current []discordEmbed
	currentChars := 0

	for _, e := range embeds {
		ec := embedCharCount(e)

		if len(current) > 0 && (len(current) >= 10 || currentChars+ec > messageCharLimit) {
			batches = append(batches, current)
			current = nil
			currentChars = 0
		}

		current = append(current, e)
		currentChars += ec
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}

func (d *DiscordPublisher) sendWebhook(ctx context.Context, embeds []discordEmbed) error {
	body, err := json.Marshal(discordWebhookPayload{Embeds: embeds})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if !retry.HTTPStatusRetryable(resp.StatusCode) {
			return fmt.Errorf("%w: unexpected status %d", retry.ErrPermanent, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return nil
}

// splitText breaks s into chunks of at most max characters, preferring line
// breaks. Lines longer than max are hard split.
func splitText(s string, max int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if chunk := strings.TrimRight(cur.String(), "\n"); strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		cur.Reset()
	}

	for _, line := range strings.SplitAfter(s, "\n") {
		for utf8.RuneCountInString(line) > max {
			flush()
			runes := []rune(line)
			chunks = append(chunks, string(runes[:max]))
			line = string(runes[max:])
		}
		if utf8.RuneCountInString(cur.String())+utf8.RuneCountInString(line) > max {
			flush()
		}
		cur.WriteString(line)
	}
	flush()

	return chunks
}

// truncate shortens s to max characters, preferring a sentence boundary.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	cut := string([]rune(s)[:max-1])
	if idx := strings.LastIndexAny(cut, ".!?"); idx > len(cut)/2 {
		return cut[:idx+1]
	}
	return cut + "…"
}

// embedCharCount returns the total character count of an embed for batching purposes.
func embedCharCount(e discordEmbed) int {
	n := utf8.RuneCountInString(e.Title) + utf8.RuneCountInString(e.Description)
	for _, f := range e.Fields {
		n += utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
	}
	if e.Footer != nil {
		n += utf8.RuneCountInString(e.Footer.Text)
	}
	return n
}
