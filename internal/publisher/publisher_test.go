package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ryosukesatoh/daily-brief/internal/aggregator"
	"github.com/ryosukesatoh/daily-brief/internal/retry"
	"github.com/ryosukesatoh/daily-brief/internal/summarizer"
)

func sampleDigest(t *testing.T) *summarizer.Digest {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Gunluk_Analiz.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 test document"), 0o644); err != nil {
		t.Fatalf("failed to write document: %v", err)
	}
	return &summarizer.Digest{
		Date:     time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC),
		Analysis: "Robotics demand is rising.\n\nAutonomous logistics contracts expanded this week.",
		Citations: []aggregator.Citation{
			{Label: "Entry 1: Robot arms ship", Link: "https://example.com/robots"},
			{Label: "Entry 2: Autonomous trucks", Link: "https://example.com/trucks"},
		},
		EntryCount:   2,
		DocumentPath: path,
	}
}

func TestStdoutPublish(t *testing.T) {
	var buf bytes.Buffer
	pub := &StdoutPublisher{out: &buf}

	if err := pub.Publish(context.Background(), sampleDigest(t)); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"2 news items",
		"Robotics demand is rising.",
		"News Sources:",
		"Entry 1: Robot arms ship",
		"https://example.com/trucks",
		"Gunluk_Analiz.pdf",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}
}

func TestEmailBuildMessage(t *testing.T) {
	pub := NewEmailPublisher("smtp.example.com", 465, "me@example.com", "secret",
		"me@example.com", []string{"reader@example.com"}, "Technical Analysis Report", time.Second)

	msg, err := pub.buildMessage(sampleDigest(t))
	if err != nil {
		t.Fatalf("buildMessage returned error: %v", err)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo returned error: %v", err)
	}
	raw := buf.String()

	for _, want := range []string{
		"Technical Analysis Report - 15/01/2025",
		"reader@example.com",
		"me@example.com",
		"Robotics demand is rising.",
		"Gunluk_Analiz.pdf",
		"attachment",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("Expected message to contain %q", want)
		}
	}
}

func TestEmailBuildMessageMissingAttachment(t *testing.T) {
	pub := NewEmailPublisher("smtp.example.com", 465, "me@example.com", "secret",
		"me@example.com", []string{"me@example.com"}, "Report", time.Second)

	digest := sampleDigest(t)
	digest.DocumentPath = filepath.Join(t.TempDir(), "missing.pdf")

	if _, err := pub.buildMessage(digest); err == nil {
		t.Fatal("Expected error for missing attachment")
	}
}

func TestEmailBuildMessageInvalidAddress(t *testing.T) {
	pub := NewEmailPublisher("smtp.example.com", 465, "", "secret",
		"not an address", []string{"me@example.com"}, "Report", time.Second)

	if _, err := pub.buildMessage(sampleDigest(t)); err == nil {
		t.Fatal("Expected error for invalid from address")
	}
}

func TestEmailPublishUnreachableServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot reserve a port: %v", err)
	}
	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()
	port, _ := strconv.Atoi(portStr)

	pub := NewEmailPublisher(host, port, "me@example.com", "secret",
		"me@example.com", []string{"me@example.com"}, "Report", 2*time.Second)

	err = pub.Publish(context.Background(), sampleDigest(t))
	if err == nil {
		t.Fatal("Expected error when the SMTP server is unreachable")
	}
	if !strings.HasPrefix(err.Error(), "email:") {
		t.Errorf("Expected email-prefixed error, got: %v", err)
	}
}

func TestBuildHTMLBodyEscapes(t *testing.T) {
	digest := sampleDigest(t)
	digest.Analysis = "<script>alert(1)</script>"

	body := buildHTMLBody(digest)
	if strings.Contains(body, "<script>") {
		t.Error("Expected analysis to be escaped")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("Expected escaped analysis in body")
	}
	if !strings.Contains(body, `href="https://example.com/robots"`) {
		t.Error("Expected citation link in body")
	}
}

func TestWebPublisher(t *testing.T) {
	wp := NewWebPublisher(":0", nil)
	ts := httptest.NewServer(wp.Handler())
	defer ts.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	if _, body := get("/"); !strings.Contains(body, "No report available yet") {
		t.Errorf("Expected placeholder page, got %q", body)
	}
	if status, _ := get("/report.pdf"); status != http.StatusNotFound {
		t.Errorf("Expected 404 before first report, got %d", status)
	}

	if err := wp.Publish(context.Background(), sampleDigest(t)); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	if _, body := get("/"); !strings.Contains(body, "Autonomous logistics contracts") {
		t.Errorf("Expected analysis on index page, got %q", body)
	}
	status, body := get("/report.pdf")
	if status != http.StatusOK {
		t.Fatalf("Expected 200 for report, got %d", status)
	}
	if !strings.HasPrefix(body, "%PDF") {
		t.Errorf("Expected document bytes, got %q", body)
	}
	if status, _ := get("/other"); status != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", status)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  func(string) bool
	}{
		{"short string unchanged", "hello", 10, func(s string) bool { return s == "hello" }},
		{"exact length unchanged", "hello", 5, func(s string) bool { return s == "hello" }},
		{"long string truncated with ellipsis", "This is a very long string that should be truncated.", 20,
			func(s string) bool { return strings.HasSuffix(s, "…") && len([]rune(s)) == 20 }},
		{"truncation prefers sentence boundary", "A long enough first sentence. The rest is extra padding text here.", 40,
			func(s string) bool { return s == "A long enough first sentence." }},
		{"multibyte counted as characters", strings.Repeat("ş", 10), 10,
			func(s string) bool { return s == strings.Repeat("ş", 10) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.max); !tt.want(got) {
				t.Errorf("truncate(%q, %d) = %q", tt.input, tt.max, got)
			}
		})
	}
}

func TestSplitText(t *testing.T) {
	if got := splitText("   ", 10); len(got) != 0 {
		t.Errorf("Expected no chunks for blank text, got %v", got)
	}

	got := splitText("one\ntwo\nthree", 100)
	if len(got) != 1 || got[0] != "one\ntwo\nthree" {
		t.Errorf("Expected single chunk, got %q", got)
	}

	got = splitText("aaaa\nbbbb\ncccc", 10)
	if len(got) != 2 {
		t.Fatalf("Expected 2 chunks, got %q", got)
	}
	if got[0] != "aaaa\nbbbb" || got[1] != "cccc" {
		t.Errorf("Expected line-aligned chunks, got %q", got)
	}

	got = splitText(strings.Repeat("x", 25), 10)
	if len(got) != 3 {
		t.Fatalf("Expected 3 hard-split chunks, got %d", len(got))
	}
	for _, c := range got {
		if len([]rune(c)) > 10 {
			t.Errorf("Chunk exceeds limit: %d", len([]rune(c)))
		}
	}
}

func TestBuildEmbeds(t *testing.T) {
	digest := sampleDigest(t)
	digest.Citations = nil
	for i := 1; i <= 30; i++ {
		digest.Citations = append(digest.Citations, aggregator.Citation{
			Label: fmt.Sprintf("Entry %d: headline", i),
			Link:  fmt.Sprintf("https://example.com/%d", i),
		})
	}
	digest.Citations[29].Link = ""

	embeds := buildEmbeds(digest)
	if len(embeds) != 3 {
		t.Fatalf("Expected 3 embeds (analysis + 2 source pages), got %d", len(embeds))
	}
	if !strings.Contains(embeds[0].Title, "2025-01-15") {
		t.Errorf("Expected dated title, got %q", embeds[0].Title)
	}
	if embeds[0].Description != digest.Analysis {
		t.Errorf("Expected analysis in first embed, got %q", embeds[0].Description)
	}
	if len(embeds[1].Fields) != 25 || len(embeds[2].Fields) != 5 {
		t.Errorf("Expected 25 and 5 fields, got %d and %d", len(embeds[1].Fields), len(embeds[2].Fields))
	}
	if embeds[1].Fields[0].Name != "Entry 1: headline" {
		t.Errorf("Expected citation order to be kept, got %q", embeds[1].Fields[0].Name)
	}
	if embeds[2].Fields[4].Value != "-" {
		t.Errorf("Expected placeholder for empty link, got %q", embeds[2].Fields[4].Value)
	}
}

func TestBuildEmbedsLongLinksStayUnderMessageLimit(t *testing.T) {
	digest := sampleDigest(t)
	digest.Citations = nil
	for i := 1; i <= 25; i++ {
		link := fmt.Sprintf("https://news.google.com/rss/articles/%d?oc=5&q=", i) + strings.Repeat("CBMi", 60)
		digest.Citations = append(digest.Citations, aggregator.Citation{
			Label: fmt.Sprintf("Entry %d: ASELSAN yeni savunma sistemi", i),
			Link:  link,
		})
	}

	embeds := buildEmbeds(digest)
	sourceEmbeds := embeds[1:]
	if len(sourceEmbeds) < 2 {
		t.Fatalf("Expected citations to spill into several embeds, got %d", len(sourceEmbeds))
	}

	total := 0
	for i, e := range sourceEmbeds {
		if n := embedCharCount(e); n > messageCharLimit {
			t.Errorf("Source embed %d has %d chars, over the %d limit", i, n, messageCharLimit)
		}
		if len(e.Fields) > embedFieldsLimit {
			t.Errorf("Source embed %d has %d fields", i, len(e.Fields))
		}
		for _, f := range e.Fields {
			total++
			if want := fmt.Sprintf("Entry %d: ", total); !strings.HasPrefix(f.Name, want) {
				t.Errorf("Expected field %q to start with %q", f.Name, want)
			}
		}
	}
	if total != 25 {
		t.Errorf("Expected all 25 citations, got %d", total)
	}

	for i, batch := range batchEmbeds(embeds) {
		chars := 0
		for _, e := range batch {
			chars += embedCharCount(e)
		}
		if chars > messageCharLimit {
			t.Errorf("Batch %d has %d chars, over the %d limit", i, chars, messageCharLimit)
		}
	}
}

func TestBuildEmbedsLongAnalysis(t *testing.T) {
	digest := sampleDigest(t)
	digest.Analysis = strings.Repeat(strings.Repeat("y", 99)+"\n", 100)
	digest.Citations = nil

	embeds := buildEmbeds(digest)
	if len(embeds) != 3 {
		t.Fatalf("Expected 3 analysis embeds, got %d", len(embeds))
	}
	for _, e := range embeds {
		if len([]rune(e.Description)) > embedDescriptionLimit {
			t.Errorf("Description exceeds limit: %d", len([]rune(e.Description)))
		}
	}
	if embeds[1].Title != "" {
		t.Errorf("Expected continuation embeds to be untitled, got %q", embeds[1].Title)
	}
}

func TestEmbedCharCount(t *testing.T) {
	e := discordEmbed{
		Title:       "Title",       // 5
		Description: "Description", // 11
		Fields: []discordEmbedField{
			{Name: "Field", Value: "Value"}, // 5 + 5 = 10
		},
		Footer: &discordEmbedFooter{Text: "Footer"}, // 6
	}

	if count := embedCharCount(e); count != 32 {
		t.Errorf("Expected char count 32, got %d", count)
	}
}

func TestBatchEmbedsOver10(t *testing.T) {
	embeds := make([]discordEmbed, 12)
	for i := range embeds {
		embeds[i] = discordEmbed{Title: "T"}
	}

	batches := batchEmbeds(embeds)
	if len(batches) != 2 {
		t.Fatalf("Expected 2 batches for 12 embeds, got %d", len(batches))
	}
	if len(batches[0]) != 10 || len(batches[1]) != 2 {
		t.Errorf("Expected batches of 10 and 2, got %d and %d", len(batches[0]), len(batches[1]))
	}
}

func TestBatchEmbedsCharLimit(t *testing.T) {
	// 3 embeds of 2000 chars fill a message; the 4th starts a new batch.
	embeds := make([]discordEmbed, 4)
	for i := range embeds {
		embeds[i] = discordEmbed{Description: strings.Repeat("x", 2000)}
	}

	batches := batchEmbeds(embeds)
	if len(batches) != 2 {
		t.Fatalf("Expected 2 batches due to char limit, got %d", len(batches))
	}
	if len(batches[0]) != 3 || len(batches[1]) != 1 {
		t.Errorf("Expected batches of 3 and 1, got %d and %d", len(batches[0]), len(batches[1]))
	}
}

func TestDiscordPublishWithMockWebhook(t *testing.T) {
	var receivedPayloads []discordWebhookPayload

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %q", r.Header.Get("Content-Type"))
		}

		body, _ := io.ReadAll(r.Body)
		var payload discordWebhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("Failed to parse webhook payload: %v", err)
		}
		receivedPayloads = append(receivedPayloads, payload)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	pub := &DiscordPublisher{
		webhookURL: ts.URL,
		client:     ts.Client(),
	}

	if err := pub.Publish(context.Background(), sampleDigest(t)); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	if len(receivedPayloads) != 1 {
		t.Fatalf("Expected 1 webhook payload, got %d", len(receivedPayloads))
	}
	embeds := receivedPayloads[0].Embeds
	if len(embeds) != 2 {
		t.Fatalf("Expected 2 embeds (analysis + sources), got %d", len(embeds))
	}
	if embeds[1].Title != "News Sources" || len(embeds[1].Fields) != 2 {
		t.Errorf("Expected sources embed with 2 fields, got %+v", embeds[1])
	}
}

func TestDiscordPublishWebhookError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	pub := &DiscordPublisher{
		webhookURL: ts.URL,
		client:     ts.Client(),
	}

	err := pub.Publish(context.Background(), sampleDigest(t))
	if err == nil {
		t.Fatal("Expected error for webhook failure")
	}
	if !strings.Contains(err.Error(), "unexpected status 400") {
		t.Errorf("Expected 'unexpected status 400' error, got: %v", err)
	}
}

func TestDiscordPublishRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	pub := &DiscordPublisher{
		webhookURL:  ts.URL,
		client:      ts.Client(),
		retryConfig: retry.Config{MaxRetries: 2, BaseDelay: time.Millisecond},
	}

	if err := pub.Publish(context.Background(), sampleDigest(t)); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("Expected 2 webhook calls, got %d", got)
	}
}

func TestDiscordPublishDoesNotRetryNonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusMultipleChoices)
	}))
	defer ts.Close()

	pub := &DiscordPublisher{
		webhookURL:  ts.URL,
		client:      ts.Client(),
		retryConfig: retry.Config{MaxRetries: 2, BaseDelay: time.Millisecond},
	}

	err := pub.Publish(context.Background(), sampleDigest(t))
	if !errors.Is(err, retry.ErrPermanent) {
		t.Fatalf("Expected permanent failure, got: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected 1 webhook call, got %d", got)
	}
}
