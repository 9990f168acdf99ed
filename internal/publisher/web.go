package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/ryosukesatoh/daily-brief/internal/logging"
	"github.com/ryosukesatoh/daily-brief/internal/summarizer"
)

// WebPublisher serves the latest report as an HTML page and its document at
// /report.pdf.
type WebPublisher struct {
	addr   string
	server *http.Server
	logger *slog.Logger
	mu     sync.RWMutex
	latest *summarizer.Digest
}

func NewWebPublisher(addr string, logger *slog.Logger) *WebPublisher {
	wp := &WebPublisher{addr: addr, logger: logging.OrDefault(logger)}
	wp.server = &http.Server{
		Addr:    addr,
		Handler: wp.Handler(),
	}
	return wp
}

// Handler returns the HTTP routes of the publisher.
func (wp *WebPublisher) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", wp.handleIndex)
	mux.HandleFunc("/report.pdf", wp.handleReport)
	return mux
}

// Start begins serving HTTP in the background. Call Shutdown to stop.
func (wp *WebPublisher) Start() error {
	ln, err := net.Listen("tcp", wp.addr)
	if err != nil {
		return fmt.Errorf("web: failed to listen on %s: %w", wp.addr, err)
	}
	go func() {
		wp.logger.Info("Web publisher listening", "addr", wp.addr)
		if err := wp.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			wp.logger.Error("Web publisher error", "error", err)
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (wp *WebPublisher) Shutdown(ctx context.Context) error {
	return wp.server.Shutdown(ctx)
}

func (wp *WebPublisher) Publish(_ context.Context, digest *summarizer.Digest) error {
	wp.mu.Lock()
	wp.latest = digest
	wp.mu.Unlock()
	wp.logger.Info("Web publisher updated", "entries", digest.EntryCount)
	return nil
}

func (wp *WebPublisher) current() *summarizer.Digest {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	return wp.latest
}

func (wp *WebPublisher) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	digest := wp.current()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if digest == nil {
		fmt.Fprint(w, `<!DOCTYPE html><html><body><h1>Daily Brief</h1><p>No report available yet. Check back later.</p></body></html>`)
		return
	}

	fmt.Fprint(w, buildHTMLBody(digest))
}

func (wp *WebPublisher) handleReport(w http.ResponseWriter, r *http.Request) {
	digest := wp.current()
	if digest == nil || digest.DocumentPath == "" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, digest.DocumentPath)
}
