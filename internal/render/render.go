package render

import (
	"github.com/ryosukesatoh/daily-brief/internal/aggregator"
)

// Document is a rendered report on disk.
type Document struct {
	Path     string
	Pages    int
	Degraded bool // rendered with the core font because the styled pass failed
}

// Renderer turns an analysis and its citations into a document.
type Renderer interface {
	Render(analysis string, citations []aggregator.Citation) (*Document, error)
}
