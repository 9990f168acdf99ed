package aggregator

import (
	"fmt"
	"strings"

	"github.com/ryosukesatoh/daily-brief/internal/fetcher"
)

// Citation references one corpus entry in the rendered report.
type Citation struct {
	Label string `json:"label"`
	Link  string `json:"link"`
}

// RelevantEntry is an entry that passed the time window.
type RelevantEntry struct {
	fetcher.Entry
	Classification Classification
	Content        string
	Enriched       bool // Content is fetched article text rather than the description
}

// Corpus is the ordered text handed to the summarizer together with the
// citations that reference it. Segment i, entry i and citation i describe the
// same item.
type Corpus struct {
	entries   []RelevantEntry
	segments  []string
	citations []Citation
}

// Add appends the entry as the next numbered segment and citation.
func (c *Corpus) Add(e RelevantEntry) {
	index := len(c.entries) + 1
	c.entries = append(c.entries, e)
	c.segments = append(c.segments, fmt.Sprintf("\n--- ENTRY %d %s ---\nTITLE: %s\nCONTENT: %s\nSOURCE: %s\n",
		index, e.Classification.Label(), e.Title, e.Content, e.Link))
	c.citations = append(c.citations, Citation{
		Label: fmt.Sprintf("Entry %d: %s", index, e.Title),
		Link:  e.Link,
	})
}

// Count is the number of entries in the corpus.
func (c *Corpus) Count() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Empty reports whether no news was collected.
func (c *Corpus) Empty() bool {
	return c.Count() == 0
}

func (c *Corpus) Text() string {
	if c == nil {
		return ""
	}
	return strings.Join(c.segments, "")
}

func (c *Corpus) Segments() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.segments...)
}

func (c *Corpus) Entries() []RelevantEntry {
	if c == nil {
		return nil
	}
	return append([]RelevantEntry(nil), c.entries...)
}

func (c *Corpus) Citations() []Citation {
	if c == nil {
		return nil
	}
	return append([]Citation(nil), c.citations...)
}

// FullTextCount is the number of entries classified for full-text analysis.
func (c *Corpus) FullTextCount() int {
	n := 0
	for _, e := range c.Entries() {
		if e.Classification == FullText {
			n++
		}
	}
	return n
}
