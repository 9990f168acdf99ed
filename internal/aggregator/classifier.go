package aggregator

import (
	"strings"

	"golang.org/x/text/cases"
)

// Classification decides how much of an entry goes into the corpus.
type Classification int

const (
	Summary Classification = iota
	FullText
)

// Label is the marker written into the corpus for the classification.
func (c Classification) Label() string {
	if c == FullText {
		return "[FULL TEXT ANALYSIS]"
	}
	return "[SUMMARY]"
}

func (c Classification) String() string {
	if c == FullText {
		return "FULL_TEXT"
	}
	return "SUMMARY"
}

// Classifier marks entries whose title or description mentions a term of the
// relevance vocabulary.
type Classifier struct {
	terms []string
}

func NewClassifier(vocabulary []string) *Classifier {
	fold := cases.Fold()
	terms := make([]string, 0, len(vocabulary))
	for _, v := range vocabulary {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		terms = append(terms, fold.String(v))
	}
	return &Classifier{terms: terms}
}

// Classify returns FullText when any vocabulary term is a case-insensitive
// substring of title and description, Summary otherwise.
func (c *Classifier) Classify(title, description string) Classification {
	text := cases.Fold().String(title + " " + description)
	for _, term := range c.terms {
		if strings.Contains(text, term) {
			return FullText
		}
	}
	return Summary
}
