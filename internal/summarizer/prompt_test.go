package summarizer

import (
	"strings"
	"testing"

	"github.com/ryosukesatoh/daily-brief/internal/aggregator"
	"github.com/ryosukesatoh/daily-brief/internal/config"
	"github.com/ryosukesatoh/daily-brief/internal/fetcher"
)

func sampleCorpus() *aggregator.Corpus {
	c := &aggregator.Corpus{}
	c.Add(aggregator.RelevantEntry{
		Entry:          fetcher.Entry{Title: "Borsa kapandı", Link: "https://news.example/borsa"},
		Classification: aggregator.Summary,
		Content:        "hisseler düştü",
	})
	c.Add(aggregator.RelevantEntry{
		Entry:          fetcher.Entry{Title: "Yeni Robotik Kol", Link: "https://news.example/robotik"},
		Classification: aggregator.FullText,
		Content:        "fabrikada yeni kol",
	})
	return c
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(DefaultPromptConfig(), sampleCorpus())

	for _, want := range []string{
		"technical analyst",
		"analyze the following 2 news items",
		"report in TURKISH",
		"--- ENTRY 1 [SUMMARY] ---",
		"--- ENTRY 2 [FULL TEXT ANALYSIS] ---",
		"ASELSAN / ASELS (Defense & Electronics)",
		"TURKISH AIRLINES / THYAO (Aviation)",
		"must NOT exceed 20000 characters",
		"Teknik Analiz, Saha Operasyon Etkileri ve Öngörüleri",
		"must be written in TURKISH",
		"(marked as [FULL TEXT ANALYSIS]), perform a SWOT analysis",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}

	if strings.Index(prompt, "NEWS DATA:") > strings.Index(prompt, "STRICT CONSTRAINTS:") {
		t.Error("Expected news data before the constraints")
	}
}

func TestPromptConfigFromConfig(t *testing.T) {
	pc := PromptConfigFromConfig(config.ReportConfig{
		Language: "ENGLISH",
		MaxChars: 8000,
		Headings: []string{"Summary", "Outlook"},
		Entities: []config.EntityConfig{{Name: "ACME", Ticker: "ACME"}},
	})

	if pc.Persona != defaultPersona {
		t.Error("Expected default persona when none is configured")
	}
	prompt := BuildPrompt(pc, sampleCorpus())
	for _, want := range []string{"report in ENGLISH", "exceed 8000 characters", "(Summary, Outlook)", "- ACME / ACME\n"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
	if strings.Contains(prompt, "ASELSAN") {
		t.Error("Expected configured entities to replace the defaults")
	}
}

func TestPromptWithoutEntities(t *testing.T) {
	pc := DefaultPromptConfig()
	pc.Entities = nil
	prompt := BuildPrompt(pc, sampleCorpus())
	if strings.Contains(prompt, "SPECIFIC MONITORING") {
		t.Error("Expected no monitoring section without entities")
	}
}
