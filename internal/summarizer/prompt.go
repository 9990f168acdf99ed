package summarizer

import (
	"fmt"
	"strings"

	"github.com/ryosukesatoh/daily-brief/internal/aggregator"
	"github.com/ryosukesatoh/daily-brief/internal/config"
)

// Entity is a listed company the report has to cover explicitly.
type Entity struct {
	Name   string
	Ticker string
	Sector string
}

// PromptConfig holds the fixed parts of the report instruction.
type PromptConfig struct {
	Persona  string
	Language string
	MaxChars int
	Headings []string
	Entities []Entity
}

const defaultPersona = `Act as a high-level technical analyst and advisor for an 'Assembly Engineer' and 'Field Operation Architect' (Calculated Field Leader).
The user is a mechanical engineer specialized in robotics, the defense industry, and project-based system integration, with expertise in on-site implementation and technical project management, who is also a strategic investor in the Turkish Stock Market (BIST).
They also have a strategic interest in chip investments and high-tech hardware.`

// DefaultPromptConfig returns the BIST engineering analyst report setup.
func DefaultPromptConfig() PromptConfig {
	return PromptConfig{
		Persona:  defaultPersona,
		Language: "TURKISH",
		MaxChars: 20000,
		Headings: []string{
			"Teknik Analiz",
			"Saha Operasyon Etkileri ve Öngörüleri",
			"BIST Şirket Değerlendirmeleri",
			"Yatırım Potansiyeli",
		},
		Entities: []Entity{
			{Name: "ASELSAN", Ticker: "ASELS", Sector: "Defense & Electronics"},
			{Name: "TÜPRAŞ", Ticker: "TUPRS", Sector: "Energy & Refinery"},
			{Name: "ASTOR ENERJİ", Ticker: "ASTOR", Sector: "Energy"},
			{Name: "VESTEL BEYAZ EŞYA", Ticker: "VESBE", Sector: "Manufacturing & Consumer Electronics"},
			{Name: "İSKENDERUN DEMİR ÇELİK", Ticker: "ISDMR", Sector: "Heavy Industry & Steel"},
			{Name: "FORD OTOSAN", Ticker: "FROTO", Sector: "Automotive & Automation"},
			{Name: "TURKISH AIRLINES", Ticker: "THYAO", Sector: "Aviation"},
		},
	}
}

// PromptConfigFromConfig overlays the report section on the defaults.
func PromptConfigFromConfig(cfg config.ReportConfig) PromptConfig {
	pc := DefaultPromptConfig()
	if strings.TrimSpace(cfg.Persona) != "" {
		pc.Persona = strings.TrimSpace(cfg.Persona)
	}
	if cfg.Language != "" {
		pc.Language = cfg.Language
	}
	if cfg.MaxChars > 0 {
		pc.MaxChars = cfg.MaxChars
	}
	if len(cfg.Headings) > 0 {
		pc.Headings = cfg.Headings
	}
	if len(cfg.Entities) > 0 {
		pc.Entities = make([]Entity, 0, len(cfg.Entities))
		for _, e := range cfg.Entities {
			pc.Entities = append(pc.Entities, Entity{Name: e.Name, Ticker: e.Ticker, Sector: e.Sector})
		}
	}
	return pc
}

// BuildPrompt wraps the corpus into the report instruction.
func BuildPrompt(pc PromptConfig, corpus *aggregator.Corpus) string {
	var sb strings.Builder
	sb.WriteString(pc.Persona)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Your task is to analyze the following %d news items and provide a comprehensive, high-value report in %s.\n\n",
		corpus.Count(), pc.Language)

	sb.WriteString("NEWS DATA:\n")
	sb.WriteString(corpus.Text())
	sb.WriteString("\n")

	if len(pc.Entities) > 0 {
		sb.WriteString("SPECIFIC MONITORING - BIST COMPANIES:\n")
		sb.WriteString("Analyze and highlight any developments, financial shifts, or strategic moves related to:\n")
		for _, e := range pc.Entities {
			line := e.Name
			if e.Ticker != "" {
				line += " / " + e.Ticker
			}
			if e.Sector != "" {
				line += " (" + e.Sector + ")"
			}
			fmt.Fprintf(&sb, "- %s\n", line)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("STRICT CONSTRAINTS:\n")
	sb.WriteString("1. ANALYSIS DEPTH: Provide expert-level technical insights regarding field operations, assembly precision, system architecture, and project-specific requirements (Robotics/Defense context).\n")
	fmt.Fprintf(&sb, "2. CHARACTER LIMIT: The total response must NOT exceed %d characters (including spaces). This is a hard limit.\n", pc.MaxChars)
	if len(pc.Headings) > 0 {
		fmt.Fprintf(&sb, "3. FORMAT: Use structured headings (%s) and technical bullet points.\n", strings.Join(pc.Headings, ", "))
	} else {
		sb.WriteString("3. FORMAT: Use structured headings and technical bullet points.\n")
	}
	fmt.Fprintf(&sb, "4. LANGUAGE: The entire response must be written in %s.\n", pc.Language)
	sb.WriteString("5. TONE: Professional, concise, and highly engineering-focused.\n")
	fmt.Fprintf(&sb, "6. DEEP ANALYSIS FOR AI: For news items provided with full text (marked as %s), perform a SWOT analysis regarding their impact on BIST technology stocks and assembly automation.\n",
		aggregator.FullText.Label())

	return sb.String()
}
