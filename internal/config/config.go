package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingCredential is returned by Load when a required secret is empty or
// still references an unset environment variable.
var ErrMissingCredential = errors.New("config: missing credential")

type Config struct {
	Schedule   string           `yaml:"schedule"`
	RunOnStart bool             `yaml:"run_on_start"`
	LogLevel   string           `yaml:"log_level"`
	Sources    SourcesConfig    `yaml:"sources"`
	Classifier ClassifierConfig `yaml:"classifier"`
	FullText   FullTextConfig   `yaml:"full_text"`
	Report     ReportConfig     `yaml:"report"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Renderer   RendererConfig   `yaml:"renderer"`
	Publisher  PublisherConfig  `yaml:"publisher"`
	Retry      RetryConfig      `yaml:"retry"`
}

type SourcesConfig struct {
	Type     string        `yaml:"type"`
	Feeds    []string      `yaml:"feeds"`
	Keywords []string      `yaml:"keywords"`
	Search   SearchConfig  `yaml:"search"`
	Window   time.Duration `yaml:"window"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SearchConfig describes the keyword search feed that derived endpoints point at.
type SearchConfig struct {
	BaseURL  string `yaml:"base_url"`
	Recency  string `yaml:"recency"`
	Language string `yaml:"language"`
	Country  string `yaml:"country"`
}

type ClassifierConfig struct {
	Vocabulary []string `yaml:"vocabulary"`
}

type FullTextConfig struct {
	MaxChars int           `yaml:"max_chars"`
	Timeout  time.Duration `yaml:"timeout"`
}

type ReportConfig struct {
	Persona  string         `yaml:"persona"`
	Language string         `yaml:"language"`
	MaxChars int            `yaml:"max_chars"`
	Headings []string       `yaml:"headings"`
	Entities []EntityConfig `yaml:"entities"`
}

// EntityConfig is a company the report must explicitly monitor.
type EntityConfig struct {
	Name   string `yaml:"name"`
	Ticker string `yaml:"ticker"`
	Sector string `yaml:"sector"`
}

type SummarizerConfig struct {
	Type      string        `yaml:"type"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"` // Override of the provider endpoint, e.g. a proxy
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

type RendererConfig struct {
	Output   string `yaml:"output"`
	FontPath string `yaml:"font_path"`
	Title    string `yaml:"title"`
}

type PublisherConfig struct {
	Type    string        `yaml:"type"`  // Legacy single publisher
	Types   []string      `yaml:"types"` // Multiple publishers
	Email   EmailConfig   `yaml:"email"`
	Web     WebConfig     `yaml:"web"`
	Discord DiscordConfig `yaml:"discord"`
}

type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

type EmailConfig struct {
	SMTPHost      string        `yaml:"smtp_host"`
	SMTPPort      int           `yaml:"smtp_port"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	From          string        `yaml:"from"`
	To            []string      `yaml:"to"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	Timeout       time.Duration `yaml:"timeout"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
}

// GetTypes returns the configured publisher types, preferring the types list
// over the legacy type field.
func (p PublisherConfig) GetTypes() []string {
	if len(p.Types) > 0 {
		return p.Types
	}
	if p.Type != "" {
		return []string{p.Type}
	}
	return []string{}
}

// HasType reports whether the named publisher is enabled.
func (p PublisherConfig) HasType(name string) bool {
	for _, t := range p.GetTypes() {
		if t == name {
			return true
		}
	}
	return false
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// unresolved reports whether a secret is empty or still an ${VAR} reference.
func unresolved(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || envVarRegex.MatchString(s)
}

func setDefaults(cfg *Config) {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 8 * * *"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Sources.Type == "" {
		cfg.Sources.Type = "rss"
	}
	if cfg.Sources.Search.BaseURL == "" {
		cfg.Sources.Search.BaseURL = "https://news.google.com/rss/search"
	}
	if cfg.Sources.Search.Recency == "" {
		cfg.Sources.Search.Recency = "24h"
	}
	if cfg.Sources.Search.Language == "" {
		cfg.Sources.Search.Language = "tr"
	}
	if cfg.Sources.Search.Country == "" {
		cfg.Sources.Search.Country = "TR"
	}
	if cfg.Sources.Window == 0 {
		cfg.Sources.Window = 24 * time.Hour
	}
	if cfg.Sources.Timeout == 0 {
		cfg.Sources.Timeout = 30 * time.Second
	}
	if len(cfg.Classifier.Vocabulary) == 0 {
		cfg.Classifier.Vocabulary = []string{
			"yapay zeka", "artificial intelligence", "llm",
			"robotik", "robotics", "otonom", "autonomous",
			"machine learning", "makine öğrenmesi",
		}
	}
	if cfg.FullText.MaxChars == 0 {
		cfg.FullText.MaxChars = 5000
	}
	if cfg.FullText.Timeout == 0 {
		cfg.FullText.Timeout = 20 * time.Second
	}
	if cfg.Report.Language == "" {
		cfg.Report.Language = "TURKISH"
	}
	if cfg.Report.MaxChars == 0 {
		cfg.Report.MaxChars = 20000
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "gemini"
	}
	if cfg.Summarizer.Model == "" {
		switch cfg.Summarizer.Type {
		case "anthropic":
			cfg.Summarizer.Model = "claude-sonnet-4-20250514"
		default:
			cfg.Summarizer.Model = "gemini-2.5-flash"
		}
	}
	if cfg.Summarizer.MaxTokens == 0 {
		cfg.Summarizer.MaxTokens = 8192
	}
	if cfg.Summarizer.Timeout == 0 {
		cfg.Summarizer.Timeout = 120 * time.Second
	}
	if cfg.Renderer.Output == "" {
		cfg.Renderer.Output = "Gunluk_Analiz.pdf"
	}
	if cfg.Renderer.FontPath == "" {
		cfg.Renderer.FontPath = "DejaVuSans.ttf"
	}
	if len(cfg.Publisher.GetTypes()) == 0 {
		cfg.Publisher.Type = "email"
	}
	if cfg.Publisher.Web.Addr == "" {
		cfg.Publisher.Web.Addr = ":8080"
	}
	if cfg.Publisher.Email.SMTPHost == "" {
		cfg.Publisher.Email.SMTPHost = "smtp.gmail.com"
	}
	if cfg.Publisher.Email.SMTPPort == 0 {
		cfg.Publisher.Email.SMTPPort = 465
	}
	if cfg.Publisher.Email.Username == "" {
		cfg.Publisher.Email.Username = cfg.Publisher.Email.From
	}
	if len(cfg.Publisher.Email.To) == 0 && cfg.Publisher.Email.From != "" {
		cfg.Publisher.Email.To = []string{cfg.Publisher.Email.From}
	}
	if cfg.Publisher.Email.SubjectPrefix == "" {
		cfg.Publisher.Email.SubjectPrefix = "Technical Analysis Report"
	}
	if cfg.Publisher.Email.Timeout == 0 {
		cfg.Publisher.Email.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.Delay == 0 {
		cfg.Retry.Delay = 15 * time.Second
	}
}

func validate(cfg *Config) error {
	if len(cfg.Sources.Feeds) == 0 && len(cfg.Sources.Keywords) == 0 {
		return fmt.Errorf("config: at least one of sources.feeds or sources.keywords is required")
	}
	if cfg.Sources.Type != "rss" {
		return fmt.Errorf("config: unsupported sources type %q (supported: rss)", cfg.Sources.Type)
	}
	if cfg.Sources.Window < 0 {
		return fmt.Errorf("config: sources.window must be positive")
	}
	if cfg.FullText.MaxChars < 0 {
		return fmt.Errorf("config: full_text.max_chars must be positive")
	}
	switch cfg.Summarizer.Type {
	case "gemini", "anthropic":
	default:
		return fmt.Errorf("config: unsupported summarizer type %q (supported: gemini, anthropic)", cfg.Summarizer.Type)
	}
	if unresolved(cfg.Summarizer.APIKey) {
		return fmt.Errorf("%w: summarizer.api_key (set GEMINI_KEY or ANTHROPIC_API_KEY env var)", ErrMissingCredential)
	}
	for _, t := range cfg.Publisher.GetTypes() {
		switch t {
		case "stdout", "email", "web", "discord":
		default:
			return fmt.Errorf("config: unsupported publisher type %q (supported: stdout, email, web, discord)", t)
		}
	}
	if cfg.Publisher.HasType("discord") {
		if cfg.Publisher.Discord.WebhookURL == "" {
			return fmt.Errorf("config: publisher.discord.webhook_url is required for discord publisher")
		}
	}
	if cfg.Publisher.HasType("email") {
		email := cfg.Publisher.Email
		if strings.TrimSpace(email.From) == "" {
			return fmt.Errorf("config: publisher.email.from is required for email publisher")
		}
		if unresolved(email.From) {
			return fmt.Errorf("%w: publisher.email.from (set EMAIL_USER env var)", ErrMissingCredential)
		}
		if unresolved(email.Username) {
			return fmt.Errorf("%w: publisher.email.username", ErrMissingCredential)
		}
		for i, to := range email.To {
			if unresolved(to) {
				return fmt.Errorf("%w: publisher.email.to[%d]", ErrMissingCredential, i)
			}
		}
		if unresolved(cfg.Publisher.Email.Password) {
			return fmt.Errorf("%w: publisher.email.password (set EMAIL_PASS env var)", ErrMissingCredential)
		}
	}
	if cfg.Retry.MaxAttempts < 1 {
		return fmt.Errorf("config: retry.max_attempts must be at least 1")
	}
	return nil
}

// Load reads the config file, expands environment variables, applies defaults,
// and validates the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
