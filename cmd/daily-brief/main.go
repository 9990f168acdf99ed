package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/ryosukesatoh/daily-brief/internal/aggregator"
	"github.com/ryosukesatoh/daily-brief/internal/config"
	"github.com/ryosukesatoh/daily-brief/internal/fetcher"
	"github.com/ryosukesatoh/daily-brief/internal/logging"
	"github.com/ryosukesatoh/daily-brief/internal/publisher"
	"github.com/ryosukesatoh/daily-brief/internal/render"
	"github.com/ryosukesatoh/daily-brief/internal/retry"
	"github.com/ryosukesatoh/daily-brief/internal/runner"
	"github.com/ryosukesatoh/daily-brief/internal/summarizer"
)

const (
	exitOK        = 0
	exitExhausted = 1
	exitConfig    = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// app is the wired pipeline plus the long-lived pieces main has to manage.
type app struct {
	runner *runner.Runner
	web    *publisher.WebPublisher
}

func run(args []string) int {
	fs := flag.NewFlagSet("daily-brief", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	envFile := fs.String("env", ".env", "optional dotenv file loaded before the config")
	once := fs.Bool("once", false, "run the pipeline once and exit")
	if err := fs.Parse(args); err != nil {
		return exitConfig
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load env file", "path", *envFile, "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return exitConfig
	}
	logger := logging.New(cfg.LogLevel)

	a, err := build(cfg, logger)
	if err != nil {
		logger.Error("Failed to build pipeline", "error", err)
		return exitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		logger.Info("Running brief (once mode)")
		if _, err := a.runner.Run(ctx); err != nil {
			logger.Error("Pipeline failed", "error", err)
			return exitExhausted
		}
		logger.Info("Done")
		return exitOK
	}

	return schedule(ctx, cfg, a, logger)
}

func build(cfg *config.Config, logger *slog.Logger) (*app, error) {
	feeds, err := fetcher.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("fetcher %q: %w", cfg.Sources.Type, err)
	}
	sum, err := summarizer.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("summarizer %q: %w", cfg.Summarizer.Type, err)
	}

	collector := aggregator.NewCollector(
		feeds,
		fetcher.NewArticleFetcher(cfg.FullText.Timeout, cfg.FullText.MaxChars),
		aggregator.NewClassifier(cfg.Classifier.Vocabulary),
		cfg.Sources.Window,
		logger,
	)
	requester := summarizer.NewRequester(sum, summarizer.PromptConfigFromConfig(cfg.Report), logger)
	renderer := render.NewPDFRenderer(cfg.Renderer.Output, cfg.Renderer.FontPath, cfg.Renderer.Title, logger)

	a := &app{}
	var pubs []publisher.Publisher
	for _, t := range cfg.Publisher.GetTypes() {
		switch t {
		case "stdout":
			pubs = append(pubs, publisher.NewStdoutPublisher())
		case "email":
			e := cfg.Publisher.Email
			pubs = append(pubs, publisher.NewEmailPublisher(
				e.SMTPHost, e.SMTPPort, e.Username, e.Password, e.From, e.To, e.SubjectPrefix, e.Timeout,
			))
		case "web":
			a.web = publisher.NewWebPublisher(cfg.Publisher.Web.Addr, logger)
			pubs = append(pubs, a.web)
		case "discord":
			pubs = append(pubs, publisher.NewDiscordPublisher(cfg.Publisher.Discord.WebhookURL))
		default:
			return nil, fmt.Errorf("unknown publisher type: %s", t)
		}
	}

	endpoints := fetcher.SourcesFromConfig(cfg.Sources).Endpoints()
	logger.Info("Pipeline configured",
		"endpoints", len(endpoints),
		"summarizer", cfg.Summarizer.Type,
		"model", cfg.Summarizer.Model,
		"publishers", cfg.Publisher.GetTypes(),
	)

	a.runner = runner.New(endpoints, collector, requester, renderer, pubs,
		retry.Policy{MaxAttempts: cfg.Retry.MaxAttempts, Delay: cfg.Retry.Delay}, logger)
	return a, nil
}

// schedule runs the pipeline on the cron schedule until ctx is cancelled.
func schedule(ctx context.Context, cfg *config.Config, a *app, logger *slog.Logger) int {
	if a.web != nil {
		if err := a.web.Start(); err != nil {
			logger.Error("Failed to start web publisher", "error", err)
			return exitConfig
		}
	}

	sched, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		logger.Error("Invalid cron schedule", "schedule", cfg.Schedule, "error", err)
		return exitConfig
	}

	// The scheduled and the start-up run share one wrapped job so they never
	// overlap.
	cl := cronLogger{logger: logger}
	job := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(func() {
		if _, err := a.runner.Run(ctx); err != nil {
			logger.Error("Scheduled run failed", "error", err)
		}
	}))

	c := cron.New(cron.WithLogger(cl))
	c.Schedule(sched, job)
	c.Start()
	logger.Info("Scheduled brief", "schedule", cfg.Schedule)

	if cfg.RunOnStart {
		logger.Info("Running initial brief")
		go job.Run()
	}

	<-ctx.Done()
	logger.Info("Shutting down")

	<-c.Stop().Done()

	if a.web != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.web.Shutdown(shutdownCtx); err != nil {
			logger.Error("Web server shutdown error", "error", err)
		}
	}

	logger.Info("Shutdown complete")
	return exitOK
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
