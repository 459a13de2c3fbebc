package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/foduucom/themeconv"
	"github.com/foduucom/themeconv/ai/openai"
	"github.com/foduucom/themeconv/config"
	"github.com/foduucom/themeconv/metrics"
	"github.com/foduucom/themeconv/orchestrator"
	"github.com/foduucom/themeconv/pipeline"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"
)

func workspaceFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "workspace",
		Aliases: []string{"w"},
		Usage:   "Directory holding the fingerprint store, usage ledger and diagnostics",
		EnvVars: []string{"THEMECONV_WORKSPACE"},
	}
}

func backendFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "backend",
		Usage:   "Fingerprint store backend (file, badger)",
		EnvVars: []string{"THEMECONV_BACKEND"},
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:   "convert",
		Usage:  "Convert every page under the input directory",
		Action: convertAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Directory of extracted pages, each with a shortcodes.json",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory receiving one shortcodes.json per page",
				EnvVars: []string{"THEMECONV_OUTPUT_DIR", "GENERATE_FOLDER"},
			},
			workspaceFlag(),
			backendFlag(),
			&cli.StringFlag{
				Name:    "host",
				Usage:   "OpenAI-compatible service URL",
				EnvVars: []string{"THEMECONV_HOST", "OPENAI_BASE_URL"},
			},
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "Model name",
				EnvVars: []string{"THEMECONV_MODEL", "OPENAI_MODEL"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "API key",
				EnvVars: []string{"THEMECONV_TOKEN", "OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:      "prompt",
				Aliases:   []string{"p"},
				Usage:     "System prompt file; the built-in prompt is used when empty",
				TakesFile: true,
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Fragments per service call",
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Rounds per batch before fragments are given up",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Pages converted at once",
			},
			&cli.Float64Flag{
				Name:  "threshold",
				Usage: "Similarity score (0-100) at which a cached fragment is reused",
			},
			&cli.BoolFlag{
				Name:  "sequential",
				Usage: "Send one fragment per call instead of batches",
			},
			&cli.Float64Flag{
				Name:  "rps",
				Usage: "Maximum service calls per second across all pages; 0 is unlimited",
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "Serve Prometheus metrics on this address while converting",
				EnvVars: []string{"THEMECONV_METRICS_ADDR"},
			},
		},
	}
}

// applyFlags overrides configuration values with flags set on the command line.
func applyFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("output") {
		cfg.Storage.OutputDir = c.String("output")
	}
	if c.IsSet("workspace") {
		cfg.Storage.Workspace = c.String("workspace")
	}
	if c.IsSet("backend") {
		cfg.Storage.Backend = c.String("backend")
	}
	if c.IsSet("host") {
		cfg.Service.Host = c.String("host")
	}
	if c.IsSet("model") {
		cfg.Service.Model = c.String("model")
	}
	if c.IsSet("token") {
		cfg.Service.Token = c.String("token")
	}
	if c.IsSet("prompt") {
		cfg.Pipeline.PromptFile = c.String("prompt")
	}
	if c.IsSet("batch-size") {
		cfg.Pipeline.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("max-retries") {
		cfg.Pipeline.MaxRetries = c.Int("max-retries")
	}
	if c.IsSet("workers") {
		cfg.Orchestrator.Workers = c.Int("workers")
	}
	if c.IsSet("threshold") {
		cfg.Pipeline.Threshold = c.Float64("threshold")
	}
	if c.IsSet("sequential") {
		cfg.Pipeline.Sequential = c.Bool("sequential")
	}
	if c.IsSet("rps") {
		cfg.Pipeline.RequestsPerSecond = c.Float64("rps")
	}
	if c.IsSet("metrics-addr") {
		cfg.Metrics.Addr = c.String("metrics-addr")
	}
	return cfg.Validate()
}

func loadPrompt(path string) (string, error) {
	if path == "" {
		return openai.DefaultPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	return string(data), nil
}

func pipelineOptions(cfg config.Config, prompt string) []pipeline.Option {
	opts := []pipeline.Option{
		pipeline.WithBatchSize(cfg.Pipeline.BatchSize),
		pipeline.WithRetryPolicy(cfg.RetryPolicy()),
		pipeline.WithThreshold(cfg.Pipeline.Threshold),
		pipeline.WithSequential(cfg.Pipeline.Sequential),
		pipeline.WithPrompt(prompt),
	}
	if rps := cfg.Pipeline.RequestsPerSecond; rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, pipeline.WithRateLimiter(rate.NewLimiter(rate.Limit(rps), burst)))
	}
	return opts
}

func convertAction(c *cli.Context) error {
	cfg := configFrom(c)
	if err := applyFlags(c, &cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prompt, err := loadPrompt(cfg.Pipeline.PromptFile)
	if err != nil {
		return err
	}

	docs, err := themeconv.LoadDocuments(c.String("input"), cfg.Storage.OutputDir)
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	ws, err := themeconv.OpenWorkspace(cfg.Storage.Workspace,
		themeconv.WithAIConfig(cfg.AIConfig()),
		themeconv.WithBackend(themeconv.Backend(cfg.Storage.Backend)))
	if err != nil {
		return err
	}
	defer ws.Close()

	p, err := ws.NewPipeline(pipelineOptions(cfg, prompt)...)
	if err != nil {
		return err
	}
	o, err := ws.NewOrchestrator(p,
		orchestrator.WithWorkers(cfg.Orchestrator.Workers),
		orchestrator.WithProgress(os.Stderr))
	if err != nil {
		return err
	}
	defer o.Release()

	summary, runErr := o.RunAll(ctx, docs)
	printRun(c.App.Writer, summary)

	usage, err := ws.Summarize(context.Background(), cfg.CorePricing())
	if err != nil {
		slog.Warn("failed to summarize usage", "err", err)
	} else {
		printUsage(c.App.Writer, usage)
	}

	if runErr != nil {
		var aggErr *pipeline.AggregateError
		if errors.As(runErr, &aggErr) {
			color.New(color.FgRed).Fprintf(os.Stderr, "%d page(s) had unresolved sections; rerun to retry them\n", len(summary.Failed()))
		}
		return runErr
	}
	return nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "err", err)
		}
	}()
	return srv
}
