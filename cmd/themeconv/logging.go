package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/foduucom/themeconv/config"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

var logFile *os.File

// setup loads the configuration and installs the default logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-dir") {
		cfg.Logging.Dir = c.String("log-dir")
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[configKey] = cfg

	return setupLogger(cfg.Logging, time.Now())
}

func teardown(c *cli.Context) error {
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
	}
}

// setupLogger writes to stderr and, when a log directory is set, appends to
// <dir>/YYYY-MM-DD.log as well.
func setupLogger(cfg config.LoggingConfig, now time.Time) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stderr
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		path := filepath.Join(cfg.Dir, now.Format("2006-01-02")+".log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		w = io.MultiWriter(os.Stderr, f)
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

func configFrom(c *cli.Context) config.Config {
	if cfg, ok := c.App.Metadata[configKey].(config.Config); ok {
		return cfg
	}
	return config.Default()
}
