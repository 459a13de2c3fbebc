// Package config loads CLI configuration through Viper from an optional
// file and THEMECONV_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foduucom/themeconv/ai"
	"github.com/foduucom/themeconv/core"
	"github.com/foduucom/themeconv/dedup"
	"github.com/foduucom/themeconv/retry"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. THEMECONV_SERVICE_MODEL.
const EnvPrefix = "THEMECONV"

// Storage backends.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Config captures every knob of a conversion run.
type Config struct {
	Service      ServiceConfig      `mapstructure:"service"`
	Pipeline     PipelineConfig     `mapstructure:"pipeline"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Pricing      PricingConfig      `mapstructure:"pricing"`
}

// ServiceConfig describes the transformation service endpoint.
type ServiceConfig struct {
	Host             string  `mapstructure:"host"`
	Model            string  `mapstructure:"model"`
	Token            string  `mapstructure:"token"`
	Temperature      float64 `mapstructure:"temperature"`
	TopP             float64 `mapstructure:"top_p"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	BatchConcurrency int     `mapstructure:"batch_concurrency"`
}

// PipelineConfig controls batching, retries and deduplication.
type PipelineConfig struct {
	BatchSize         int           `mapstructure:"batch_size"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBase         time.Duration `mapstructure:"retry_base"`
	RetryStep         time.Duration `mapstructure:"retry_step"`
	Threshold         float64       `mapstructure:"threshold"`
	Sequential        bool          `mapstructure:"sequential"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	PromptFile        string        `mapstructure:"prompt_file"`
}

// OrchestratorConfig bounds document concurrency.
type OrchestratorConfig struct {
	Workers int `mapstructure:"workers"`
}

// StorageConfig locates the shared stores.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	Workspace string `mapstructure:"workspace"`
	OutputDir string `mapstructure:"output_dir"`
}

// LoggingConfig sets the log level and the directory of dated log files.
// An empty Dir disables file logging.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

// MetricsConfig sets the Prometheus listen address. Empty disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// PricingConfig prices token usage in the summary.
type PricingConfig struct {
	InputPerMillion  float64 `mapstructure:"input_per_million"`
	OutputPerMillion float64 `mapstructure:"output_per_million"`
	CurrencyFactor   float64 `mapstructure:"currency_factor"`
}

// Load builds a Config from defaults, the file at path (if any) and the
// environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	svc := ai.DefaultConfig()
	v.SetDefault("service.host", svc.Host)
	v.SetDefault("service.model", svc.Model)
	v.SetDefault("service.token", svc.Token)
	v.SetDefault("service.temperature", svc.Temperature)
	v.SetDefault("service.top_p", svc.TopP)
	v.SetDefault("service.max_tokens", svc.MaxTokens)
	v.SetDefault("service.batch_concurrency", svc.BatchConcurrency)

	policy := retry.DefaultPolicy()
	v.SetDefault("pipeline.batch_size", 5)
	v.SetDefault("pipeline.max_retries", policy.MaxAttempts)
	v.SetDefault("pipeline.retry_base", policy.Base)
	v.SetDefault("pipeline.retry_step", 2*time.Second)
	v.SetDefault("pipeline.threshold", dedup.DefaultThreshold)
	v.SetDefault("pipeline.sequential", false)
	v.SetDefault("pipeline.requests_per_second", 0.0)
	v.SetDefault("pipeline.prompt_file", "")

	v.SetDefault("orchestrator.workers", 4)

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.workspace", "temp")
	v.SetDefault("storage.output_dir", "temp/GenerateShortCode")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dir", "logs")

	v.SetDefault("metrics.addr", "")

	pricing := core.DefaultPricing()
	v.SetDefault("pricing.input_per_million", pricing.InputPerMillion)
	v.SetDefault("pricing.output_per_million", pricing.OutputPerMillion)
	v.SetDefault("pricing.currency_factor", pricing.CurrencyFactor)
}

// Validate enforces required values and sane limits.
func (c Config) Validate() error {
	var errs []error
	if c.Pipeline.BatchSize < 1 {
		errs = append(errs, errors.New("pipeline.batch_size must be > 0"))
	}
	if c.Pipeline.MaxRetries < 1 {
		errs = append(errs, errors.New("pipeline.max_retries must be > 0"))
	}
	if c.Pipeline.RetryBase < 0 || c.Pipeline.RetryStep < 0 {
		errs = append(errs, errors.New("pipeline retry delays must not be negative"))
	}
	if c.Pipeline.Threshold < 0 || c.Pipeline.Threshold > 100 {
		errs = append(errs, errors.New("pipeline.threshold must be between 0 and 100"))
	}
	if c.Pipeline.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("pipeline.requests_per_second must not be negative"))
	}
	if c.Orchestrator.Workers < 1 {
		errs = append(errs, errors.New("orchestrator.workers must be > 0"))
	}
	switch c.Storage.Backend {
	case BackendFile, BackendBadger:
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be %q or %q, got %q", BackendFile, BackendBadger, c.Storage.Backend))
	}
	if c.Storage.Workspace == "" {
		errs = append(errs, errors.New("storage.workspace is required"))
	}
	return errors.Join(errs...)
}

// AIConfig converts the service section into an ai.Config.
func (c Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.Service.Host),
		ai.WithModel(c.Service.Model),
		ai.WithToken(c.Service.Token),
		ai.WithTemperature(c.Service.Temperature),
		ai.WithTopP(c.Service.TopP),
		ai.WithMaxTokens(c.Service.MaxTokens),
		ai.WithBatchConcurrency(c.Service.BatchConcurrency),
	)
}

// RetryPolicy returns the round budget and linear backoff of the pipeline.
func (c Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Pipeline.MaxRetries,
		Base:        c.Pipeline.RetryBase,
		Growth:      retry.Linear(c.Pipeline.RetryStep),
	}
}

// CorePricing converts the pricing section.
func (c Config) CorePricing() core.Pricing {
	return core.Pricing{
		InputPerMillion:  c.Pricing.InputPerMillion,
		OutputPerMillion: c.Pricing.OutputPerMillion,
		CurrencyFactor:   c.Pricing.CurrencyFactor,
	}
}
