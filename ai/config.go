// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for transformation service providers.
type Config struct {
	// Host is the base URL of an OpenAI-compatible chat API.
	// Example: "http://localhost:11434/v1" for a local server
	Host string

	// Model is the chat model identifier.
	// Example: "gpt-4o-mini", "qwen2.5:7b"
	Model string

	// Token is the API key. Local servers accept any value.
	Token string

	// Temperature controls sampling randomness. Default: 0.4
	Temperature float64

	// TopP is the nucleus sampling cutoff. Default: 0.95
	TopP float64

	// MaxTokens bounds the completion length. Default: 31384
	MaxTokens int

	// BatchConcurrency bounds the concurrent requests issued for one batch.
	// Default: 5
	BatchConcurrency int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithToken sets the API key.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// WithTopP sets the nucleus sampling cutoff.
func WithTopP(topP float64) ConfigOption {
	return func(c *Config) {
		c.TopP = topP
	}
}

// WithMaxTokens sets the completion length limit.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithBatchConcurrency sets how many requests of one batch run at once.
func WithBatchConcurrency(n int) ConfigOption {
	return func(c *Config) {
		c.BatchConcurrency = n
	}
}

// DefaultConfig returns a Config with defaults for a local OpenAI-compatible service.
func DefaultConfig() *Config {
	return &Config{
		Host:             "http://localhost:11434/v1",
		Model:            "qwen2.5:7b",
		Token:            "none",
		Temperature:      0.4,
		TopP:             0.95,
		MaxTokens:        31384,
		BatchConcurrency: 5,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("https://api.openai.com/v1"),
//	    WithModel("gpt-4o-mini"),
//	    WithToken(os.Getenv("OPENAI_API_KEY")),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
	if c.Token == "" {
		// Use "none" as token for local services that don't require authentication
		c.Token = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.TopP < 0 || c.TopP > 1 {
		return errors.New("ai config: TopP must be between 0 and 1")
	}
	if c.MaxTokens < 0 {
		return errors.New("ai config: MaxTokens must not be negative")
	}
	if c.BatchConcurrency < 1 {
		return errors.New("ai config: BatchConcurrency must be at least 1")
	}
	return nil
}
