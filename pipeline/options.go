package pipeline

import (
	"log/slog"

	"github.com/foduucom/themeconv/dedup"
	"github.com/foduucom/themeconv/retry"
	"github.com/foduucom/themeconv/storage"
	"golang.org/x/time/rate"
)

const (
	// DefaultBatchSize is the number of fragments sent per service call.
	DefaultBatchSize = 5
)

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithBatchSize sets how many fragments go into one service call.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return ErrInvalidBatchSize
		}
		p.batchSize = n
		return nil
	}
}

// WithRetryPolicy sets the round budget and backoff between failed calls.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(p *Pipeline) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		p.policy = policy
		return nil
	}
}

// WithMaxRetries sets the round budget, keeping the configured backoff.
func WithMaxRetries(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return retry.ErrInvalidMaxAttempts
		}
		p.policy.MaxAttempts = n
		return nil
	}
}

// WithThreshold sets the similarity threshold for near-duplicate cache hits.
func WithThreshold(threshold float64) Option {
	return func(p *Pipeline) error {
		p.matcherOpts = append(p.matcherOpts, dedup.WithThreshold(threshold))
		return nil
	}
}

// WithRateLimiter makes every service call wait on limiter first.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(p *Pipeline) error {
		p.limiter = limiter
		return nil
	}
}

// WithSequential sends fragments one at a time instead of in batches.
func WithSequential(sequential bool) Option {
	return func(p *Pipeline) error {
		p.sequential = sequential
		return nil
	}
}

// WithDiagnostics sets where raw malformed output is captured.
func WithDiagnostics(sink storage.DiagnosticSink) Option {
	return func(p *Pipeline) error {
		p.diagnostics = sink
		return nil
	}
}

// WithPrompt sets the system prompt sent with every fragment.
func WithPrompt(prompt string) Option {
	return func(p *Pipeline) error {
		p.prompt = prompt
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		p.logger = logger
		return nil
	}
}
