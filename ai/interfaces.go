package ai

import (
	"context"

	"github.com/foduucom/themeconv/core"
)

// Transformer converts fragments into shortcodes through an external service.
// Implementations must be thread-safe for concurrent use.
type Transformer interface {
	// Transform converts a single fragment.
	// A malformed result is reported as an error wrapping ErrMalformedOutput.
	// Usage is returned even when the call fails after reaching the service.
	Transform(ctx context.Context, prompt string, fragment core.Fragment) (core.Shortcode, core.Usage, error)

	// TransformBatch converts several fragments in one logical call.
	// A non-nil error is a call-level failure and the item results must be
	// ignored. Otherwise the result slice has one entry per fragment, in
	// input order; malformed items carry Err and the raw output.
	// Usage is the sum over every request made for the batch.
	TransformBatch(ctx context.Context, prompt string, fragments []core.Fragment) ([]ItemResult, core.Usage, error)
}

// ItemResult is the outcome of one fragment within a batch.
type ItemResult struct {
	Result core.Shortcode

	// Raw is the unparsed service output, kept for diagnostics.
	Raw string

	// Err is set when the output was empty or malformed.
	Err error
}

// OK reports whether the item produced a usable result.
func (r ItemResult) OK() bool {
	return r.Err == nil
}

// Provider manages transformation services that share one configuration.
type Provider interface {
	// Transformer returns the transformation service.
	// The returned Transformer is safe for concurrent use.
	Transformer() Transformer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
