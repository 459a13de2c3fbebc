package storage

import (
	"context"

	"github.com/foduucom/themeconv/core"
)

// FingerprintStore is the durable registry of previously transformed fragments.
// Implementations must be thread-safe and support concurrent access.
type FingerprintStore interface {
	// Records returns every cache record in insertion order.
	// The returned slice is a snapshot; callers may not mutate the records.
	Records(ctx context.Context) ([]*core.CacheRecord, error)

	// Append adds one record and persists it.
	// Sets InsertedAt if not already set.
	// Returns ErrDuplicateKey if a record with the same fingerprint exists.
	Append(ctx context.Context, record *core.CacheRecord) error

	// Close releases resources held by the store.
	Close() error
}

// UsageLedger accumulates token usage per call site.
// Recording the same key twice overwrites the earlier entry.
type UsageLedger interface {
	// Record stores usage for key. Safe for concurrent use.
	Record(ctx context.Context, key string, usage core.Usage) error

	// Entries returns a copy of all recorded entries.
	// A missing ledger yields an empty map, not an error.
	Entries(ctx context.Context) (map[string]core.Usage, error)
}

// OutputStore holds the completed results of one document.
// Its contents are the resumption checkpoint for that document.
type OutputStore interface {
	// CompletedKeys returns the names of all results already written.
	CompletedKeys(ctx context.Context) (map[string]struct{}, error)

	// Append adds a result and persists the whole output.
	Append(ctx context.Context, result core.Shortcode) error

	// Results returns all results in write order.
	Results(ctx context.Context) ([]core.Shortcode, error)
}

// DiagnosticSink captures raw output of failed attempts.
// Capture is best-effort; callers log errors and carry on.
type DiagnosticSink interface {
	Capture(ctx context.Context, key string, attempt int, raw string) error
}

// FingerprintIndex is implemented by stores that can resolve a fingerprint
// without scanning every record.
type FingerprintIndex interface {
	// Get returns the record with fingerprint fp, or ErrNotFound.
	Get(ctx context.Context, fp core.Fingerprint) (*core.CacheRecord, error)
}
