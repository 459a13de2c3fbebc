package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"sync"

	"github.com/foduucom/themeconv/core"
	"github.com/foduucom/themeconv/storage"
)

// UsageLedger is a storage.UsageLedger kept in one JSON object keyed by call site.
//
// Every Record re-reads the file under the ledger mutex, sets the key, and
// replaces the file atomically, so the file is always either the old or the
// new complete mapping.
type UsageLedger struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

var _ storage.UsageLedger = (*UsageLedger)(nil)

// NewUsageLedger returns a ledger backed by path. The file is created on the
// first Record.
func NewUsageLedger(path string, opts ...StoreOption) (*UsageLedger, error) {
	o, err := applyStoreOptions("usage_ledger", opts)
	if err != nil {
		return nil, err
	}
	return &UsageLedger{
		path:   path,
		logger: o.logger.With("path", path),
	}, nil
}

// Record stores usage under key, replacing any earlier entry.
func (l *UsageLedger) Record(ctx context.Context, key string, usage core.Usage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return err
	}
	entries[key] = usage
	if err := writeJSONAtomic(l.path, entries); err != nil {
		return fmt.Errorf("writing usage ledger: %w", err)
	}
	l.logger.Debug("usage recorded", "key", key, "total_tokens", usage.TotalTokens)
	return nil
}

// Entries returns a copy of every recorded entry.
func (l *UsageLedger) Entries(ctx context.Context) (map[string]core.Usage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entries, err := l.load()
	if err != nil {
		return nil, err
	}
	return maps.Clone(entries), nil
}

// Summarize totals and prices every entry. A missing ledger yields a zero
// summary.
func (l *UsageLedger) Summarize(ctx context.Context, pricing core.Pricing) (core.UsageSummary, error) {
	entries, err := l.Entries(ctx)
	if err != nil {
		return core.UsageSummary{}, err
	}
	if len(entries) == 0 {
		l.logger.Warn("usage ledger is empty or missing")
	}
	return core.Summarize(entries, pricing), nil
}

// load reads the ledger. Caller must hold l.mu.
func (l *UsageLedger) load() (map[string]core.Usage, error) {
	entries := make(map[string]core.Usage)
	err := readJSON(l.path, &entries)
	switch {
	case err == nil:
		if entries == nil {
			entries = make(map[string]core.Usage)
		}
		return entries, nil
	case errors.Is(err, fs.ErrNotExist):
		return make(map[string]core.Usage), nil
	case errors.Is(err, errEmptyFile), isSyntaxError(err):
		l.logger.Warn("usage ledger unreadable, resetting", "error", err)
		return make(map[string]core.Usage), nil
	default:
		return nil, err
	}
}
