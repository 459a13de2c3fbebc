package dedup

import (
	"context"
	"errors"
	"log/slog"

	"github.com/foduucom/themeconv/core"
	"github.com/foduucom/themeconv/storage"
)

// DefaultThreshold is the minimum Score treated as a near-duplicate.
const DefaultThreshold = 95.0

// Match is the outcome of a lookup. Skeleton and Fingerprint are always set
// so callers need not normalize the fragment a second time.
type Match struct {
	Hit         bool
	Record      *core.CacheRecord
	Score       float64
	Skeleton    core.Skeleton
	Fingerprint core.Fingerprint
}

// Matcher looks fragments up in a fingerprint store.
type Matcher struct {
	store     storage.FingerprintStore
	threshold float64
	logger    *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithThreshold sets the minimum similarity score for a near-duplicate hit.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) error {
		if threshold < 0 || threshold > 100 {
			return ErrInvalidThreshold
		}
		m.threshold = threshold
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) error {
		m.logger = logger
		return nil
	}
}

// NewMatcher creates a Matcher over store.
func NewMatcher(store storage.FingerprintStore, opts ...Option) (*Matcher, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	m := &Matcher{
		store:     store,
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	m.logger = m.logger.With("component", "matcher")
	return m, nil
}

// Threshold returns the configured similarity threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Lookup normalizes fragment and searches the store for it.
func (m *Matcher) Lookup(ctx context.Context, fragment string) (Match, error) {
	skeleton, err := Normalize(fragment)
	if err != nil {
		return Match{}, err
	}
	return m.LookupSkeleton(ctx, skeleton)
}

// LookupSkeleton searches the store for an already-normalized skeleton.
//
// An exact fingerprint match wins outright with score 100. Otherwise the
// first record in store order whose skeleton scores at or above the
// threshold is returned.
func (m *Matcher) LookupSkeleton(ctx context.Context, skeleton core.Skeleton) (Match, error) {
	fp := core.FingerprintOf(skeleton)
	match := Match{Skeleton: skeleton, Fingerprint: fp}

	if idx, ok := m.store.(storage.FingerprintIndex); ok {
		rec, err := idx.Get(ctx, fp)
		switch {
		case err == nil:
			match.Hit, match.Record, match.Score = true, rec, 100
			return match, nil
		case !errors.Is(err, storage.ErrNotFound):
			return match, err
		}
	}

	records, err := m.store.Records(ctx)
	if err != nil {
		return match, err
	}

	for _, rec := range records {
		if rec.Fingerprint == fp {
			match.Hit, match.Record, match.Score = true, rec, 100
			return match, nil
		}
	}

	s := string(skeleton)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return match, err
		}
		if scoreUpperBound(len(s), len(rec.Skeleton)) < m.threshold {
			continue
		}
		if score := Score(s, string(rec.Skeleton)); score >= m.threshold {
			m.logger.Debug("near-duplicate found", "record", rec.Name, "score", score)
			match.Hit, match.Record, match.Score = true, rec, score
			return match, nil
		}
	}
	return match, nil
}
