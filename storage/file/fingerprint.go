package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/foduucom/themeconv/core"
	"github.com/foduucom/themeconv/storage"
)

// recordJSON is the on-disk form of a cache record.
// Older stores wrote the result under "shortcode"; it is still accepted.
type recordJSON struct {
	Name      string          `json:"name"`
	Hash      string          `json:"hash"`
	Skeleton  string          `json:"skeleton"`
	Result    *core.Shortcode `json:"result,omitempty"`
	Shortcode *core.Shortcode `json:"shortcode,omitempty"`
}

func toRecordJSON(r *core.CacheRecord) recordJSON {
	result := r.Result
	return recordJSON{
		Name:     r.Name,
		Hash:     string(r.Fingerprint),
		Skeleton: string(r.Skeleton),
		Result:   &result,
	}
}

func (rj recordJSON) toRecord() *core.CacheRecord {
	rec := &core.CacheRecord{
		Name:        rj.Name,
		Fingerprint: core.Fingerprint(rj.Hash),
		Skeleton:    core.Skeleton(rj.Skeleton),
	}
	switch {
	case rj.Result != nil:
		rec.Result = *rj.Result
	case rj.Shortcode != nil:
		rec.Result = *rj.Shortcode
	}
	return rec
}

// FingerprintStore is a storage.FingerprintStore kept in a single JSON array.
//
// The file is loaded once at open. Appends hold the store mutex across the
// whole read-modify-write and rewrite the file atomically.
type FingerprintStore struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	records []*core.CacheRecord
	index   map[core.Fingerprint]int
}

var (
	_ storage.FingerprintStore = (*FingerprintStore)(nil)
	_ storage.FingerprintIndex = (*FingerprintStore)(nil)
)

// StoreOption configures a file-backed store.
type StoreOption func(*storeOptions) error

type storeOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for warnings about corrupt files.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(o *storeOptions) error {
		o.logger = logger
		return nil
	}
}

func applyStoreOptions(component string, opts []StoreOption) (*storeOptions, error) {
	o := &storeOptions{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	o.logger = o.logger.With("component", component)
	return o, nil
}

// OpenFingerprintStore loads the store at path.
// A missing file is created empty. An empty or unparseable file is logged
// and reset to empty.
func OpenFingerprintStore(path string, opts ...StoreOption) (*FingerprintStore, error) {
	o, err := applyStoreOptions("fingerprint_store", opts)
	if err != nil {
		return nil, err
	}
	s := &FingerprintStore{
		path:   path,
		logger: o.logger.With("path", path),
		index:  make(map[core.Fingerprint]int),
	}

	var raw []recordJSON
	err = readJSON(path, &raw)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Debug("fingerprint store not found, creating")
		raw = nil
		if err := writeJSONAtomic(path, []recordJSON{}); err != nil {
			return nil, err
		}
	case errors.Is(err, errEmptyFile), isSyntaxError(err):
		s.logger.Warn("fingerprint store unreadable, resetting", "error", err)
		raw = nil
		if err := writeJSONAtomic(path, []recordJSON{}); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	for _, rj := range raw {
		rec := rj.toRecord()
		if _, dup := s.index[rec.Fingerprint]; dup {
			continue
		}
		s.index[rec.Fingerprint] = len(s.records)
		s.records = append(s.records, rec)
	}
	s.logger.Debug("fingerprint store loaded", "records", len(s.records))
	return s, nil
}

// Records returns a snapshot of all records in insertion order.
func (s *FingerprintStore) Records(ctx context.Context) ([]*core.CacheRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.CacheRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Get returns the record with fingerprint fp.
func (s *FingerprintStore) Get(ctx context.Context, fp core.Fingerprint) (*core.CacheRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[fp]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.records[i], nil
}

// Append adds record and rewrites the store file.
func (s *FingerprintStore) Append(ctx context.Context, record *core.CacheRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateFingerprint(record.Fingerprint); err != nil {
		return errors.Join(storage.ErrInvalidRecord, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.index[record.Fingerprint]; dup {
		return storage.ErrDuplicateKey
	}
	if record.InsertedAt.IsZero() {
		record.InsertedAt = time.Now().UTC()
	}

	raw := make([]recordJSON, 0, len(s.records)+1)
	for _, r := range s.records {
		raw = append(raw, toRecordJSON(r))
	}
	raw = append(raw, toRecordJSON(record))
	if err := writeJSONAtomic(s.path, raw); err != nil {
		return fmt.Errorf("writing fingerprint store: %w", err)
	}

	s.index[record.Fingerprint] = len(s.records)
	s.records = append(s.records, record)
	return nil
}

// Close is a no-op; every append is already durable.
func (s *FingerprintStore) Close() error {
	return nil
}

func isSyntaxError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
