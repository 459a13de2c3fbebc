package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/foduucom/themeconv/core"
	"github.com/foduucom/themeconv/storage"
)

// OutputFile is the storage.OutputStore of one document: a JSON array of
// results rewritten after every append.
type OutputFile struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	results []core.Shortcode
	names   map[string]struct{}
}

var _ storage.OutputStore = (*OutputFile)(nil)

// OpenOutputFile loads an existing output file or starts an empty one.
// The file itself is not written until the first Append.
// A file that exists but cannot be parsed returns ErrCorruptOutput.
func OpenOutputFile(path string, opts ...StoreOption) (*OutputFile, error) {
	o, err := applyStoreOptions("output_file", opts)
	if err != nil {
		return nil, err
	}
	f := &OutputFile{
		path:   path,
		logger: o.logger.With("path", path),
		names:  make(map[string]struct{}),
	}

	err = readJSON(path, &f.results)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, errEmptyFile):
		f.results = nil
	case isSyntaxError(err):
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptOutput, path, err)
	default:
		return nil, err
	}
	for _, r := range f.results {
		f.names[r.Name] = struct{}{}
	}
	if len(f.results) > 0 {
		f.logger.Info("resuming from existing output", "completed", len(f.results))
	}
	return f, nil
}

// Path returns the file location.
func (f *OutputFile) Path() string {
	return f.path
}

// CompletedKeys returns the names of all results already written.
func (f *OutputFile) CompletedKeys(ctx context.Context) (map[string]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make(map[string]struct{}, len(f.names))
	for k := range f.names {
		keys[k] = struct{}{}
	}
	return keys, nil
}

// Append adds result and rewrites the file.
// A result whose name is already present returns storage.ErrDuplicateKey.
func (f *OutputFile) Append(ctx context.Context, result core.Shortcode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.names[result.Name]; ok {
		return storage.ErrDuplicateKey
	}
	next := append(f.results[:len(f.results):len(f.results)], result)
	if err := writeJSONAtomic(f.path, next); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	f.results = next
	f.names[result.Name] = struct{}{}
	return nil
}

// Results returns all results in write order.
func (f *OutputFile) Results(ctx context.Context) ([]core.Shortcode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Shortcode, len(f.results))
	copy(out, f.results)
	return out, nil
}
