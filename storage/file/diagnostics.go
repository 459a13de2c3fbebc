package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/foduucom/themeconv/storage"
)

// DiagnosticDir writes one text file per failed attempt:
// <dir>/<key>_attempt_<n>.txt.
type DiagnosticDir struct {
	dir string
}

var _ storage.DiagnosticSink = (*DiagnosticDir)(nil)

// NewDiagnosticDir returns a sink rooted at dir. The directory is created on
// first use.
func NewDiagnosticDir(dir string) *DiagnosticDir {
	return &DiagnosticDir{dir: dir}
}

// Capture writes raw for the given key and attempt number.
func (d *DiagnosticDir) Capture(ctx context.Context, key string, attempt int, raw string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(d.Path(key, attempt), []byte(raw), 0o644)
}

// Path returns the artifact location for key and attempt.
func (d *DiagnosticDir) Path(key string, attempt int) string {
	return filepath.Join(d.dir, fmt.Sprintf("%s_attempt_%d.txt", sanitizeKey(key), attempt))
}

var keyReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_")

func sanitizeKey(key string) string {
	return keyReplacer.Replace(key)
}
