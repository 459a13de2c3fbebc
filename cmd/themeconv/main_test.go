package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/foduucom/themeconv"
	"github.com/foduucom/themeconv/config"
	"github.com/foduucom/themeconv/core"
	"github.com/foduucom/themeconv/dedup"
	"github.com/foduucom/themeconv/storage/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runApp runs the CLI with file logging disabled and returns its output.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"themeconv", "--log-dir", ""}, args...))
	return out.String(), err
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLogger_DatedFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	dir := filepath.Join(t.TempDir(), "logs")
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, setupLogger(config.LoggingConfig{Level: "info", Dir: dir}, now))
	defer teardown(nil)

	slog.Info("hello from test")

	data, err := os.ReadFile(filepath.Join(dir, "2025-03-14.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := runApp(t, "--log-level", "loud", "summary", "--workspace", t.TempDir())
	assert.Error(t, err)
}

func TestLookupCommand(t *testing.T) {
	ws := t.TempDir()
	store, err := file.OpenFingerprintStore(filepath.Join(ws, themeconv.FingerprintFile))
	require.NoError(t, err)
	skeleton, fp, err := dedup.Fingerprint(`<section class="hero"><h1>Hello</h1></section>`)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), &core.CacheRecord{
		Name: "hero", Fingerprint: fp, Skeleton: skeleton,
		Result: core.Shortcode{Name: "hero", Template: "{{title}}"},
	}))

	page := filepath.Join(t.TempDir(), "fragment.html")

	t.Run("hit", func(t *testing.T) {
		require.NoError(t, os.WriteFile(page, []byte(`<section class="hero"><h1>Other</h1></section>`), 0o644))
		out, err := runApp(t, "lookup", "--workspace", ws, page)
		require.NoError(t, err)
		assert.Contains(t, out, "hit")
		assert.Contains(t, out, "hero")
		assert.Contains(t, out, string(fp))
	})

	t.Run("miss", func(t *testing.T) {
		require.NoError(t, os.WriteFile(page, []byte(`<footer><nav><a>x</a></nav></footer>`), 0o644))
		out, err := runApp(t, "lookup", "--workspace", ws, page)
		require.NoError(t, err)
		assert.Contains(t, out, "miss")
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := runApp(t, "lookup", "--workspace", ws)
		assert.Error(t, err)
	})
}

func TestSummaryCommand(t *testing.T) {
	ws := t.TempDir()
	ledger, err := file.NewUsageLedger(filepath.Join(ws, themeconv.LedgerFile))
	require.NoError(t, err)
	require.NoError(t, ledger.Record(context.Background(), "index_batch_1",
		core.Usage{InputTokens: 1000, OutputTokens: 200, TotalTokens: 1200}))

	out, err := runApp(t, "summary", "--workspace", ws, "--entries")
	require.NoError(t, err)
	assert.Contains(t, out, "index_batch_1")
	assert.Contains(t, out, "1200")
}

func TestConvertCommand_NoDocuments(t *testing.T) {
	_, err := runApp(t, "convert",
		"--input", t.TempDir(),
		"--workspace", t.TempDir(),
		"--output", t.TempDir())
	assert.ErrorIs(t, err, themeconv.ErrNoDocuments)
}

func TestConvertCommand_RequiresInput(t *testing.T) {
	_, err := runApp(t, "convert")
	assert.Error(t, err)
}

func TestPipelineOptions(t *testing.T) {
	cfg := config.Default()
	assert.Len(t, pipelineOptions(cfg, "p"), 5)

	cfg.Pipeline.RequestsPerSecond = 0.5
	assert.Len(t, pipelineOptions(cfg, "p"), 6)
}

func TestLoadPrompt(t *testing.T) {
	prompt, err := loadPrompt("")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)

	path := filepath.Join(t.TempDir(), "prompt.md")
	require.NoError(t, os.WriteFile(path, []byte("custom"), 0o644))
	prompt, err = loadPrompt(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", prompt)

	_, err = loadPrompt(filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}
