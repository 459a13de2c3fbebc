package themeconv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/foduucom/themeconv/ai/mock"
	"github.com/foduucom/themeconv/core"
	"github.com/foduucom/themeconv/orchestrator"
	"github.com/foduucom/themeconv/pipeline"
	"github.com/foduucom/themeconv/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWorkspace(t *testing.T) {
	t.Run("file backend with default provider", func(t *testing.T) {
		dir := t.TempDir()
		ws, err := OpenWorkspace(dir)
		require.NoError(t, err)
		defer ws.Close()

		assert.NotNil(t, ws.FingerprintStore())
		assert.NotNil(t, ws.UsageLedger())
		assert.NotNil(t, ws.Provider())
		assert.Nil(t, ws.backend)
		assert.FileExists(t, filepath.Join(dir, FingerprintFile))
	})

	t.Run("badger backend", func(t *testing.T) {
		dir := t.TempDir()
		ws, err := OpenWorkspace(dir, WithBackend(BackendBadger), WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		assert.NotNil(t, ws.backend)
		assert.DirExists(t, filepath.Join(dir, BadgerDir))
		assert.NoError(t, ws.Close())
	})

	t.Run("unknown backend", func(t *testing.T) {
		ws, err := OpenWorkspace(t.TempDir(), WithBackend("sqlite"))
		assert.ErrorIs(t, err, ErrUnknownBackend)
		assert.Nil(t, ws)
	})

	t.Run("badger at a file path", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, BadgerDir), []byte("x"), 0o644))
		_, err := OpenWorkspace(dir, WithBackend(BackendBadger), WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
	})
}

func TestWorkspace_EndToEnd(t *testing.T) {
	for _, backend := range []Backend{BackendFile, BackendBadger} {
		t.Run(string(backend), func(t *testing.T) {
			dir := t.TempDir()
			transformer := mock.NewMockTransformer()
			ws, err := OpenWorkspace(filepath.Join(dir, "ws"),
				WithBackend(backend),
				WithProvider(mock.NewMockProviderWithTransformer(transformer)))
			require.NoError(t, err)
			defer ws.Close()

			p, err := ws.NewPipeline(pipeline.WithRetryPolicy(retry.Policy{MaxAttempts: 2, Base: time.Millisecond}))
			require.NoError(t, err)
			o, err := ws.NewOrchestrator(p, orchestrator.WithWorkers(2))
			require.NoError(t, err)
			defer o.Release()

			docs := []core.Document{
				{
					Name:       "index",
					Fragments:  []core.Fragment{{Name: "hero", HTML: `<header class="hero"><h1>Hi</h1></header>`}},
					OutputPath: filepath.Join(dir, "out", "index", OutputFile),
				},
				{
					Name: "about",
					Fragments: []core.Fragment{
						{Name: "team", HTML: `<section class="team-grid"><ul><li>A</li></ul></section>`},
					},
					OutputPath: filepath.Join(dir, "out", "about", OutputFile),
				},
			}
			summary, err := o.RunAll(context.Background(), docs)
			require.NoError(t, err)
			assert.Len(t, summary.Documents, 2)
			assert.FileExists(t, docs[0].OutputPath)

			records, err := ws.FingerprintStore().Records(context.Background())
			require.NoError(t, err)
			assert.Len(t, records, 2)

			matcher, err := ws.NewMatcher()
			require.NoError(t, err)
			match, err := matcher.Lookup(context.Background(), `<header class="hero"><h1>Other</h1></header>`)
			require.NoError(t, err)
			assert.True(t, match.Hit)
			assert.Equal(t, "hero", match.Record.Name)

			usage, err := ws.Summarize(context.Background(), core.DefaultPricing())
			require.NoError(t, err)
			assert.Equal(t, 30, usage.Totals.TotalTokens)
			assert.Len(t, usage.Entries, 2)
		})
	}
}
