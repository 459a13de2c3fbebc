package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/foduucom/themeconv/core"
	"github.com/foduucom/themeconv/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(name, skeleton string) *core.CacheRecord {
	sk := core.Skeleton(skeleton)
	return &core.CacheRecord{
		Name:        name,
		Fingerprint: core.FingerprintOf(sk),
		Skeleton:    sk,
		Result:      core.Shortcode{Name: name, Template: "<p>" + name + "</p>"},
	}
}

func TestOpenFingerprintStore_MissingFileCreatesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "processed_blocks.json")

	store, err := OpenFingerprintStore(path)
	require.NoError(t, err)

	records, err := store.Records(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestOpenFingerprintStore_CorruptFileResets(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"garbage", "{not json"},
		{"empty", ""},
		{"wrong shape", `{"name": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "store.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))

			store, err := OpenFingerprintStore(path, WithLogger(logger))
			require.NoError(t, err)

			records, err := store.Records(context.Background())
			require.NoError(t, err)
			assert.Empty(t, records)
			assert.Contains(t, logs.String(), "resetting")

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.JSONEq(t, `[]`, string(data))
		})
	}
}

func TestFingerprintStore_AppendPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ctx := context.Background()

	store, err := OpenFingerprintStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, newRecord("a", "<div></div>")))
	require.NoError(t, store.Append(ctx, newRecord("b", "<section></section>")))

	var raw []map[string]any
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	assert.Equal(t, "a", raw[0]["name"])
	assert.Contains(t, raw[0], "hash")
	assert.Contains(t, raw[0], "skeleton")
	assert.Contains(t, raw[0], "result")

	reopened, err := OpenFingerprintStore(path)
	require.NoError(t, err)
	records, err := reopened.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].Name)
	assert.Equal(t, "b", records[1].Name)
	assert.Equal(t, "<p>b</p>", records[1].Result.Template)
}

func TestFingerprintStore_RejectsDuplicate(t *testing.T) {
	store, err := OpenFingerprintStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, newRecord("a", "<div></div>")))
	err = store.Append(ctx, newRecord("b", "<div></div>"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	records, err := store.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFingerprintStore_Get(t *testing.T) {
	store, err := OpenFingerprintStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	ctx := context.Background()

	rec := newRecord("hero", "<header></header>")
	require.NoError(t, store.Append(ctx, rec))

	got, err := store.Get(ctx, rec.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, "hero", got.Name)

	_, err = store.Get(ctx, core.FingerprintOf("<nav></nav>"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFingerprintStore_LegacyShortcodeField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	fp := core.FingerprintOf("<div></div>")
	legacy := fmt.Sprintf(`[{"name":"old","hash":%q,"skeleton":"<div></div>","shortcode":{"name":"old","param":[],"template":"<b></b>","queryScript":""}}]`, fp)
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	store, err := OpenFingerprintStore(path)
	require.NoError(t, err)
	records, err := store.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "<b></b>", records[0].Result.Template)
	assert.Equal(t, fp, records[0].Fingerprint)
}

func TestFingerprintStore_ConcurrentAppendNoLostUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	store, err := OpenFingerprintStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, newRecord(fmt.Sprintf("r%d", i), fmt.Sprintf("<i n=\"%d\"></i>", i))))
		}(i)
	}
	wg.Wait()

	reopened, err := OpenFingerprintStore(path)
	require.NoError(t, err)
	records, err := reopened.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 25)
}
