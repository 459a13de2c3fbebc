package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/foduucom/themeconv/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageLedger_RecordOverwritesKey(t *testing.T) {
	ledger, err := NewUsageLedger(filepath.Join(t.TempDir(), "expense.json"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ledger.Record(ctx, "home_batch_1", core.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}))
	require.NoError(t, ledger.Record(ctx, "home_batch_1", core.Usage{InputTokens: 20, OutputTokens: 7, TotalTokens: 27}))

	entries, err := ledger.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.Usage{InputTokens: 20, OutputTokens: 7, TotalTokens: 27}, entries["home_batch_1"])
}

func TestUsageLedger_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expense.json")
	ledger, err := NewUsageLedger(path)
	require.NoError(t, err)

	require.NoError(t, ledger.Record(context.Background(), "about_batch_1", core.Usage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"about_batch_1":{"input_tokens":1,"output_tokens":2,"total_tokens":3}}`, string(data))
}

func TestUsageLedger_ConcurrentRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expense.json")
	ledger, err := NewUsageLedger(path)
	require.NoError(t, err)
	ctx := context.Background()

	const keys = 50
	var wg sync.WaitGroup
	for w := 0; w < 5; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < keys; i += 5 {
				u := core.Usage{InputTokens: i, OutputTokens: i * 2, TotalTokens: i * 3}
				assert.NoError(t, ledger.Record(ctx, fmt.Sprintf("key_%d", i), u))
			}
		}(w)
	}
	wg.Wait()

	// Read through a fresh ledger to check what reached disk.
	fresh, err := NewUsageLedger(path)
	require.NoError(t, err)
	entries, err := fresh.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, keys)
	for i := 0; i < keys; i++ {
		assert.Equal(t, core.Usage{InputTokens: i, OutputTokens: i * 2, TotalTokens: i * 3}, entries[fmt.Sprintf("key_%d", i)])
	}
}

func TestUsageLedger_CorruptFileResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expense.json")
	require.NoError(t, os.WriteFile(path, []byte("[[["), 0o644))

	ledger, err := NewUsageLedger(path)
	require.NoError(t, err)
	ctx := context.Background()

	entries, err := ledger.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, ledger.Record(ctx, "k", core.Usage{TotalTokens: 1}))
	entries, err = ledger.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUsageLedger_SummarizeMissingFile(t *testing.T) {
	ledger, err := NewUsageLedger(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	summary, err := ledger.Summarize(context.Background(), core.DefaultPricing())
	require.NoError(t, err)
	assert.True(t, summary.Totals.IsZero())
	assert.Zero(t, summary.TotalCost)
	assert.Empty(t, summary.Entries)
}

func TestUsageLedger_Summarize(t *testing.T) {
	ledger, err := NewUsageLedger(filepath.Join(t.TempDir(), "expense.json"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ledger.Record(ctx, "a", core.Usage{InputTokens: 600_000, OutputTokens: 100_000, TotalTokens: 700_000}))
	require.NoError(t, ledger.Record(ctx, "b", core.Usage{InputTokens: 400_000, OutputTokens: 100_000, TotalTokens: 500_000}))

	pricing := core.Pricing{InputPerMillion: 1, OutputPerMillion: 10, CurrencyFactor: 2}
	summary, err := ledger.Summarize(ctx, pricing)
	require.NoError(t, err)

	assert.Equal(t, core.Usage{InputTokens: 1_000_000, OutputTokens: 200_000, TotalTokens: 1_200_000}, summary.Totals)
	assert.InDelta(t, 2.0, summary.InputCost, 1e-9)
	assert.InDelta(t, 4.0, summary.OutputCost, 1e-9)
	assert.InDelta(t, 6.0, summary.TotalCost, 1e-9)
	assert.Len(t, summary.Entries, 2)
}
