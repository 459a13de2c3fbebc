package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/foduucom/themeconv/ai"
	"github.com/foduucom/themeconv/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTransformer_Defaults(t *testing.T) {
	m := NewMockTransformer()
	ctx := context.Background()

	results, usage, err := m.TransformBatch(ctx, "p", []core.Fragment{{Name: "a", HTML: "<a></a>"}, {Name: "b", HTML: "<b></b>"}})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Result.Name)
	assert.Equal(t, "<b></b>", results[1].Result.Template)
	assert.Equal(t, DefaultUsage.Add(DefaultUsage), usage)

	sc, u, err := m.Transform(ctx, "p", core.Fragment{Name: "c", HTML: "<c></c>"})
	require.NoError(t, err)
	assert.Equal(t, "c", sc.Name)
	assert.Equal(t, DefaultUsage, u)

	assert.Equal(t, 1, m.BatchCallCount())
	assert.Equal(t, 1, m.CallCount())
	assert.Equal(t, [][]string{{"a", "b"}}, m.Batches())
}

func TestMockTransformer_FailFirst(t *testing.T) {
	m := NewMockTransformer().WithItemFunc(FailFirst(2, "b"))
	ctx := context.Background()
	frags := []core.Fragment{{Name: "a", HTML: "x"}, {Name: "b", HTML: "y"}}

	for round := 1; round <= 3; round++ {
		results, _, err := m.TransformBatch(ctx, "p", frags)
		require.NoError(t, err)
		assert.True(t, results[0].OK())
		assert.Equal(t, round > 2, results[1].OK(), "round %d", round)
		if round <= 2 {
			assert.ErrorIs(t, results[1].Err, ai.ErrMalformedOutput)
		}
	}
	assert.Equal(t, 3, m.Attempts("b"))
}

func TestMockTransformer_BatchErrors(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockTransformer().WithBatchErrors(boom, nil)
	ctx := context.Background()
	frags := []core.Fragment{{Name: "a", HTML: "x"}}

	_, usage, err := m.TransformBatch(ctx, "p", frags)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, DefaultUsage, usage)

	results, _, err := m.TransformBatch(ctx, "p", frags)
	require.NoError(t, err)
	assert.True(t, results[0].OK())
}

func TestMockTransformer_SingleMalformed(t *testing.T) {
	m := NewMockTransformer().WithItemFunc(AlwaysFail("x"))
	_, _, err := m.Transform(context.Background(), "p", core.Fragment{Name: "x", HTML: "h"})
	assert.ErrorIs(t, err, ai.ErrMalformedOutput)

	m.Reset()
	assert.Zero(t, m.CallCount())
	assert.Zero(t, m.Attempts("x"))
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	require.NotNil(t, p.Transformer())
	assert.NoError(t, p.Close())
	assert.NotNil(t, p.(*MockProvider).GetMockTransformer())
}
