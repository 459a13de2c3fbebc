package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/foduucom/themeconv/ai"
	"github.com/foduucom/themeconv/core"
)

// DefaultUsage is reported for every fragment a default MockTransformer handles.
var DefaultUsage = core.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}

// ItemFunc decides the outcome of one fragment. attempt counts the requests
// made for that fragment so far, starting at 1.
type ItemFunc func(fragment core.Fragment, attempt int) ai.ItemResult

// MockTransformer is a test double for ai.Transformer.
// It allows custom behavior injection via function fields.
type MockTransformer struct {
	// TransformBatchFunc replaces the whole batch behavior if set.
	TransformBatchFunc func(ctx context.Context, prompt string, fragments []core.Fragment) ([]ai.ItemResult, core.Usage, error)

	// TransformFunc replaces single-fragment behavior if set.
	TransformFunc func(ctx context.Context, prompt string, fragment core.Fragment) (core.Shortcode, core.Usage, error)

	mu         sync.Mutex
	itemFunc   ItemFunc
	batchErrs  []error
	attempts   map[string]int
	batchCalls int
	singleCall int
	batches    [][]string
}

var _ ai.Transformer = (*MockTransformer)(nil)

// NewMockTransformer creates a mock transformer with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockTransformer() *MockTransformer {
	return &MockTransformer{attempts: make(map[string]int)}
}

// WithItemFunc sets the per-fragment outcome used by the default behavior.
func (m *MockTransformer) WithItemFunc(fn ItemFunc) *MockTransformer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.itemFunc = fn
	return m
}

// WithBatchErrors queues call-level errors returned by the next batch calls,
// one per call. A nil entry lets that call proceed normally.
func (m *MockTransformer) WithBatchErrors(errs ...error) *MockTransformer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchErrs = append(m.batchErrs, errs...)
	return m
}

// TransformBatch returns one result per fragment.
func (m *MockTransformer) TransformBatch(ctx context.Context, prompt string, fragments []core.Fragment) ([]ai.ItemResult, core.Usage, error) {
	m.mu.Lock()
	m.batchCalls++
	names := make([]string, len(fragments))
	for i, f := range fragments {
		names[i] = f.Name
	}
	m.batches = append(m.batches, names)
	var queued error
	if len(m.batchErrs) > 0 {
		queued = m.batchErrs[0]
		m.batchErrs = m.batchErrs[1:]
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, core.Usage{}, err
	}
	if m.TransformBatchFunc != nil {
		return m.TransformBatchFunc(ctx, prompt, fragments)
	}

	usage := core.Usage{}
	for range fragments {
		usage = usage.Add(DefaultUsage)
	}
	if queued != nil {
		return nil, usage, queued
	}

	results := make([]ai.ItemResult, len(fragments))
	for i, f := range fragments {
		results[i] = m.outcome(f)
	}
	return results, usage, nil
}

// Transform handles a single fragment.
func (m *MockTransformer) Transform(ctx context.Context, prompt string, fragment core.Fragment) (core.Shortcode, core.Usage, error) {
	m.mu.Lock()
	m.singleCall++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return core.Shortcode{}, core.Usage{}, err
	}
	if m.TransformFunc != nil {
		return m.TransformFunc(ctx, prompt, fragment)
	}

	r := m.outcome(fragment)
	if r.Err != nil {
		return core.Shortcode{}, DefaultUsage, r.Err
	}
	return r.Result, DefaultUsage, nil
}

func (m *MockTransformer) outcome(f core.Fragment) ai.ItemResult {
	m.mu.Lock()
	m.attempts[f.Name]++
	attempt := m.attempts[f.Name]
	fn := m.itemFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(f, attempt)
	}
	return Success(f)
}

// Success is the default outcome for a fragment.
func Success(f core.Fragment) ai.ItemResult {
	sc := core.Shortcode{Name: f.Name, Param: []any{}, Template: f.HTML}
	return ai.ItemResult{Result: sc, Raw: f.HTML}
}

// Malformed returns a malformed outcome carrying raw as the service output.
func Malformed(raw string) ai.ItemResult {
	return ai.ItemResult{
		Raw: raw,
		Err: &ai.OutputError{Raw: raw, Err: fmt.Errorf("unparseable output %q", raw)},
	}
}

// FailFirst makes the named fragments malformed for their first n attempts.
func FailFirst(n int, names ...string) ItemFunc {
	failing := make(map[string]bool, len(names))
	for _, name := range names {
		failing[name] = true
	}
	return func(f core.Fragment, attempt int) ai.ItemResult {
		if failing[f.Name] && attempt <= n {
			return Malformed(fmt.Sprintf("bad output for %s, attempt %d", f.Name, attempt))
		}
		return Success(f)
	}
}

// AlwaysFail makes the named fragments malformed on every attempt.
func AlwaysFail(names ...string) ItemFunc {
	return FailFirst(int(^uint(0)>>1), names...)
}

// BatchCallCount returns the number of TransformBatch calls.
func (m *MockTransformer) BatchCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchCalls
}

// CallCount returns the number of Transform calls.
func (m *MockTransformer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.singleCall
}

// Attempts returns how many outcomes were produced for fragment name.
func (m *MockTransformer) Attempts(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[name]
}

// Batches returns the fragment names of every batch call, in call order.
func (m *MockTransformer) Batches() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.batches))
	copy(out, m.batches)
	return out
}

// Reset clears call counters and attempt history.
func (m *MockTransformer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls = 0
	m.singleCall = 0
	m.batches = nil
	m.batchErrs = nil
	m.attempts = make(map[string]int)
}
