// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/foduucom/themeconv/ai"
	"github.com/foduucom/themeconv/core"
	"github.com/foduucom/themeconv/dedup"
	"github.com/foduucom/themeconv/metrics"
	"github.com/foduucom/themeconv/retry"
	"github.com/foduucom/themeconv/storage"
	"golang.org/x/time/rate"
)

// Pipeline drives the fragments of a document through the transformation
// service. It holds no per-run state, so one Pipeline may serve several
// documents concurrently.
type Pipeline struct {
	transformer ai.Transformer
	store       storage.FingerprintStore
	ledger      storage.UsageLedger
	matcher     *dedup.Matcher
	matcherOpts []dedup.Option
	diagnostics storage.DiagnosticSink
	limiter     *rate.Limiter
	policy      retry.Policy
	prompt      string
	batchSize   int
	sequential  bool
	logger      *slog.Logger
}

// New creates a Pipeline. The fingerprint store and usage ledger are shared
// with any other pipeline built over them.
func New(transformer ai.Transformer, store storage.FingerprintStore, ledger storage.UsageLedger, opts ...Option) (*Pipeline, error) {
	if transformer == nil || store == nil || ledger == nil {
		return nil, ErrNilDependency
	}
	p := &Pipeline{
		transformer: transformer,
		store:       store,
		ledger:      ledger,
		policy:      retry.DefaultPolicy(),
		batchSize:   DefaultBatchSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "pipeline")

	matcher, err := dedup.NewMatcher(store, append(p.matcherOpts, dedup.WithLogger(p.logger))...)
	if err != nil {
		return nil, err
	}
	p.matcher = matcher
	return p, nil
}

// CacheHit records a fragment skipped because the store already held a
// matching record.
type CacheHit struct {
	Key   string
	Match string
	Score float64
}

// Report summarizes one Run.
type Report struct {
	Document string

	// Succeeded lists fragments transformed and persisted by this run, in
	// completion order.
	Succeeded []string

	// Resumed lists fragments found in the output from an earlier run.
	Resumed []string

	// CacheHits lists fragments matched against the fingerprint store.
	CacheHits []CacheHit

	// Duplicates lists fragments whose skeleton repeated an earlier
	// fragment of this run.
	Duplicates []string

	// Invalid lists fragments without a name or content.
	Invalid []string

	// Unresolved lists fragments that exhausted the retry budget.
	Unresolved []string

	// Calls counts requests made to the transformation service.
	Calls int

	// Usage sums the tokens of every call.
	Usage core.Usage
}

// Run transforms every pending fragment of a document and appends the
// results to out.
//
// Fragments already in out are skipped, so an interrupted run can be
// restarted with the same arguments. Each success is written to the
// fingerprint store and then to out before the next item is looked at.
// When fragments remain unresolved after the retry budget, Run still
// processes every batch and then returns an *AggregateError naming them.
// Any other error aborts the run.
func (p *Pipeline) Run(ctx context.Context, document string, fragments []core.Fragment, out storage.OutputStore) (*Report, error) {
	r := &run{
		Pipeline: p,
		out:      out,
		report:   &Report{Document: document},
		logger:   p.logger.With("document", document),
		seen:     make(map[core.Fingerprint]string),
		queued:   make(map[string]struct{}),
	}

	completed, err := out.CompletedKeys(ctx)
	if err != nil {
		return r.report, err
	}
	r.completed = completed
	if len(completed) > 0 {
		r.logger.Info("resuming", "completed", len(completed))
	}

	if err := r.drain(ctx, fragments); err != nil {
		return r.report, err
	}

	r.logger.Info("document finished",
		"succeeded", len(r.report.Succeeded),
		"resumed", len(r.report.Resumed),
		"cache_hits", len(r.report.CacheHits),
		"duplicates", len(r.report.Duplicates),
		"unresolved", len(r.report.Unresolved),
		"calls", r.report.Calls)

	if len(r.report.Unresolved) > 0 {
		return r.report, &AggregateError{Document: document, Keys: r.report.Unresolved}
	}
	return r.report, nil
}

// job is one fragment's transient state within a run.
type job struct {
	key         string
	fragment    core.Fragment
	skeleton    core.Skeleton
	fingerprint core.Fingerprint
}

// run carries the state of one Run call.
type run struct {
	*Pipeline
	out       storage.OutputStore
	report    *Report
	logger    *slog.Logger
	completed map[string]struct{}
	seen      map[core.Fingerprint]string
	queued    map[string]struct{}
	batchNo   int
}

// drain admits fragments into batches and processes each batch as soon as
// it fills, so later fragments are checked against records written by
// earlier batches of the same run.
func (r *run) drain(ctx context.Context, fragments []core.Fragment) error {
	size := r.batchSize
	if r.sequential {
		size = 1
	}

	batch := make([]job, 0, size)
	for _, fragment := range fragments {
		if err := ctx.Err(); err != nil {
			return err
		}
		j, ok, err := r.admit(ctx, fragment)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		batch = append(batch, j)
		if len(batch) == size {
			if err := r.process(ctx, batch); err != nil {
				return err
			}
			batch = make([]job, 0, size)
		}
	}
	if len(batch) > 0 {
		return r.process(ctx, batch)
	}
	return nil
}

// admit decides whether fragment needs a service call.
func (r *run) admit(ctx context.Context, fragment core.Fragment) (job, bool, error) {
	key := fragment.Name
	if err := core.ValidateFragment(&fragment); err != nil {
		r.logger.Warn("skipping invalid fragment", "key", key, "err", err)
		r.report.Invalid = append(r.report.Invalid, key)
		return job{}, false, nil
	}
	if _, ok := r.completed[key]; ok {
		r.report.Resumed = append(r.report.Resumed, key)
		metrics.ObserveLookup(metrics.LookupResumed)
		return job{}, false, nil
	}
	if _, ok := r.queued[key]; ok {
		r.logger.Warn("skipping repeated fragment name", "key", key)
		r.report.Duplicates = append(r.report.Duplicates, key)
		metrics.ObserveLookup(metrics.LookupDuplicate)
		return job{}, false, nil
	}

	skeleton, err := dedup.Normalize(fragment.HTML)
	if err != nil {
		r.logger.Warn("skipping unparseable fragment", "key", key, "err", err)
		r.report.Invalid = append(r.report.Invalid, key)
		return job{}, false, nil
	}
	fp := core.FingerprintOf(skeleton)
	if first, ok := r.seen[fp]; ok {
		r.logger.Info("skipping duplicate", "key", key, "same_as", first)
		r.report.Duplicates = append(r.report.Duplicates, key)
		metrics.ObserveLookup(metrics.LookupDuplicate)
		return job{}, false, nil
	}

	match, err := r.matcher.LookupSkeleton(ctx, skeleton)
	if err != nil {
		return job{}, false, err
	}
	if match.Hit {
		r.logger.Info("skipping already processed", "key", key, "match", match.Record.Name, "score", match.Score)
		r.report.CacheHits = append(r.report.CacheHits, CacheHit{Key: key, Match: match.Record.Name, Score: match.Score})
		if match.Score == 100 {
			metrics.ObserveLookup(metrics.LookupExact)
		} else {
			metrics.ObserveLookup(metrics.LookupFuzzy)
		}
		return job{}, false, nil
	}
	metrics.ObserveLookup(metrics.LookupMiss)

	r.seen[fp] = key
	r.queued[key] = struct{}{}
	return job{key: key, fragment: fragment, skeleton: skeleton, fingerprint: fp}, true, nil
}

func (r *run) process(ctx context.Context, batch []job) error {
	r.batchNo++
	var unresolved []string
	var err error
	if r.sequential {
		unresolved, err = r.runSingle(ctx, batch[0])
	} else {
		unresolved, err = r.runBatch(ctx, r.batchNo, batch)
	}
	r.report.Unresolved = append(r.report.Unresolved, unresolved...)
	return err
}

// persist writes a successful result: fingerprint store first, then the
// document output. Either write finding the entry already present counts
// as done.
func (r *run) persist(ctx context.Context, j job, result core.Shortcode) error {
	result.Name = j.key
	record := &core.CacheRecord{
		Name:        j.key,
		Fingerprint: j.fingerprint,
		Skeleton:    j.skeleton,
		Result:      result,
	}
	if err := r.store.Append(ctx, record); err != nil {
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return err
		}
		r.logger.Debug("fingerprint already cached", "key", j.key)
	}
	if err := r.out.Append(ctx, result); err != nil {
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return err
		}
		r.logger.Debug("result already in output", "key", j.key)
	}
	r.report.Succeeded = append(r.report.Succeeded, j.key)
	metrics.ObserveItem(metrics.ItemSucceeded)
	r.logger.Info("saved", "key", j.key)
	return nil
}

// recordUsage adds a call's usage to the report and writes the running
// total for key to the ledger. Ledger failures are logged, not returned.
func (r *run) recordUsage(ctx context.Context, key string, total core.Usage, call core.Usage) {
	r.report.Calls++
	r.report.Usage = r.report.Usage.Add(call)
	metrics.ObserveTokens(call.InputTokens, call.OutputTokens)
	if err := r.ledger.Record(ctx, key, total); err != nil {
		r.logger.Error("failed to record usage", "key", key, "err", err)
	}
}

// capture stores raw output for a failed attempt. Best effort.
func (r *run) capture(ctx context.Context, key string, attempt int, raw string) {
	if r.diagnostics == nil {
		return
	}
	if err := r.diagnostics.Capture(ctx, key, attempt, raw); err != nil {
		r.logger.Warn("failed to write diagnostic", "key", key, "attempt", attempt, "err", err)
	}
}

func (r *run) wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
