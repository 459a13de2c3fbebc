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

package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/foduucom/themeconv/core"
	"github.com/foduucom/themeconv/metrics"
	"github.com/foduucom/themeconv/pipeline"
	"github.com/foduucom/themeconv/storage"
	"github.com/foduucom/themeconv/storage/file"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// DefaultWorkers is the number of documents processed at once.
const DefaultWorkers = 4

// Runner processes the fragments of one document.
// *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, document string, fragments []core.Fragment, out storage.OutputStore) (*pipeline.Report, error)
}

// OutputOpener returns the output store a document's results go to.
type OutputOpener func(doc core.Document) (storage.OutputStore, error)

// OpenOutputFile is the default OutputOpener. It opens the JSON file at the
// document's OutputPath.
func OpenOutputFile(doc core.Document) (storage.OutputStore, error) {
	return file.OpenOutputFile(doc.OutputPath)
}

// Orchestrator fans documents out over a bounded worker pool.
type Orchestrator struct {
	runner   Runner
	pool     *ants.Pool
	workers  int
	open     OutputOpener
	progress io.Writer
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithWorkers sets how many documents run at once.
// Default is DefaultWorkers.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) error {
		if n < 1 {
			return ErrInvalidWorkers
		}
		o.workers = n
		return nil
	}
}

// WithOutputOpener replaces how output stores are opened.
func WithOutputOpener(open OutputOpener) Option {
	return func(o *Orchestrator) error {
		if open != nil {
			o.open = open
		}
		return nil
	}
}

// WithProgress writes a progress line to w as documents finish.
func WithProgress(w io.Writer) Option {
	return func(o *Orchestrator) error {
		o.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// New creates an Orchestrator. Call Release when done with it.
func New(runner Runner, opts ...Option) (*Orchestrator, error) {
	if runner == nil {
		return nil, ErrRunnerRequired
	}

	o := &Orchestrator{
		runner:  runner,
		workers: DefaultWorkers,
		open:    OpenOutputFile,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	o.logger = o.logger.With("component", "orchestrator")

	pool, err := ants.NewPool(o.workers)
	if err != nil {
		return nil, err
	}
	o.pool = pool
	return o, nil
}

// Workers returns the pool size.
func (o *Orchestrator) Workers() int {
	return o.workers
}

// Release stops the worker pool. The Orchestrator must not be used afterwards.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}

// DocumentResult is the outcome of one document.
type DocumentResult struct {
	Document string
	Report   *pipeline.Report
	Err      error
	Elapsed  time.Duration
}

// Summary collects the outcome of every document of a RunAll call, in
// input order.
type Summary struct {
	RunID     string
	Documents []DocumentResult
	Elapsed   time.Duration
}

// Failed returns the results that ended in an error.
func (s *Summary) Failed() []DocumentResult {
	var failed []DocumentResult
	for _, d := range s.Documents {
		if d.Err != nil {
			failed = append(failed, d)
		}
	}
	return failed
}

// Usage sums the token usage of every document.
func (s *Summary) Usage() core.Usage {
	var total core.Usage
	for _, d := range s.Documents {
		if d.Report != nil {
			total = total.Add(d.Report.Usage)
		}
	}
	return total
}

// RunAll processes every document and waits for all of them. At most
// Workers documents run at once. The returned error is the first one
// observed, in completion order; the Summary always covers every document.
func (o *Orchestrator) RunAll(ctx context.Context, docs []core.Document) (*Summary, error) {
	start := time.Now()
	summary := &Summary{
		RunID:     uuid.NewString(),
		Documents: make([]DocumentResult, len(docs)),
	}
	logger := o.logger.With("run_id", summary.RunID)
	logger.Info("starting run", "documents", len(docs), "workers", o.workers)

	var tracker *ProgressTracker
	if o.progress != nil {
		tracker = NewProgressTracker(o.progress, len(docs))
		tracker.Start()
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	record := func(i int, result DocumentResult) {
		summary.Documents[i] = result
		metrics.ObserveDocument(result.Err)
		if tracker != nil {
			tracker.Done(result.Document, result.Err)
		}
		if result.Err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = result.Err
			}
			mu.Unlock()
		}
	}

	for i, doc := range docs {
		wg.Add(1)
		err := o.pool.Submit(func() {
			defer wg.Done()
			metrics.IncActiveWorkers()
			defer metrics.DecActiveWorkers()
			record(i, o.runOne(ctx, logger, doc))
		})
		if err != nil {
			wg.Done()
			record(i, DocumentResult{Document: doc.Name, Err: fmt.Errorf("submit %s: %w", doc.Name, err)})
		}
	}
	wg.Wait()

	if tracker != nil {
		tracker.Finish()
	}
	summary.Elapsed = time.Since(start)
	logger.Info("run finished",
		"documents", len(docs),
		"failed", len(summary.Failed()),
		"elapsed", summary.Elapsed)
	return summary, firstErr
}

func (o *Orchestrator) runOne(ctx context.Context, logger *slog.Logger, doc core.Document) (result DocumentResult) {
	start := time.Now()
	result.Document = doc.Name
	logger = logger.With("document", doc.Name)

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("%w: %s: %v", ErrWorkerPanic, doc.Name, r)
			logger.Error("worker panicked", "panic", r)
		}
		result.Elapsed = time.Since(start)
	}()

	out, err := o.open(doc)
	if err != nil {
		result.Err = fmt.Errorf("open output for %s: %w", doc.Name, err)
		logger.Error("failed to open output", "path", doc.OutputPath, "err", err)
		return result
	}

	logger.Info("processing document", "fragments", len(doc.Fragments))
	result.Report, result.Err = o.runner.Run(ctx, doc.Name, doc.Fragments, out)
	if result.Err != nil {
		logger.Error("document failed", "err", result.Err)
	}
	return result
}
