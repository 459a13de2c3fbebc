package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foduucom/themeconv/ai"
	"github.com/foduucom/themeconv/core"
	"github.com/foduucom/themeconv/metrics"
	"github.com/foduucom/themeconv/retry"
)

const (
	modeBatch  = "batch"
	modeSingle = "single"
)

// runBatch sends the batch in rounds until every job is persisted or the
// round budget runs out. Each round resends only the jobs that failed in
// the previous one. It returns the keys left unresolved. A returned error
// means the run must stop.
func (r *run) runBatch(ctx context.Context, n int, batch []job) ([]string, error) {
	key := fmt.Sprintf("%s_batch_%d", r.report.Document, n)
	logger := r.logger.With("batch", n)

	pending := batch
	var total core.Usage
	for round := 1; round <= r.policy.MaxAttempts && len(pending) > 0; round++ {
		if err := r.wait(ctx); err != nil {
			return nil, err
		}

		fragments := make([]core.Fragment, len(pending))
		for i, j := range pending {
			fragments[i] = j.fragment
		}
		logger.Debug("sending batch", "round", round, "size", len(fragments))

		start := time.Now()
		results, usage, err := r.transformer.TransformBatch(ctx, r.prompt, fragments)
		metrics.ObserveServiceCall(modeBatch, err, time.Since(start))
		total = total.Add(usage)
		r.recordUsage(ctx, key, total, usage)

		if err == nil && len(results) != len(pending) {
			err = fmt.Errorf("%w: sent %d, got %d", ErrResultCount, len(pending), len(results))
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Warn("batch call failed", "round", round, "err", err)
			r.capture(ctx, key, round, err.Error())
		} else {
			var failed []job
			for i, result := range results {
				j := pending[i]
				if err := checkResult(result); err != nil {
					metrics.ObserveItem(metrics.ItemMalformed)
					logger.Warn("malformed result", "key", j.key, "round", round, "err", err)
					r.capture(ctx, j.key, round, result.Raw)
					failed = append(failed, j)
					continue
				}
				if err := r.persist(ctx, j, result.Result); err != nil {
					return nil, err
				}
			}
			pending = failed
		}

		if len(pending) > 0 && round < r.policy.MaxAttempts {
			logger.Info("retrying", "round", round, "pending", len(pending), "delay", r.policy.Delay(round))
			if err := r.policy.Wait(ctx, round); err != nil {
				return nil, err
			}
		}
	}

	return r.exhausted(pending), nil
}

// runSingle transforms one job with its own call per attempt.
func (r *run) runSingle(ctx context.Context, j job) ([]string, error) {
	var total core.Usage
	var result core.Shortcode
	err := retry.Do(ctx, r.policy, func(attempt int) error {
		if err := r.wait(ctx); err != nil {
			return err
		}
		start := time.Now()
		sc, usage, err := r.transformer.Transform(ctx, r.prompt, j.fragment)
		metrics.ObserveServiceCall(modeSingle, err, time.Since(start))
		total = total.Add(usage)
		r.recordUsage(ctx, j.key, total, usage)

		if err == nil {
			err = checkResult(ai.ItemResult{Result: sc})
		}
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			metrics.ObserveItem(metrics.ItemMalformed)
			r.logger.Warn("transform failed", "key", j.key, "attempt", attempt, "err", err)
			r.capture(ctx, j.key, attempt, rawOutput(err))
			return err
		}
		result = sc
		return nil
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return r.exhausted([]job{j}), nil
	}
	return nil, r.persist(ctx, j, result)
}

func (r *run) exhausted(pending []job) []string {
	if len(pending) == 0 {
		return nil
	}
	keys := make([]string, len(pending))
	for i, j := range pending {
		keys[i] = j.key
		metrics.ObserveItem(metrics.ItemExhausted)
	}
	r.logger.Error("giving up", "keys", keys, "attempts", r.policy.MaxAttempts)
	return keys
}

// checkResult reports whether an item result can be persisted.
func checkResult(result ai.ItemResult) error {
	if result.Err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResult, result.Err)
	}
	if err := core.ValidateShortcode(&result.Result); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResult, err)
	}
	return nil
}

// rawOutput returns the service text behind err, or the error text when
// the service never answered.
func rawOutput(err error) string {
	var outErr *ai.OutputError
	if errors.As(err, &outErr) && outErr.Raw != "" {
		return outErr.Raw
	}
	return err.Error()
}
