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

// Package retry provides backoff policies and a retry loop driven by them.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var (
	// ErrInvalidMaxAttempts indicates a policy allows no attempts.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeDelay indicates a negative base delay.
	ErrNegativeDelay = errors.New("base delay must not be negative")
)

// Growth computes the wait before the next attempt from the base delay and
// the number of the attempt that just failed (1-based).
type Growth func(base time.Duration, round int) time.Duration

// Linear grows the delay by step per round: base + round*step.
func Linear(step time.Duration) Growth {
	return func(base time.Duration, round int) time.Duration {
		return base + time.Duration(round)*step
	}
}

// Exponential doubles the delay every round: base * 2^(round-1).
func Exponential() Growth {
	return func(base time.Duration, round int) time.Duration {
		delay := base
		for i := 1; i < round; i++ {
			delay *= 2
		}
		return delay
	}
}

// Constant waits base between every attempt.
func Constant() Growth {
	return func(base time.Duration, _ int) time.Duration {
		return base
	}
}

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts int
	Base        time.Duration
	// Growth defaults to Constant when nil.
	Growth Growth
}

// DefaultPolicy allows five attempts waiting 5s + round*2s between them.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		Base:        5 * time.Second,
		Growth:      Linear(2 * time.Second),
	}
}

// Validate checks the policy is usable.
func (p Policy) Validate() error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if p.Base < 0 {
		return ErrNegativeDelay
	}
	return nil
}

// Delay returns the wait after failed attempt round.
func (p Policy) Delay(round int) time.Duration {
	growth := p.Growth
	if growth == nil {
		growth = Constant()
	}
	if d := growth(p.Base, round); d > 0 {
		return d
	}
	return 0
}

// Wait sleeps for Delay(round) or until ctx is done.
func (p Policy) Wait(ctx context.Context, round int) error {
	delay := p.Delay(round)
	if delay == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs operation until it succeeds or the policy's attempts run out.
// The operation receives the 1-based attempt number. The error of the last
// attempt is returned when every attempt fails.
func Do(ctx context.Context, p Policy, operation func(attempt int) error) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation(attempt)
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", p.MaxAttempts, "error", lastErr)

		// Don't sleep after the last attempt
		if attempt == p.MaxAttempts {
			break
		}
		if err := p.Wait(ctx, attempt); err != nil {
			return err
		}
	}

	return lastErr
}
