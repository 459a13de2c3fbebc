package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, Base: time.Millisecond}
}

func TestDo_Success(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastPolicy(3), func(int) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestDo_EventualSuccess(t *testing.T) {
	var seen []int
	err := Do(context.Background(), fastPolicy(5), func(attempt int) error {
		seen = append(seen, attempt)
		if attempt < 3 {
			return errors.New("temporary error")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestDo_AllAttemptsFail(t *testing.T) {
	attempts := 0
	expectedErr := errors.New("persistent error")
	err := Do(context.Background(), fastPolicy(3), func(int) error {
		attempts++
		return expectedErr
	})
	require.Error(t, err)
	assert.Equal(t, expectedErr, err, "should return the original error")
	assert.Equal(t, 3, attempts, "should attempt exactly MaxAttempts times")
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Do(ctx, fastPolicy(10), func(int) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, attempts, 2, "should stop when context is canceled")
}

func TestDo_InvalidPolicy(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr error
	}{
		{"zero attempts", Policy{MaxAttempts: 0}, ErrInvalidMaxAttempts},
		{"negative attempts", Policy{MaxAttempts: -1}, ErrInvalidMaxAttempts},
		{"negative delay", Policy{MaxAttempts: 1, Base: -time.Second}, ErrNegativeDelay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := Do(context.Background(), tt.policy, func(int) error {
				attempts++
				return nil
			})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, attempts)
		})
	}
}

func TestPolicy_Delay(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		round  int
		want   time.Duration
	}{
		{"default round 1", DefaultPolicy(), 1, 7 * time.Second},
		{"default round 4", DefaultPolicy(), 4, 13 * time.Second},
		{"exponential round 1", Policy{Base: time.Second, Growth: Exponential()}, 1, time.Second},
		{"exponential round 4", Policy{Base: time.Second, Growth: Exponential()}, 4, 8 * time.Second},
		{"constant", Policy{Base: 3 * time.Second}, 9, 3 * time.Second},
		{"negative growth clamps", Policy{Base: time.Second, Growth: Linear(-time.Second)}, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Delay(tt.round))
		})
	}
}

func TestPolicy_WaitHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Policy{MaxAttempts: 1, Base: time.Hour}.Wait(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.NoError(t, p.Validate())
	assert.Equal(t, 5, p.MaxAttempts)
}
