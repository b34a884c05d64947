package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/competitive-intel/internal/config"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, Multiplier: 2}
}

func TestRetry_SucceedsAfterTransient(t *testing.T) {
	calls := 0
	var retried []int

	got, err := Retry(context.Background(), fastPolicy(3), func(_ context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(errors.New("busy"), 503)
		}
		return "ok", nil
	}, func(n int, _ error) { retried = append(retried, n) })

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetry_PermanentErrorStops(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(5), func(_ context.Context) (int, error) {
		calls++
		return 0, errors.New("bad request")
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(4), func(_ context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("timeout"), 504)
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 4, calls)
}

func TestRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Retry(ctx, fastPolicy(5), func(_ context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewTransientError(errors.New("timeout"), 504)
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_CustomShouldRetry(t *testing.T) {
	p := fastPolicy(3)
	p.ShouldRetry = func(error) bool { return true }

	calls := 0
	_, _ = Retry(context.Background(), p, func(_ context.Context) (int, error) {
		calls++
		return 0, errors.New("anything")
	}, nil)
	assert.Equal(t, 3, calls)
}

func TestPolicy_Backoff(t *testing.T) {
	p := Policy{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, p.Backoff(0))
	assert.Equal(t, 400*time.Millisecond, p.Backoff(2))
	assert.Equal(t, time.Second, p.Backoff(10))

	p.Jitter = 0.5
	for range 20 {
		d := p.Backoff(0)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestPolicyFrom(t *testing.T) {
	p := PolicyFrom(config.RetryConfig{MaxAttempts: 5, InitialBackoffMs: 200, MaxBackoffMs: 4000, Multiplier: 3})
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, p.InitialBackoff)
	assert.Equal(t, 4*time.Second, p.MaxBackoff)
	assert.InDelta(t, 3.0, p.Multiplier, 0.001)

	assert.Equal(t, DefaultPolicy().MaxAttempts, PolicyFrom(config.RetryConfig{}).MaxAttempts)
}
