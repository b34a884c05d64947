package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/competitive-intel/internal/config"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestCall_RetriesThroughBreaker(t *testing.T) {
	g := NewGuard("salesforce", fastPolicy(3), NewBreaker(10, time.Minute))

	calls := 0
	got, err := Call(context.Background(), g, "list accounts", func(_ context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, NewTransientError(errors.New("busy"), 503)
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, BreakerClosed, g.Breaker().State())
}

func TestCall_OpenBreakerShortCircuits(t *testing.T) {
	g := NewGuard("notion", fastPolicy(5), NewBreaker(2, time.Hour))

	calls := 0
	_, err := Call(context.Background(), g, "query", func(_ context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("busy"), 503)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, 2, calls, "breaker opens after the threshold and rejects the rest")
	assert.Equal(t, BreakerOpen, g.Breaker().State())
}

func TestGuardFrom(t *testing.T) {
	g := GuardFrom("salesforce", config.RetryConfig{MaxAttempts: 2, CircuitThreshold: 7, CircuitResetSecs: 60})
	assert.Equal(t, "salesforce", g.Service())
	assert.Equal(t, 7, g.Breaker().Threshold)
	assert.Equal(t, time.Minute, g.Breaker().ResetTimeout)
}
