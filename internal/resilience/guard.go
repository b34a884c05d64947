package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/competitive-intel/internal/config"
)

// Guard protects one external service with a retry policy and a breaker.
type Guard struct {
	service string
	policy  Policy
	breaker *Breaker
}

// NewGuard creates a Guard for service.
func NewGuard(service string, policy Policy, breaker *Breaker) *Guard {
	if breaker == nil {
		breaker = NewBreaker(0, 0)
	}
	breaker.onChange = func(from, to BreakerState) {
		zap.L().Warn("resilience: breaker state change",
			zap.String("service", service),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}
	return &Guard{service: service, policy: policy, breaker: breaker}
}

// GuardFrom builds a Guard from retry configuration.
func GuardFrom(service string, cfg config.RetryConfig) *Guard {
	return NewGuard(service, PolicyFrom(cfg),
		NewBreaker(cfg.CircuitThreshold, time.Duration(cfg.CircuitResetSecs)*time.Second))
}

// Service returns the guarded service name.
func (g *Guard) Service() string { return g.service }

// Breaker exposes the guard's breaker.
func (g *Guard) Breaker() *Breaker { return g.breaker }

// Call runs fn through g's breaker, retrying transient failures. Calls
// rejected by an open breaker are not retried.
func Call[T any](ctx context.Context, g *Guard, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempt := func(ctx context.Context) (T, error) {
		var zero T
		if err := g.breaker.Allow(); err != nil {
			return zero, err
		}
		val, err := fn(ctx)
		g.breaker.Record(err)
		return val, err
	}

	onRetry := func(n int, err error) {
		zap.L().Warn("resilience: retrying call",
			zap.String("service", g.service),
			zap.String("operation", op),
			zap.Int("attempt", n),
			zap.Error(err),
		)
	}

	return Retry(ctx, g.policy, attempt, onRetry)
}
