package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/sells-group/competitive-intel/internal/config"
)

// Policy controls exponential backoff with jitter.
type Policy struct {
	MaxAttempts    int // total attempts including the first
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         float64 // fraction of the delay, 0.25 = ±25%

	// ShouldRetry overrides IsTransient when set.
	ShouldRetry func(err error) bool
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2,
		Jitter:         0.25,
	}
}

// PolicyFrom builds a Policy from configuration, keeping defaults for
// unset values.
func PolicyFrom(cfg config.RetryConfig) Policy {
	p := DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialBackoffMs > 0 {
		p.InitialBackoff = time.Duration(cfg.InitialBackoffMs) * time.Millisecond
	}
	if cfg.MaxBackoffMs > 0 {
		p.MaxBackoff = time.Duration(cfg.MaxBackoffMs) * time.Millisecond
	}
	if cfg.Multiplier > 0 {
		p.Multiplier = cfg.Multiplier
	}
	return p
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = d.InitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = d.MaxBackoff
	}
	if p.Multiplier <= 0 {
		p.Multiplier = d.Multiplier
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.ShouldRetry == nil {
		p.ShouldRetry = IsTransient
	}
	return p
}

// Backoff returns the delay before retry number attempt (0-based).
func (p Policy) Backoff(attempt int) time.Duration {
	delay := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt))
	delay = math.Min(delay, float64(p.MaxBackoff))
	if p.Jitter > 0 {
		delay += (rand.Float64()*2 - 1) * delay * p.Jitter
	}
	return time.Duration(math.Max(0, delay))
}

// Retry calls fn until it succeeds, returns a non-retryable error, the
// attempts run out, or ctx is done. onRetry, if non-nil, runs before each
// backoff sleep.
func Retry[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error), onRetry func(attempt int, err error)) (T, error) {
	p = p.normalized()

	var (
		zero    T
		lastErr error
	)
	for attempt := range p.MaxAttempts {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !p.ShouldRetry(err) || attempt == p.MaxAttempts-1 {
			break
		}
		if onRetry != nil {
			onRetry(attempt+1, err)
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}
