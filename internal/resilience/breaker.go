package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	// BreakerClosed lets calls through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls until the reset timeout elapses.
	BreakerOpen
	// BreakerHalfOpen lets a probe call through.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned for calls rejected by an open breaker.
var ErrBreakerOpen = eris.New("resilience: circuit breaker is open")

// Breaker opens after Threshold consecutive failures and allows a probe
// once ResetTimeout has passed since the last failure.
type Breaker struct {
	Threshold    int
	ResetTimeout time.Duration

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
	now         func() time.Time
	onChange    func(from, to BreakerState)
}

// NewBreaker creates a closed Breaker.
func NewBreaker(threshold int, resetTimeout time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &Breaker{Threshold: threshold, ResetTimeout: resetTimeout, now: time.Now}
}

// State returns the effective state, reporting half-open once the reset
// timeout has elapsed.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && b.now().Sub(b.lastFailure) >= b.ResetTimeout {
		return BreakerHalfOpen
	}
	return b.state
}

// Allow returns ErrBreakerOpen if a call must be rejected.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != BreakerOpen {
		return nil
	}
	if b.now().Sub(b.lastFailure) >= b.ResetTimeout {
		b.transition(BreakerHalfOpen)
		return nil
	}
	return ErrBreakerOpen
}

// Record updates the breaker with the outcome of an allowed call.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		if b.state != BreakerClosed {
			b.transition(BreakerClosed)
		}
		return
	}

	b.failures++
	b.lastFailure = b.now()
	if b.state == BreakerHalfOpen || (b.state == BreakerClosed && b.failures >= b.Threshold) {
		b.transition(BreakerOpen)
	}
}

func (b *Breaker) transition(to BreakerState) {
	from := b.state
	b.state = to
	if b.onChange != nil {
		b.onChange(from, to)
	}
}
