package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/competitive-intel/internal/config"
	"github.com/sells-group/competitive-intel/internal/impact"
)

const (
	defaultInterval = 15 * time.Minute
	defaultLookback = 24 * time.Hour
)

// DigestSource builds a digest for a window. *impact.Analyzer implements it.
type DigestSource interface {
	Digest(ctx context.Context, req impact.DigestRequest) (*impact.Digest, error)
}

// DigestPublisher records a digest somewhere people read it.
type DigestPublisher interface {
	PublishDigest(ctx context.Context, d *impact.Digest) (int, error)
}

// CheckResult summarizes one pass of the checker.
type CheckResult struct {
	Since     time.Time
	Until     time.Time
	Digest    *impact.Digest
	Alerts    []Alert
	Sent      int
	Published int
}

// Checker periodically analyzes newly detected signals and alerts on them.
// Each signal is alerted on at most once per process.
type Checker struct {
	source    DigestSource
	alerter   *Alerter
	publisher DigestPublisher
	cfg       config.MonitoringConfig
	now       func() time.Time

	last time.Time
	seen map[string]bool
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithPublisher also publishes each new digest, e.g. to Notion.
func WithPublisher(p DigestPublisher) CheckerOption {
	return func(c *Checker) { c.publisher = p }
}

// NewChecker creates a background alert checker.
func NewChecker(source DigestSource, alerter *Alerter, cfg config.MonitoringConfig, opts ...CheckerOption) *Checker {
	c := &Checker{
		source:  source,
		alerter: alerter,
		cfg:     cfg,
		now:     time.Now,
		seen:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run starts the periodic check loop. It checks once immediately and
// blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = defaultInterval
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting signal checker",
		zap.Duration("interval", interval),
		zap.Int("lookback_hours", c.cfg.LookbackWindowHours),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ctx.Err() == nil {
			c.check(ctx, log)
		}
		select {
		case <-ctx.Done():
			log.Info("signal checker stopped")
			return
		case <-ticker.C:
		}
	}
}

func (c *Checker) check(ctx context.Context, log *zap.Logger) {
	res, err := c.Check(ctx)
	if err != nil {
		log.Error("monitoring: check failed", zap.Error(err))
		return
	}
	if len(res.Digest.Analyses) == 0 {
		log.Debug("monitoring: no new signals")
		return
	}
	log.Info("monitoring: check complete",
		zap.Int("signals", len(res.Digest.Analyses)),
		zap.Int("alerts_triggered", len(res.Alerts)),
		zap.Int("alerts_sent", res.Sent),
		zap.Int("published", res.Published),
	)
}

// Check runs one pass: digest the signals detected since the previous pass
// (or the lookback window on the first), drop any already handled, then
// alert and publish.
func (c *Checker) Check(ctx context.Context) (*CheckResult, error) {
	until := c.now().UTC()
	since := c.last
	if since.IsZero() {
		lookback := time.Duration(c.cfg.LookbackWindowHours) * time.Hour
		if lookback <= 0 {
			lookback = defaultLookback
		}
		since = until.Add(-lookback)
	}

	digest, err := c.source.Digest(ctx, impact.DigestRequest{Since: since, Until: until})
	if err != nil {
		return nil, err
	}

	fresh, window := c.dropSeen(digest)
	res := &CheckResult{Since: since, Until: until, Digest: fresh}

	res.Alerts = c.alerter.Evaluate(fresh)
	res.Sent = c.alerter.SendAlerts(ctx, res.Alerts)

	if c.publisher != nil && len(fresh.Analyses) > 0 {
		n, err := c.publisher.PublishDigest(ctx, fresh)
		res.Published = n
		if err != nil {
			return res, err
		}
	}

	c.last = until
	c.seen = window
	return res, nil
}

// dropSeen removes analyses of signals handled by an earlier pass. It also
// returns every id in d, which becomes the seen set once the pass succeeds.
func (c *Checker) dropSeen(d *impact.Digest) (*impact.Digest, map[string]bool) {
	out := &impact.Digest{Since: d.Since, Until: d.Until}
	window := make(map[string]bool, len(d.Analyses)+len(d.Unresolved))

	for _, a := range d.Analyses {
		if a.Signal == nil {
			out.Analyses = append(out.Analyses, a)
			continue
		}
		window[a.Signal.ID] = true
		if !c.seen[a.Signal.ID] {
			out.Analyses = append(out.Analyses, a)
		}
	}
	for _, id := range d.Unresolved {
		window[id] = true
		if !c.seen[id] {
			out.Unresolved = append(out.Unresolved, id)
		}
	}

	return out, window
}
