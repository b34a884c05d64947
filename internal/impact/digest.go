package impact

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/competitive-intel/internal/model"
	"github.com/sells-group/competitive-intel/internal/store"
)

// DigestRequest selects the signals to analyze in one monitoring pass.
type DigestRequest struct {
	Since        time.Time
	Until        time.Time
	CompetitorID string
	Types        []model.SignalType
	Filters      Filters
	Limit        int
}

// Digest is the per-signal impact of every signal detected in a window.
type Digest struct {
	Since    time.Time        `json:"since"`
	Until    time.Time        `json:"until"`
	Analyses []model.Analysis `json:"analyses"`
	// Unresolved lists signal IDs whose competitor could not be found.
	Unresolved []string `json:"unresolved,omitempty"`
}

// TotalAffected sums affected customers across all analyses.
func (d *Digest) TotalAffected() int {
	n := 0
	for i := range d.Analyses {
		n += d.Analyses[i].TotalAffected()
	}
	return n
}

// Digest analyzes each signal in the window, newest first. Competitors and
// customer populations are loaded once per competitor. When Since is zero
// the window defaults to DigestWindowHours before Until.
func (a *Analyzer) Digest(ctx context.Context, req DigestRequest) (*Digest, error) {
	if a.signals == nil {
		return nil, eris.New("impact: no signal repository configured")
	}

	until := req.Until
	if until.IsZero() {
		until = a.now()
	}
	since := req.Since
	if since.IsZero() {
		since = until.Add(-time.Duration(a.cfg.DigestWindowHours) * time.Hour)
	}
	if since.After(until) {
		return nil, &ValidationError{Fields: []string{"since must not be after until"}}
	}

	signals, err := a.signals.ListSignals(ctx, store.SignalFilter{
		CompetitorID: req.CompetitorID,
		Types:        req.Types,
		Since:        since,
		Until:        until,
		Limit:        req.Limit,
	})
	if err != nil {
		return nil, &StoreError{Op: "list signals", Err: err}
	}

	type population struct {
		competitor *model.Competitor
		customers  []model.Customer
	}
	cache := make(map[string]*population)

	digest := &Digest{
		Since:    since.UTC(),
		Until:    until.UTC(),
		Analyses: make([]model.Analysis, 0, len(signals)),
	}

	for i := range signals {
		sig := signals[i]
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "impact: digest canceled")
		}

		pop, ok := cache[sig.CompetitorID]
		if !ok {
			competitor, customers, err := a.load(ctx, sig.CompetitorID)
			switch {
			case IsNotFound(err):
				pop = nil
			case err != nil:
				return nil, err
			default:
				pop = &population{competitor: competitor, customers: customers}
			}
			cache[sig.CompetitorID] = pop
		}
		if pop == nil {
			zap.L().Warn("impact: signal references unknown competitor",
				zap.String("signal_id", sig.ID),
				zap.String("competitor_id", sig.CompetitorID),
			)
			digest.Unresolved = append(digest.Unresolved, sig.ID)
			continue
		}

		analysis, err := a.run(ctx, *pop.competitor, sig.Type, req.Filters, pop.customers)
		if err != nil {
			return nil, err
		}
		analysis.Signal = &sig
		digest.Analyses = append(digest.Analyses, *analysis)
	}

	zap.L().Info("impact: digest complete",
		zap.Time("since", digest.Since),
		zap.Time("until", digest.Until),
		zap.Int("signals", len(signals)),
		zap.Int("unresolved", len(digest.Unresolved)),
		zap.Int("affected", digest.TotalAffected()),
	)

	return digest, nil
}
