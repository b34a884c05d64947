package impact

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/competitive-intel/internal/config"
	"github.com/sells-group/competitive-intel/internal/model"
	"github.com/sells-group/competitive-intel/internal/store"
)

// Request is an impact analysis trigger as received from a caller.
type Request struct {
	CompetitorID string   `json:"competitor_id"`
	SignalType   string   `json:"signal_type"`
	Segment      string   `json:"segment,omitempty"`
	Tiers        []string `json:"tiers,omitempty"`
	Industry     string   `json:"industry,omitempty"`
}

// Validate checks required fields and parses enumerated values.
func (r Request) Validate() (model.SignalType, Filters, error) {
	var problems []string

	if strings.TrimSpace(r.CompetitorID) == "" {
		problems = append(problems, "competitorId is required")
	}

	var signalType model.SignalType
	if strings.TrimSpace(r.SignalType) == "" {
		problems = append(problems, "signalType is required")
	} else {
		st, err := model.ParseSignalType(r.SignalType)
		if err != nil {
			problems = append(problems, "signalType "+quote(r.SignalType)+" is not supported")
		}
		signalType = st
	}

	filters, tierProblems := parseFilters(r.Segment, r.Tiers, r.Industry)
	problems = append(problems, tierProblems...)

	if len(problems) > 0 {
		return "", Filters{}, &ValidationError{Fields: problems}
	}
	return signalType, filters, nil
}

// ParseFilters builds eligibility filters from raw caller input.
func ParseFilters(segment string, tiers []string, industry string) (Filters, error) {
	filters, problems := parseFilters(segment, tiers, industry)
	if len(problems) > 0 {
		return Filters{}, &ValidationError{Fields: problems}
	}
	return filters, nil
}

func parseFilters(segment string, tiers []string, industry string) (Filters, []string) {
	var problems []string
	filters := Filters{Segment: segment, Industry: industry}
	for _, raw := range tiers {
		tier, err := model.ParseTier(raw)
		if err != nil {
			problems = append(problems, "tier "+quote(raw)+" is not supported")
			continue
		}
		filters.Tiers = append(filters.Tiers, tier)
	}
	return filters, problems
}

func quote(s string) string {
	return `"` + s + `"`
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock overrides the clock used for renewal proximity.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// Analyzer runs the eligibility, scoring, urgency and action pipeline for a
// competitor signal against the customer population.
type Analyzer struct {
	competitors store.CompetitorRepository
	customers   store.CustomerRepository
	signals     store.SignalRepository
	cfg         config.ImpactConfig
	now         func() time.Time
}

// NewAnalyzer creates an Analyzer. signals may be nil when only direct
// analysis is needed.
func NewAnalyzer(competitors store.CompetitorRepository, customers store.CustomerRepository, signals store.SignalRepository, cfg config.ImpactConfig, opts ...Option) *Analyzer {
	a := &Analyzer{
		competitors: competitors,
		customers:   customers,
		signals:     signals,
		cfg:         cfg,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze validates req, loads the competitor and customer population, and
// returns every eligible customer's impact sorted by descending score.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*model.Analysis, error) {
	signalType, filters, err := req.Validate()
	if err != nil {
		return nil, err
	}

	competitor, customers, err := a.load(ctx, req.CompetitorID)
	if err != nil {
		return nil, err
	}

	return a.run(ctx, *competitor, signalType, filters, customers)
}

// AnalyzeSignal resolves a stored signal and analyzes its impact.
func (a *Analyzer) AnalyzeSignal(ctx context.Context, signalID string, filters Filters) (*model.Analysis, error) {
	if strings.TrimSpace(signalID) == "" {
		return nil, &ValidationError{Fields: []string{"signalId is required"}}
	}
	if a.signals == nil {
		return nil, eris.New("impact: no signal repository configured")
	}

	sig, err := a.signals.GetSignal(ctx, signalID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Kind: "signal", ID: signalID}
		}
		return nil, &StoreError{Op: "get signal", Err: err}
	}

	competitor, customers, err := a.load(ctx, sig.CompetitorID)
	if err != nil {
		return nil, err
	}

	analysis, err := a.run(ctx, *competitor, sig.Type, filters, customers)
	if err != nil {
		return nil, err
	}
	analysis.Signal = sig
	return analysis, nil
}

// load fetches the competitor and customer population concurrently. An
// unknown competitor is reported ahead of any customer fetch failure.
func (a *Analyzer) load(ctx context.Context, competitorID string) (*model.Competitor, []model.Customer, error) {
	var (
		competitor    *model.Competitor
		customers     []model.Customer
		competitorErr error
		customerErr   error
	)

	var g errgroup.Group
	g.Go(func() error {
		competitor, competitorErr = a.competitors.GetCompetitor(ctx, competitorID)
		return nil
	})
	g.Go(func() error {
		customers, customerErr = a.customers.ListCustomersWithExposure(ctx, competitorID)
		return nil
	})
	_ = g.Wait()

	if competitorErr != nil {
		if eris.Is(competitorErr, store.ErrNotFound) {
			return nil, nil, &NotFoundError{Kind: "competitor", ID: competitorID}
		}
		return nil, nil, &StoreError{Op: "get competitor", Err: competitorErr}
	}
	if customerErr != nil {
		return nil, nil, &StoreError{Op: "list customers", Err: customerErr}
	}
	return competitor, customers, nil
}

// evaluation is the per-customer outcome of scoring.
type evaluation struct {
	result  model.ImpactResult
	skipped string
}

func (a *Analyzer) run(ctx context.Context, competitor model.Competitor, signalType model.SignalType, filters Filters, customers []model.Customer) (*model.Analysis, error) {
	eligible := Select(customers, competitor, filters)
	scorer := NewScorer(a.cfg, a.now)

	evals := make([]evaluation, len(eligible))
	evaluate := func(i int) {
		c := eligible[i]
		if reason := ValidateRecord(c, competitor.ID); reason != "" {
			evals[i] = evaluation{skipped: reason}
			return
		}
		evals[i] = evaluation{result: a.evaluate(scorer, c, competitor.ID, signalType)}
	}

	if a.cfg.Workers > 1 && len(eligible) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.cfg.Workers)
		for i := range eligible {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				evaluate(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, eris.Wrap(err, "impact: score customers")
		}
	} else {
		for i := range eligible {
			evaluate(i)
		}
	}

	analysis := &model.Analysis{
		ID:          uuid.NewString(),
		Competitor:  competitor,
		SignalType:  signalType,
		Results:     make([]model.ImpactResult, 0, len(eligible)),
		GeneratedAt: a.now().UTC(),
	}
	for i, ev := range evals {
		if ev.skipped != "" {
			analysis.Skipped = append(analysis.Skipped, model.SkippedCustomer{
				CustomerID: eligible[i].ID,
				Reason:     ev.skipped,
			})
			zap.L().Warn("impact: skipping malformed customer record",
				zap.String("customer_id", eligible[i].ID),
				zap.String("competitor_id", competitor.ID),
				zap.String("reason", ev.skipped),
			)
			continue
		}
		analysis.Results = append(analysis.Results, ev.result)
	}

	sort.SliceStable(analysis.Results, func(i, j int) bool {
		return analysis.Results[i].ImpactScore > analysis.Results[j].ImpactScore
	})
	analysis.Summary = Summarize(analysis.Results)

	zap.L().Info("impact: analysis complete",
		zap.String("analysis_id", analysis.ID),
		zap.String("competitor_id", competitor.ID),
		zap.String("signal_type", string(signalType)),
		zap.Int("population", len(customers)),
		zap.Int("eligible", len(eligible)),
		zap.Int("affected", len(analysis.Results)),
		zap.Int("skipped", len(analysis.Skipped)),
	)

	return analysis, nil
}

func (a *Analyzer) evaluate(scorer *Scorer, c model.Customer, competitorID string, signalType model.SignalType) model.ImpactResult {
	score := scorer.Score(c, signalType, *c.ExposureTo(competitorID))
	return model.ImpactResult{
		Customer:           c,
		ImpactScore:        score.Total,
		RawScore:           score.Raw,
		RiskLevel:          scorer.RiskLevel(score.Total),
		Urgency:            ClassifyUrgency(a.cfg, c, score.Total),
		RecommendedActions: Recommend(a.cfg, c, signalType, score),
		DaysToRenewal:      score.DaysToRenewal,
		RenewalWindow:      score.RenewalWindow,
		Components:         score.Components,
	}
}

// Summarize counts results per risk level and totals their account value.
func Summarize(results []model.ImpactResult) model.Summary {
	var s model.Summary
	for _, r := range results {
		switch r.RiskLevel {
		case model.RiskLevelCritical:
			s.CriticalRisk++
		case model.RiskLevelHigh:
			s.HighRisk++
		case model.RiskLevelMedium:
			s.MediumRisk++
		}
		s.TotalAccountValueAtRisk += r.Customer.AccountValue
	}
	return s
}

// ValidateRecord returns a reason when an eligible customer's record cannot
// be scored, or "" when it is well formed.
func ValidateRecord(c model.Customer, competitorID string) string {
	exp := c.ExposureTo(competitorID)
	switch {
	case exp == nil:
		return "no exposure record"
	case exp.CallsMentioned < 0:
		return "calls_mentioned must be >= 0"
	case !exp.RiskTag.Valid():
		return "unknown risk tag " + quote(string(exp.RiskTag))
	case !c.Tier.Valid():
		return "unknown tier " + quote(string(c.Tier))
	case math.IsNaN(c.AccountValue) || c.AccountValue < 0:
		return "account_value must be >= 0"
	case math.IsNaN(c.EngagementScore) || c.EngagementScore < 0 || c.EngagementScore > 100:
		return "engagement_score must be between 0 and 100"
	case c.RenewalDate.IsZero():
		return "renewal_date is missing"
	default:
		return ""
	}
}
