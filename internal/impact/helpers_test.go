package impact

import (
	"context"
	"time"

	"github.com/sells-group/competitive-intel/internal/model"
	"github.com/sells-group/competitive-intel/internal/store"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func inDays(n int) time.Time {
	return testNow.Add(time.Duration(n) * 24 * time.Hour)
}

func acme() model.Competitor {
	return model.Competitor{
		ID:                      "comp-acme",
		Name:                    "Acme Analytics",
		TargetIndustries:        []string{"technology"},
		TypicalCustomerSegments: []string{"enterprise", "growth"},
	}
}

// customerA is the reference high-risk account: every factor at its maximum.
func customerA() model.Customer {
	return model.Customer{
		ID:              "cust-a",
		CompanyName:     "Northwind",
		Industry:        "technology",
		Segment:         "enterprise",
		Tier:            model.TierEnterprise,
		AccountValue:    120_000,
		EngagementScore: 40,
		RenewalDate:     inDays(20),
		Exposure: map[string]*model.CustomerExposure{
			"comp-acme": {CallsMentioned: 3, ConsideredAlternative: true, RiskTag: model.RiskTagHigh},
		},
	}
}

func quietCustomer(id string) model.Customer {
	return model.Customer{
		ID:              id,
		CompanyName:     "Quiet " + id,
		Industry:        "technology",
		Segment:         "growth",
		Tier:            model.TierStandard,
		AccountValue:    10_000,
		EngagementScore: 90,
		RenewalDate:     inDays(365),
		Exposure: map[string]*model.CustomerExposure{
			"comp-acme": {CallsMentioned: 0, RiskTag: model.RiskTagLow},
		},
	}
}

type fakeRepos struct {
	getCompetitorFn func(ctx context.Context, id string) (*model.Competitor, error)
	listCustomersFn func(ctx context.Context, competitorID string) ([]model.Customer, error)
	getSignalFn     func(ctx context.Context, id string) (*model.Signal, error)
	listSignalsFn   func(ctx context.Context, filter store.SignalFilter) ([]model.Signal, error)

	customerCalls int
}

func (f *fakeRepos) GetCompetitor(ctx context.Context, id string) (*model.Competitor, error) {
	return f.getCompetitorFn(ctx, id)
}

func (f *fakeRepos) ListCompetitors(_ context.Context) ([]model.Competitor, error) {
	return nil, nil
}

func (f *fakeRepos) ListCustomersWithExposure(ctx context.Context, competitorID string) ([]model.Customer, error) {
	f.customerCalls++
	return f.listCustomersFn(ctx, competitorID)
}

func (f *fakeRepos) GetSignal(ctx context.Context, id string) (*model.Signal, error) {
	return f.getSignalFn(ctx, id)
}

func (f *fakeRepos) ListSignals(ctx context.Context, filter store.SignalFilter) ([]model.Signal, error) {
	return f.listSignalsFn(ctx, filter)
}

func reposWith(competitors []model.Competitor, customers []model.Customer) *fakeRepos {
	return &fakeRepos{
		getCompetitorFn: func(_ context.Context, id string) (*model.Competitor, error) {
			for i := range competitors {
				if competitors[i].ID == id {
					c := competitors[i]
					return &c, nil
				}
			}
			return nil, store.ErrNotFound
		},
		listCustomersFn: func(_ context.Context, _ string) ([]model.Customer, error) {
			return customers, nil
		},
	}
}

func newTestAnalyzer(repos *fakeRepos) *Analyzer {
	return NewAnalyzer(repos, repos, repos, DefaultImpactConfig(), WithClock(fixedClock))
}
