// Package crm adapts external systems of record to the repositories the
// impact analyzer reads from: Salesforce for customers and Notion for the
// competitor registry and published alerts.
package crm

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/competitive-intel/internal/model"
	"github.com/sells-group/competitive-intel/internal/resilience"
	"github.com/sells-group/competitive-intel/internal/store"
	"github.com/sells-group/competitive-intel/pkg/salesforce"
)

const renewalDateLayout = "2006-01-02"

// SalesforceDirectory reads the customer population from Salesforce
// Accounts and their Competitor_Exposure__c records.
type SalesforceDirectory struct {
	client salesforce.Client
	guard  *resilience.Guard
}

var _ store.CustomerRepository = (*SalesforceDirectory)(nil)

// NewSalesforceDirectory creates a directory. A nil guard uses the default
// retry policy and breaker.
func NewSalesforceDirectory(client salesforce.Client, guard *resilience.Guard) *SalesforceDirectory {
	if guard == nil {
		guard = resilience.NewGuard("salesforce", resilience.DefaultPolicy(), nil)
	}
	return &SalesforceDirectory{client: client, guard: guard}
}

// Check verifies the org exposes every field the directory queries.
func (d *SalesforceDirectory) Check(ctx context.Context) error {
	_, err := resilience.Call(ctx, d.guard, "describe", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, salesforce.RequireFields(ctx, d.client, salesforce.RequiredFields())
	})
	return eris.Wrap(err, "crm: salesforce check")
}

// ListCustomersWithExposure loads accounts and the competitor's exposure
// records concurrently and joins them by account ID.
func (d *SalesforceDirectory) ListCustomersWithExposure(ctx context.Context, competitorID string) ([]model.Customer, error) {
	var (
		accounts  []salesforce.Account
		exposures []salesforce.CompetitorExposure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = resilience.Call(gctx, d.guard, "list accounts", func(ctx context.Context) ([]salesforce.Account, error) {
			return d.client.CustomerAccounts(ctx)
		})
		return err
	})
	g.Go(func() error {
		var err error
		exposures, err = resilience.Call(gctx, d.guard, "list exposures", func(ctx context.Context) ([]salesforce.CompetitorExposure, error) {
			return d.client.CompetitorExposures(ctx, competitorID)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrapf(err, "crm: list customers for %s", competitorID)
	}

	byAccount := make(map[string]*model.CustomerExposure, len(exposures))
	for _, e := range exposures {
		if _, dup := byAccount[e.AccountID]; dup {
			zap.L().Warn("crm: duplicate exposure record, keeping first",
				zap.String("account_id", e.AccountID),
				zap.String("record_id", e.ID),
			)
			continue
		}
		byAccount[e.AccountID] = toExposure(e)
	}

	customers := make([]model.Customer, 0, len(accounts))
	for _, a := range accounts {
		c := toCustomer(a)
		if exp, ok := byAccount[a.ID]; ok {
			c.Exposure = map[string]*model.CustomerExposure{competitorID: exp}
		}
		customers = append(customers, c)
	}

	zap.L().Debug("crm: loaded salesforce customers",
		zap.String("competitor_id", competitorID),
		zap.Int("accounts", len(accounts)),
		zap.Int("exposures", len(byAccount)),
	)
	return customers, nil
}

// toCustomer maps an Account without validating it. Records the analyzer
// cannot score are reported there as skipped.
func toCustomer(a salesforce.Account) model.Customer {
	c := model.Customer{
		ID:              a.ID,
		CompanyName:     a.Name,
		Industry:        strings.TrimSpace(a.Industry),
		Segment:         strings.TrimSpace(a.Segment),
		Tier:            model.NormalizeTier(a.Tier),
		AccountValue:    a.ContractValue,
		EngagementScore: a.EngagementScore,
	}
	if a.RenewalDate != "" {
		t, err := time.Parse(renewalDateLayout, a.RenewalDate)
		if err != nil {
			zap.L().Warn("crm: unparseable renewal date",
				zap.String("account_id", a.ID),
				zap.String("value", a.RenewalDate),
			)
		} else {
			c.RenewalDate = t
		}
	}
	return c
}

func toExposure(e salesforce.CompetitorExposure) *model.CustomerExposure {
	return &model.CustomerExposure{
		CallsMentioned:        int(math.Round(e.CallsMentioned)),
		ConsideredAlternative: e.ConsideredAlternative,
		RiskTag:               model.NormalizeRiskTag(e.RiskTag),
	}
}
