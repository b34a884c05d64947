package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/competitive-intel/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func ptr[T any](v T) *T { return &v }

func TestPostgresStore_GetCompetitor(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, target_industries, customer_segments FROM intel.competitors WHERE id = \$1`).
		WithArgs("comp-acme").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "target_industries", "customer_segments"}).
			AddRow("comp-acme", "Acme Analytics", []string{"technology"}, []string{"enterprise", "growth"}))

	c, err := s.GetCompetitor(context.Background(), "comp-acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Analytics", c.Name)
	assert.Equal(t, []string{"enterprise", "growth"}, c.TypicalCustomerSegments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCompetitor_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM intel.competitors WHERE id = \$1`).
		WithArgs("comp-nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetCompetitor(context.Background(), "comp-nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCompetitor_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM intel.competitors WHERE id = \$1`).
		WithArgs("comp-acme").
		WillReturnError(fmt.Errorf("connection reset"))

	_, err := s.GetCompetitor(context.Background(), "comp-acme")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "get competitor comp-acme")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCompetitors(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM intel.competitors ORDER BY name, id`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "target_industries", "customer_segments"}).
			AddRow("comp-acme", "Acme Analytics", []string{"technology"}, []string{"enterprise"}).
			AddRow("comp-birch", "Birch Metrics", []string{"healthcare"}, []string{"smb"}))

	got, err := s.ListCompetitors(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "comp-birch", got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCustomersWithExposure(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	renewal := time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC)

	cols := []string{
		"id", "company_name", "industry", "segment", "tier",
		"account_value", "engagement_score", "renewal_date",
		"calls_mentioned", "considered_alternative", "risk_tag",
	}
	mock.ExpectQuery(`LEFT JOIN intel.customer_exposures e ON e.customer_id = c.id AND e.competitor_id = \$1`).
		WithArgs("comp-acme").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("cust-fabrikam", "Fabrikam", "healthcare", "smb", "standard",
				15000.0, 88.0, ptr(renewal),
				(*int)(nil), (*bool)(nil), (*string)(nil)).
			AddRow("cust-northwind", "Northwind", "technology", "enterprise", " Enterprise",
				120000.0, 40.0, ptr(renewal),
				ptr(3), ptr(true), ptr("High")))

	got, err := s.ListCustomersWithExposure(context.Background(), "comp-acme")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Nil(t, got[0].Exposure)
	assert.Equal(t, model.TierStandard, got[0].Tier)

	nw := got[1]
	assert.Equal(t, model.TierEnterprise, nw.Tier)
	assert.Equal(t, renewal, nw.RenewalDate)
	require.NotNil(t, nw.ExposureTo("comp-acme"))
	assert.Equal(t, model.CustomerExposure{CallsMentioned: 3, ConsideredAlternative: true, RiskTag: model.RiskTagHigh}, *nw.ExposureTo("comp-acme"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCustomers_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM intel.customers c`).
		WithArgs("comp-acme").
		WillReturnError(fmt.Errorf("timeout"))

	_, err := s.ListCustomersWithExposure(context.Background(), "comp-acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list customers for comp-acme")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSignal_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM intel.signals WHERE id = \$1`).
		WithArgs("sig-x").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetSignal(context.Background(), "sig-x")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSignals(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	detected := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE competitor_id = \$1 AND type = ANY\(\$2\) AND detected_at >= \$3 ORDER BY detected_at DESC, id LIMIT \$4`).
		WithArgs("comp-acme", []string{"pricing_change"}, since, 25).
		WillReturnRows(pgxmock.NewRows([]string{"id", "competitor_id", "type", "title", "summary", "source_url", "detected_at"}).
			AddRow("sig-1", "comp-acme", "pricing_change", "Price cut", "", "https://example.com", detected))

	got, err := s.ListSignals(context.Background(), SignalFilter{
		CompetitorID: "comp-acme",
		Types:        []model.SignalType{model.SignalPricingChange},
		Since:        since,
		Limit:        25,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.SignalPricingChange, got[0].Type)
	assert.Equal(t, detected, got[0].DetectedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildSignalQuery_NoFilter(t *testing.T) {
	query, args := buildSignalQuery(SignalFilter{})
	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, "LIMIT $1")
	assert.Equal(t, []any{defaultSignalLimit}, args)
}

func TestPostgresStore_Seed(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	f := &Fixture{
		Competitors: []model.Competitor{{ID: "comp-acme", Name: "Acme"}},
		Customers: []model.Customer{{
			ID: "cust-1", CompanyName: "Northwind", Tier: model.TierEnterprise,
			Exposure: map[string]*model.CustomerExposure{"comp-acme": {CallsMentioned: 1, RiskTag: model.RiskTagLow}},
		}},
	}

	for _, table := range []struct {
		temp string
		cols []string
	}{
		{"_tmp_upsert_intel_competitors", []string{"id", "name", "target_industries", "customer_segments"}},
		{"_tmp_upsert_intel_customers", []string{"id", "company_name", "industry", "segment", "tier", "account_value", "engagement_score", "renewal_date"}},
		{"_tmp_upsert_intel_customer_exposures", []string{"customer_id", "competitor_id", "calls_mentioned", "considered_alternative", "risk_tag"}},
	} {
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectCopyFrom(pgx.Identifier{table.temp}, table.cols).WillReturnResult(1)
		mock.ExpectExec("INSERT INTO").WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()
	}

	require.NoError(t, s.Seed(context.Background(), f))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec("SELECT pg_advisory_lock").WithArgs(pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(`SELECT filename FROM "intel"."schema_migrations"`).
		WillReturnRows(pgxmock.NewRows([]string{"filename"}).AddRow("001_init.sql"))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS intel.signals").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO").WithArgs("002_signals.sql").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("SELECT pg_advisory_unlock").WithArgs(pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("SELECT", 1))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
