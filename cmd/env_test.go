package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/competitive-intel/internal/config"
	"github.com/sells-group/competitive-intel/internal/crm"
	"github.com/sells-group/competitive-intel/internal/impact"
	"github.com/sells-group/competitive-intel/internal/model"
	"github.com/sells-group/competitive-intel/internal/store"
)

const fixturePath = "../internal/store/testdata/fixture.yaml"

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// useFixtureConfig points the package config at the YAML fixture for the
// duration of the test.
func useFixtureConfig(t *testing.T) {
	t.Helper()
	prev := cfg
	cfg = &config.Config{
		Store:     config.StoreConfig{Driver: "fixture", FixturePath: fixturePath},
		Directory: config.DirectoryConfig{Customers: "store", Competitors: "store"},
		Impact:    impact.DefaultImpactConfig(),
		Server:    config.ServerConfig{Port: 8080, CORSOrigins: []string{"*"}},
	}
	t.Cleanup(func() { cfg = prev })
}

func fixtureEnv(t *testing.T) *appEnv {
	t.Helper()
	useFixtureConfig(t)
	env, err := initEnv(context.Background(), impact.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	t.Cleanup(env.Close)
	return env
}

func TestInitEnv_Fixture(t *testing.T) {
	env := fixtureEnv(t)

	_, ok := env.Store.(*store.MemoryStore)
	assert.True(t, ok)
	assert.Same(t, env.Store, env.Competitors)
	assert.Same(t, env.Store, env.Customers)
	assert.NotNil(t, env.Analyzer)
}

func TestInitEnv_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   string
	}{
		{"unknown driver", func(c *config.Config) { c.Store.Driver = "mongo" }, `unsupported store driver "mongo"`},
		{"fixture without path", func(c *config.Config) { c.Store.FixturePath = "" }, "store.fixture_path"},
		{"unknown customer directory", func(c *config.Config) { c.Directory.Customers = "hubspot" }, "unsupported customer directory"},
		{"salesforce without creds", func(c *config.Config) { c.Directory.Customers = "salesforce" }, "salesforce.client_id"},
		{"notion without creds", func(c *config.Config) { c.Directory.Competitors = "notion" }, "notion.token"},
		{"bad impact config", func(c *config.Config) { c.Impact.MaxScore = 0 }, "max_score"},
		{"missing fixture file", func(c *config.Config) { c.Store.FixturePath = "testdata/nope.yaml" }, "read fixture"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useFixtureConfig(t)
			tt.mutate(cfg)

			_, err := initEnv(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInitCompetitors_Notion(t *testing.T) {
	useFixtureConfig(t)
	cfg.Directory.Competitors = "notion"
	cfg.Notion = config.NotionConfig{Token: "secret", CompetitorDB: "db-1", RateLimit: 3}

	repo, err := initCompetitors(store.NewMemoryStore(nil))
	require.NoError(t, err)
	assert.IsType(t, &crm.NotionRegistry{}, repo)
}

func TestInitSalesforce_MissingKey(t *testing.T) {
	useFixtureConfig(t)
	cfg.Salesforce = config.SalesforceConfig{
		ClientID: "cid",
		Username: "svc@example.com",
		KeyPath:  filepath.Join(t.TempDir(), "missing.pem"),
	}

	_, err := initSalesforce()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read salesforce JWT private key")
}

func TestRunAnalyze_Table(t *testing.T) {
	env := fixtureEnv(t)

	var out bytes.Buffer
	err := runAnalyze(context.Background(), env.Analyzer, &out, analyzeOptions{
		competitor: "comp-acme",
		signalType: "pricing_change",
		format:     "table",
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Acme Analytics (comp-acme)")
	assert.Contains(t, out.String(), "cust-northwind")
	assert.Contains(t, out.String(), "cust-contoso")
	assert.NotContains(t, out.String(), "cust-fabrikam")
}

func TestRunAnalyze_StoredSignalJSON(t *testing.T) {
	env := fixtureEnv(t)

	var out bytes.Buffer
	err := runAnalyze(context.Background(), env.Analyzer, &out, analyzeOptions{
		signalID: "sig-acme-launch",
		tiers:    []string{"enterprise"},
		format:   "json",
	})
	require.NoError(t, err)

	var got model.Analysis
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, model.SignalFeatureLaunch, got.SignalType)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "cust-northwind", got.Results[0].Customer.ID)
}

func TestRunAnalyze_Errors(t *testing.T) {
	env := fixtureEnv(t)

	tests := []struct {
		name string
		opts analyzeOptions
		want string
	}{
		{"bad format", analyzeOptions{competitor: "comp-acme", signalType: "funding", format: "pdf"}, "unknown format"},
		{"missing signal", analyzeOptions{competitor: "comp-acme"}, "signalType is required"},
		{"unknown competitor", analyzeOptions{competitor: "comp-nope", signalType: "funding"}, "comp-nope"},
		{"conflicting flags", analyzeOptions{signalID: "sig-acme-launch", competitor: "comp-acme"}, "cannot be combined"},
		{"xlsx to stdout", analyzeOptions{competitor: "comp-acme", signalType: "funding", format: "xlsx"}, "requires --output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runAnalyze(context.Background(), env.Analyzer, &bytes.Buffer{}, tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunAnalyze_XLSXFile(t *testing.T) {
	env := fixtureEnv(t)
	path := filepath.Join(t.TempDir(), "acme.xlsx")

	var out bytes.Buffer
	err := runAnalyze(context.Background(), env.Analyzer, &out, analyzeOptions{
		competitor: "comp-acme",
		signalType: "acquisition",
		format:     "xlsx",
		output:     path,
	})
	require.NoError(t, err)
	assert.Empty(t, out.String())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunSignals(t *testing.T) {
	env := fixtureEnv(t)

	var out bytes.Buffer
	err := runSignals(context.Background(), env.Store, &out, signalsOptions{competitor: "comp-acme", limit: 50}, testNow)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "sig-acme-pricing")
	assert.Contains(t, out.String(), "sig-acme-launch")
	assert.NotContains(t, out.String(), "comp-birch")

	out.Reset()
	err = runSignals(context.Background(), env.Store, &out, signalsOptions{since: "72h", json: true}, testNow)
	require.NoError(t, err)
	var got []model.Signal
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "sig-acme-pricing", got[0].ID)

	out.Reset()
	err = runSignals(context.Background(), env.Store, &out, signalsOptions{competitor: "comp-none"}, testNow)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No signals found.")
}

func TestSignalFilter(t *testing.T) {
	f, err := signalFilter("comp-acme", []string{"funding", "Pricing_Change"}, "2026-02-01", 10, testNow)
	require.NoError(t, err)
	assert.Equal(t, "comp-acme", f.CompetitorID)
	assert.Equal(t, []model.SignalType{model.SignalFunding, model.SignalPricingChange}, f.Types)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), f.Since)
	assert.Equal(t, 10, f.Limit)

	_, err = signalFilter("", []string{"rebrand"}, "", 0, testNow)
	assert.Error(t, err)
	_, err = signalFilter("", nil, "last week", 0, testNow)
	assert.Error(t, err)
	_, err = signalFilter("", nil, "-2h", 0, testNow)
	assert.Error(t, err)
	_, err = signalFilter("", nil, "", -1, testNow)
	assert.Error(t, err)
}

func TestParseSince(t *testing.T) {
	got, err := parseSince("24h", testNow)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(-24*time.Hour), got)

	got, err = parseSince("2026-03-01T09:00:00+02:00", testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC), got)
}

func TestRunMonitor(t *testing.T) {
	env := fixtureEnv(t)

	var out bytes.Buffer
	digest, err := runMonitor(context.Background(), env.Analyzer, &out, monitorOptions{since: "240h", format: "table"}, testNow)
	require.NoError(t, err)

	require.Len(t, digest.Analyses, 3)
	assert.Equal(t, "sig-acme-pricing", digest.Analyses[0].Signal.ID)
	assert.Contains(t, out.String(), "Acme launches forecasting module")
	assert.Contains(t, out.String(), "Birch raises Series C")

	_, err = runMonitor(context.Background(), env.Analyzer, &bytes.Buffer{}, monitorOptions{tiers: []string{"gold"}}, testNow)
	require.Error(t, err)
	assert.True(t, impact.IsValidation(err))
}

func TestRunSeed_SQLite(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "intel.db"))
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	require.NoError(t, runSeed(ctx, st, fixturePath))

	competitors, err := st.ListCompetitors(ctx)
	require.NoError(t, err)
	assert.Len(t, competitors, 2)

	signals, err := st.ListSignals(ctx, store.SignalFilter{})
	require.NoError(t, err)
	assert.Len(t, signals, 3)

	// Seeding twice upserts rather than duplicating.
	require.NoError(t, runSeed(ctx, st, fixturePath))
	competitors, err = st.ListCompetitors(ctx)
	require.NoError(t, err)
	assert.Len(t, competitors, 2)
}

func TestRunSeed_BadFixture(t *testing.T) {
	st := store.NewMemoryStore(nil)
	err := runSeed(context.Background(), st, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestNewChecker(t *testing.T) {
	env := fixtureEnv(t)

	checker, err := newChecker(env)
	require.NoError(t, err)
	assert.NotNil(t, checker)

	cfg.Monitoring.PublishToNotion = true
	_, err = newChecker(env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion.alert_db")
}
