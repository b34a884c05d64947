package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/competitive-intel/internal/model"
)

func loadTestFixture(t *testing.T) *Fixture {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", "fixture.yaml"))
	require.NoError(t, err)
	return f
}

func TestLoadFixture(t *testing.T) {
	f := loadTestFixture(t)

	require.Len(t, f.Competitors, 2)
	assert.Equal(t, []string{"technology", "financial services"}, f.Competitors[0].TargetIndustries)

	require.Len(t, f.Customers, 3)
	northwind := f.Customers[0]
	assert.Equal(t, model.TierEnterprise, northwind.Tier)
	assert.Equal(t, time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC), northwind.RenewalDate)
	require.NotNil(t, northwind.ExposureTo("comp-acme"))
	assert.Equal(t, model.RiskTagHigh, northwind.ExposureTo("comp-acme").RiskTag)
	assert.Nil(t, f.Customers[2].Exposure)

	require.Len(t, f.Signals, 3)
	assert.Equal(t, model.SignalPricingChange, f.Signals[0].Type)
	assert.NotEmpty(t, f.Signals[2].ID, "missing ids are generated")
}

func TestLoadFixture_MissingFile(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read fixture")
}

func TestParseFixture_NormalizesTierAndRiskTag(t *testing.T) {
	f, err := ParseFixture([]byte(`
competitors:
  - {id: a, name: A}
customers:
  - id: c1
    tier: " Enterprise"
    exposure:
      a: {calls_mentioned: 2, risk_tag: High}
`))
	require.NoError(t, err)
	require.Len(t, f.Customers, 1)
	assert.Equal(t, model.TierEnterprise, f.Customers[0].Tier)
	assert.Equal(t, model.RiskTagHigh, f.Customers[0].ExposureTo("a").RiskTag)
}

func TestParseFixture_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "competitors: [", "parse fixture"},
		{"duplicate competitor", `
competitors:
  - {id: a, name: A}
  - {id: a, name: B}`, "duplicate competitor a"},
		{"unknown exposure competitor", `
customers:
  - id: c1
    exposure:
      ghost: {calls_mentioned: 1, risk_tag: low}`, "exposure to unknown competitor ghost"},
		{"unknown signal type", `
competitors:
  - {id: a, name: A}
signals:
  - {id: s1, competitor_id: a, type: rebrand, detected_at: 2026-01-01T00:00:00Z}`, "unknown type rebrand"},
		{"signal without timestamp", `
competitors:
  - {id: a, name: A}
signals:
  - {id: s1, competitor_id: a, type: funding}`, "missing detected_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
