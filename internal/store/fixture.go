package store

import (
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/competitive-intel/internal/model"
)

// Fixture is a snapshot of reference data used for seeding and local runs.
type Fixture struct {
	Competitors []model.Competitor `yaml:"competitors"`
	Customers   []model.Customer   `yaml:"customers"`
	Signals     []model.Signal     `yaml:"signals"`
}

// LoadFixture reads and validates a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: read fixture %s", path)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, eris.Wrapf(err, "store: fixture %s", path)
	}
	return f, nil
}

// ParseFixture decodes YAML fixture data. Tiers and risk tags are
// lower-cased, and signals without an id are
// assigned a random one.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "store: parse fixture")
	}
	for i := range f.Customers {
		c := &f.Customers[i]
		c.Tier = model.NormalizeTier(string(c.Tier))
		for _, exp := range c.Exposure {
			if exp != nil {
				exp.RiskTag = model.NormalizeRiskTag(string(exp.RiskTag))
			}
		}
	}
	for i := range f.Signals {
		if strings.TrimSpace(f.Signals[i].ID) == "" {
			f.Signals[i].ID = uuid.NewString()
		}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks identifiers and references. Customer attribute ranges are
// not checked here; malformed customers are reported at analysis time.
func (f *Fixture) Validate() error {
	var problems []string

	competitors := make(map[string]bool, len(f.Competitors))
	for i, c := range f.Competitors {
		switch {
		case c.ID == "":
			problems = append(problems, "competitors["+itoa(i)+"]: missing id")
		case competitors[c.ID]:
			problems = append(problems, "duplicate competitor "+c.ID)
		}
		competitors[c.ID] = true
	}

	customers := make(map[string]bool, len(f.Customers))
	for i, c := range f.Customers {
		switch {
		case c.ID == "":
			problems = append(problems, "customers["+itoa(i)+"]: missing id")
		case customers[c.ID]:
			problems = append(problems, "duplicate customer "+c.ID)
		}
		customers[c.ID] = true
		for compID, exp := range c.Exposure {
			if !competitors[compID] {
				problems = append(problems, "customer "+c.ID+": exposure to unknown competitor "+compID)
			}
			if exp == nil {
				problems = append(problems, "customer "+c.ID+": empty exposure to "+compID)
			}
		}
	}

	for _, s := range f.Signals {
		if !competitors[s.CompetitorID] {
			problems = append(problems, "signal "+s.ID+": unknown competitor "+s.CompetitorID)
		}
		if !s.Type.Valid() {
			problems = append(problems, "signal "+s.ID+": unknown type "+string(s.Type))
		}
		if s.DetectedAt.IsZero() {
			problems = append(problems, "signal "+s.ID+": missing detected_at")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("store: invalid fixture: %s", strings.Join(problems, "; "))
	}
	return nil
}

// exposureRows flattens customer exposure maps into (customer, competitor)
// rows in a deterministic order.
func (f *Fixture) exposureRows() []exposureRow {
	var rows []exposureRow
	for _, c := range f.Customers {
		for _, compID := range sortedKeys(c.Exposure) {
			if c.Exposure[compID] == nil {
				continue
			}
			rows = append(rows, exposureRow{customerID: c.ID, competitorID: compID, exposure: *c.Exposure[compID]})
		}
	}
	return rows
}

type exposureRow struct {
	customerID   string
	competitorID string
	exposure     model.CustomerExposure
}
