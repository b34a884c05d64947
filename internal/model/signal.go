package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// SignalType identifies the kind of competitive event a signal reports.
type SignalType string

const (
	SignalPricingChange   SignalType = "pricing_change"
	SignalFeatureLaunch   SignalType = "feature_launch"
	SignalAcquisition     SignalType = "acquisition"
	SignalPartnership     SignalType = "partnership"
	SignalFunding         SignalType = "funding"
	SignalExecutiveChange SignalType = "executive_change"
)

// AllSignalTypes returns every supported signal type in display order.
func AllSignalTypes() []SignalType {
	return []SignalType{
		SignalPricingChange,
		SignalFeatureLaunch,
		SignalAcquisition,
		SignalPartnership,
		SignalFunding,
		SignalExecutiveChange,
	}
}

// Valid reports whether t is one of the known signal types.
func (t SignalType) Valid() bool {
	switch t {
	case SignalPricingChange, SignalFeatureLaunch, SignalAcquisition,
		SignalPartnership, SignalFunding, SignalExecutiveChange:
		return true
	}
	return false
}

// ParseSignalType converts a raw string into a SignalType.
func ParseSignalType(s string) (SignalType, error) {
	t := SignalType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", eris.Errorf("model: unknown signal type %q", s)
	}
	return t, nil
}

// Competitor is a tracked competitor and the market it sells into.
type Competitor struct {
	ID                      string   `json:"id" yaml:"id"`
	Name                    string   `json:"name" yaml:"name"`
	TargetIndustries        []string `json:"target_industries" yaml:"target_industries"`
	TypicalCustomerSegments []string `json:"typical_customer_segments" yaml:"typical_customer_segments"`
}

// Signal is a detected event about a competitor. Signals are append-only.
type Signal struct {
	ID           string     `json:"id" yaml:"id"`
	CompetitorID string     `json:"competitor_id" yaml:"competitor_id"`
	Type         SignalType `json:"type" yaml:"type"`
	Title        string     `json:"title,omitempty" yaml:"title"`
	Summary      string     `json:"summary,omitempty" yaml:"summary"`
	SourceURL    string     `json:"source_url,omitempty" yaml:"source_url"`
	DetectedAt   time.Time  `json:"detected_at" yaml:"detected_at"`
}
