package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// RiskTag is the qualitative risk an account team has recorded for a
// customer against a specific competitor.
type RiskTag string

const (
	RiskTagLow    RiskTag = "low"
	RiskTagMedium RiskTag = "medium"
	RiskTagHigh   RiskTag = "high"
)

// Valid reports whether r is a known risk tag.
func (r RiskTag) Valid() bool {
	switch r {
	case RiskTagLow, RiskTagMedium, RiskTagHigh:
		return true
	}
	return false
}

// NormalizeRiskTag lower-cases and trims s without validating it.
func NormalizeRiskTag(s string) RiskTag {
	return RiskTag(strings.ToLower(strings.TrimSpace(s)))
}

// ParseRiskTag converts a raw string into a RiskTag.
func ParseRiskTag(s string) (RiskTag, error) {
	r := NormalizeRiskTag(s)
	if !r.Valid() {
		return "", eris.Errorf("model: unknown risk tag %q", s)
	}
	return r, nil
}

// Tier is the commercial tier of a customer account.
type Tier string

const (
	TierEnterprise   Tier = "enterprise"
	TierProfessional Tier = "professional"
	TierStandard     Tier = "standard"
)

// AllTiers returns every supported tier.
func AllTiers() []Tier {
	return []Tier{TierEnterprise, TierProfessional, TierStandard}
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierEnterprise, TierProfessional, TierStandard:
		return true
	}
	return false
}

// NormalizeTier lower-cases and trims s without validating it. Stored
// records keep unknown tiers so the analyzer can report them as skipped.
func NormalizeTier(s string) Tier {
	return Tier(strings.ToLower(strings.TrimSpace(s)))
}

// ParseTier converts a raw string into a Tier.
func ParseTier(s string) (Tier, error) {
	t := NormalizeTier(s)
	if !t.Valid() {
		return "", eris.Errorf("model: unknown tier %q", s)
	}
	return t, nil
}

// CustomerExposure records a customer's history with one competitor.
type CustomerExposure struct {
	CallsMentioned        int     `json:"calls_mentioned" yaml:"calls_mentioned"`
	ConsideredAlternative bool    `json:"considered_alternative" yaml:"considered_alternative"`
	RiskTag               RiskTag `json:"risk_tag" yaml:"risk_tag"`
}

// Customer is a read-only view of a customer account. Exposure is keyed by
// competitor ID; a missing key means no recorded exposure.
type Customer struct {
	ID              string                       `json:"id" yaml:"id"`
	CompanyName     string                       `json:"company_name" yaml:"company_name"`
	Industry        string                       `json:"industry" yaml:"industry"`
	Segment         string                       `json:"segment" yaml:"segment"`
	Tier            Tier                         `json:"tier" yaml:"tier"`
	AccountValue    float64                      `json:"account_value" yaml:"account_value"`
	EngagementScore float64                      `json:"engagement_score" yaml:"engagement_score"`
	RenewalDate     time.Time                    `json:"renewal_date" yaml:"renewal_date"`
	Exposure        map[string]*CustomerExposure `json:"exposure,omitempty" yaml:"exposure"`
}

// ExposureTo returns the customer's exposure to the given competitor, or nil.
func (c *Customer) ExposureTo(competitorID string) *CustomerExposure {
	if c.Exposure == nil {
		return nil
	}
	return c.Exposure[competitorID]
}
