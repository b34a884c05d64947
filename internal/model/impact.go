package model

import "time"

// RiskLevel is the label derived from an impact score.
type RiskLevel string

const (
	RiskLevelCritical RiskLevel = "critical"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelMedium   RiskLevel = "medium"
)

// Urgency is the triage bucket for a customer's response.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencyHigh      Urgency = "high"
	UrgencyMedium    Urgency = "medium"
	UrgencyLow       Urgency = "low"
)

// RenewalWindow classifies how close a customer's renewal is.
type RenewalWindow string

const (
	RenewalOverdue  RenewalWindow = "overdue"
	RenewalUnder30  RenewalWindow = "under_30_days"
	RenewalUnder90  RenewalWindow = "under_90_days"
	RenewalUnder180 RenewalWindow = "under_180_days"
	RenewalDistant  RenewalWindow = "distant"
)

// ActionCode identifies a recommended mitigation action.
type ActionCode string

const (
	// Escalation.
	ActionImmediateSalesIntervention ActionCode = "immediate_sales_intervention"
	ActionExecutiveCall              ActionCode = "executive_call"
	ActionCompetitiveBattlecard      ActionCode = "competitive_battlecard"

	// Pricing change.
	ActionPricingReview      ActionCode = "pricing_review"
	ActionValueJustification ActionCode = "value_justification"
	ActionPricingAdjustment  ActionCode = "pricing_adjustment"

	// Feature launch.
	ActionFeatureParityAnalysis ActionCode = "feature_parity_analysis"
	ActionDifferentiationBrief  ActionCode = "differentiation_briefing"
	ActionRoadmapCommunication  ActionCode = "roadmap_communication"

	// Acquisition.
	ActionAssessAcquisitionImpact ActionCode = "assess_acquisition_impact"
	ActionStabilityMessaging      ActionCode = "stability_messaging"

	// Partnership.
	ActionReviewPartnerEcosystem ActionCode = "review_partner_ecosystem"
	ActionIntegrationRoadmap     ActionCode = "integration_roadmap"

	// Funding and leadership changes.
	ActionMonitorCompetitor ActionCode = "monitor_competitor"
	ActionLeadershipBrief   ActionCode = "leadership_change_brief"

	// Tier.
	ActionEnterpriseEngagement ActionCode = "enterprise_engagement"
	ActionCustomProposal       ActionCode = "custom_proposal"

	// Engagement.
	ActionEngagementRemediation ActionCode = "engagement_remediation"
	ActionProductTraining       ActionCode = "product_training"

	// Renewal.
	ActionRecoverLapsedRenewal ActionCode = "recover_lapsed_renewal"
	ActionRenewalAcceleration  ActionCode = "renewal_acceleration"
	ActionRenewalIncentive     ActionCode = "renewal_incentive"
)

// ScoreComponent is one additive contribution to an impact score.
type ScoreComponent struct {
	Factor string  `json:"factor"`
	Points float64 `json:"points"`
	Detail string  `json:"detail,omitempty"`
}

// ImpactResult is the computed impact of one signal on one customer.
type ImpactResult struct {
	Customer           Customer         `json:"customer"`
	ImpactScore        float64          `json:"impact_score"`
	RawScore           float64          `json:"raw_score"`
	RiskLevel          RiskLevel        `json:"risk_level"`
	Urgency            Urgency          `json:"urgency"`
	RecommendedActions []ActionCode     `json:"recommended_actions"`
	DaysToRenewal      int              `json:"days_to_renewal"`
	RenewalWindow      RenewalWindow    `json:"renewal_window"`
	Components         []ScoreComponent `json:"components"`
}

// Summary aggregates the results of an analysis.
type Summary struct {
	CriticalRisk            int     `json:"critical_risk"`
	HighRisk                int     `json:"high_risk"`
	MediumRisk              int     `json:"medium_risk"`
	TotalAccountValueAtRisk float64 `json:"total_account_value_at_risk"`
}

// SkippedCustomer is an eligible customer whose record could not be scored.
type SkippedCustomer struct {
	CustomerID string `json:"customer_id"`
	Reason     string `json:"reason"`
}

// Analysis is the full result of an impact analysis run.
type Analysis struct {
	ID          string            `json:"id"`
	Competitor  Competitor        `json:"competitor"`
	SignalType  SignalType        `json:"signal_type"`
	Signal      *Signal           `json:"signal,omitempty"`
	Results     []ImpactResult    `json:"results"`
	Summary     Summary           `json:"summary"`
	Skipped     []SkippedCustomer `json:"skipped,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// TotalAffected returns the number of customers in the result set.
func (a *Analysis) TotalAffected() int {
	return len(a.Results)
}
