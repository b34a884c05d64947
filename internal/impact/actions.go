package impact

import (
	"github.com/sells-group/competitive-intel/internal/config"
	"github.com/sells-group/competitive-intel/internal/model"
)

// Recommend builds the ordered action plan for a scored customer. Rule
// groups are appended in triage order (escalation, signal type, tier,
// engagement, renewal) and duplicates keep their first position.
func Recommend(cfg config.ImpactConfig, customer model.Customer, signalType model.SignalType, score Score) []model.ActionCode {
	var actions []model.ActionCode

	if score.Total > cfg.EscalationScore {
		actions = append(actions,
			model.ActionImmediateSalesIntervention,
			model.ActionExecutiveCall,
			model.ActionCompetitiveBattlecard,
		)
	}

	actions = append(actions, SignalActions(signalType)...)

	if customer.Tier == model.TierEnterprise {
		actions = append(actions,
			model.ActionEnterpriseEngagement,
			model.ActionCustomProposal,
		)
	}

	if customer.EngagementScore < cfg.MidEngagement {
		actions = append(actions,
			model.ActionEngagementRemediation,
			model.ActionProductTraining,
		)
	}

	switch score.RenewalWindow {
	case model.RenewalOverdue:
		actions = append(actions,
			model.ActionRecoverLapsedRenewal,
			model.ActionRenewalAcceleration,
			model.ActionRenewalIncentive,
		)
	case model.RenewalUnder30, model.RenewalUnder90:
		actions = append(actions,
			model.ActionRenewalAcceleration,
			model.ActionRenewalIncentive,
		)
	}

	return dedupe(actions)
}

// SignalActions returns the signal-specific actions for t.
func SignalActions(t model.SignalType) []model.ActionCode {
	switch t {
	case model.SignalPricingChange:
		return []model.ActionCode{
			model.ActionPricingReview,
			model.ActionValueJustification,
			model.ActionPricingAdjustment,
		}
	case model.SignalFeatureLaunch:
		return []model.ActionCode{
			model.ActionFeatureParityAnalysis,
			model.ActionDifferentiationBrief,
			model.ActionRoadmapCommunication,
		}
	case model.SignalAcquisition:
		return []model.ActionCode{
			model.ActionAssessAcquisitionImpact,
			model.ActionStabilityMessaging,
			model.ActionCompetitiveBattlecard,
		}
	case model.SignalPartnership:
		return []model.ActionCode{
			model.ActionReviewPartnerEcosystem,
			model.ActionIntegrationRoadmap,
		}
	case model.SignalFunding:
		return []model.ActionCode{model.ActionMonitorCompetitor}
	case model.SignalExecutiveChange:
		return []model.ActionCode{
			model.ActionMonitorCompetitor,
			model.ActionLeadershipBrief,
		}
	default:
		return []model.ActionCode{model.ActionMonitorCompetitor}
	}
}

func dedupe(actions []model.ActionCode) []model.ActionCode {
	seen := make(map[model.ActionCode]bool, len(actions))
	out := make([]model.ActionCode, 0, len(actions))
	for _, a := range actions {
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
