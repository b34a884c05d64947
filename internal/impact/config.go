// Package impact scores how competitor signals threaten customer accounts
// and derives a prioritized action plan per customer.
package impact

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/competitive-intel/internal/config"
)

// DefaultImpactConfig returns the reference scoring thresholds.
func DefaultImpactConfig() config.ImpactConfig {
	return config.ImpactConfig{
		MaxScore: 10,

		HighValueThreshold: 100_000,
		MidValueThreshold:  50_000,

		LowEngagement: 50,
		MidEngagement: 70,

		RenewalUrgentDays: 30,
		RenewalNearDays:   90,
		RenewalWatchDays:  180,

		ImmediateScore:        8,
		ImmediateAccountValue: 100_000,
		HighUrgencyScore:      6,
		HighUrgencyValue:      75_000,
		MediumUrgencyScore:    4,
		MediumUrgencyValue:    25_000,

		CriticalScore:   7,
		HighRiskScore:   4,
		EscalationScore: 7,

		Workers:           4,
		DigestWindowHours: 168,
	}
}

// ValidateConfig checks that an ImpactConfig is internally consistent.
func ValidateConfig(c config.ImpactConfig) error {
	var errs []string

	if c.MaxScore <= 0 {
		errs = append(errs, "max_score must be > 0")
	}

	if c.MidValueThreshold < 0 || c.HighValueThreshold < c.MidValueThreshold {
		errs = append(errs, "value thresholds must satisfy 0 <= mid_value_threshold <= high_value_threshold")
	}

	if c.LowEngagement < 0 || c.MidEngagement > 100 || c.MidEngagement < c.LowEngagement {
		errs = append(errs, "engagement thresholds must satisfy 0 <= low_engagement <= mid_engagement <= 100")
	}

	if c.RenewalUrgentDays <= 0 || c.RenewalNearDays < c.RenewalUrgentDays || c.RenewalWatchDays < c.RenewalNearDays {
		errs = append(errs, "renewal ladder must satisfy 0 < renewal_urgent_days <= renewal_near_days <= renewal_watch_days")
	}

	if c.ImmediateScore < c.HighUrgencyScore || c.HighUrgencyScore < c.MediumUrgencyScore {
		errs = append(errs, "urgency scores must satisfy medium <= high <= immediate")
	}
	if c.HighUrgencyValue < c.MediumUrgencyValue {
		errs = append(errs, "high_urgency_value must be >= medium_urgency_value")
	}

	if c.CriticalScore < c.HighRiskScore {
		errs = append(errs, "critical_score must be >= high_risk_score")
	}
	if c.CriticalScore > c.MaxScore || c.EscalationScore > c.MaxScore {
		errs = append(errs, "critical_score and escalation_score must not exceed max_score")
	}

	if c.Workers < 0 {
		errs = append(errs, "workers must be >= 0")
	}
	if c.DigestWindowHours < 0 {
		errs = append(errs, "digest_window_hours must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("impact: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
