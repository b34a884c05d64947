package impact

import (
	"fmt"
	"math"
	"time"

	"github.com/sells-group/competitive-intel/internal/config"
	"github.com/sells-group/competitive-intel/internal/model"
)

// Score factor names, in the order they are reported.
const (
	FactorExposureFrequency     = "exposure_frequency"
	FactorConsideredAlternative = "considered_alternative"
	FactorRiskTag               = "risk_tag"
	FactorSignalType            = "signal_type"
	FactorAccountValue          = "account_value"
	FactorEngagement            = "engagement"
	FactorRenewalProximity      = "renewal_proximity"
)

// Score is the outcome of scoring one customer against one signal.
type Score struct {
	Total         float64
	Raw           float64
	Components    []model.ScoreComponent
	DaysToRenewal int
	RenewalWindow model.RenewalWindow
}

// Scorer computes bounded additive impact scores.
type Scorer struct {
	cfg config.ImpactConfig
	now func() time.Time
}

// NewScorer creates a Scorer. If now is nil, time.Now is used.
func NewScorer(cfg config.ImpactConfig, now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{cfg: cfg, now: now}
}

// Score sums the independent factor contributions for a customer and clamps
// the total to [0, MaxScore].
func (s *Scorer) Score(customer model.Customer, signalType model.SignalType, exposure model.CustomerExposure) Score {
	days := DaysUntil(s.now(), customer.RenewalDate)
	window := s.renewalWindow(days)

	components := []model.ScoreComponent{
		{
			Factor: FactorExposureFrequency,
			Points: float64(exposure.CallsMentioned),
			Detail: fmt.Sprintf("%d calls mentioned competitor", exposure.CallsMentioned),
		},
		considerationComponent(exposure.ConsideredAlternative),
		{
			Factor: FactorRiskTag,
			Points: RiskTagWeight(exposure.RiskTag),
			Detail: string(exposure.RiskTag),
		},
		{
			Factor: FactorSignalType,
			Points: SignalWeight(signalType),
			Detail: string(signalType),
		},
		{
			Factor: FactorAccountValue,
			Points: s.accountValuePoints(customer.AccountValue),
			Detail: fmt.Sprintf("%.0f", customer.AccountValue),
		},
		{
			Factor: FactorEngagement,
			Points: s.engagementPoints(customer.EngagementScore),
			Detail: fmt.Sprintf("%.0f", customer.EngagementScore),
		},
		{
			Factor: FactorRenewalProximity,
			Points: RenewalWeight(window),
			Detail: fmt.Sprintf("%s (%d days)", window, days),
		},
	}

	var raw float64
	for _, c := range components {
		raw += c.Points
	}

	return Score{
		Total:         math.Max(0, math.Min(s.cfg.MaxScore, raw)),
		Raw:           raw,
		Components:    components,
		DaysToRenewal: days,
		RenewalWindow: window,
	}
}

// RiskLevel labels a score. There is no "low" level: every scored customer
// already has recorded exposure.
func (s *Scorer) RiskLevel(score float64) model.RiskLevel {
	return RiskLevelFor(s.cfg, score)
}

// RiskLevelFor labels a score using the thresholds in cfg.
func RiskLevelFor(cfg config.ImpactConfig, score float64) model.RiskLevel {
	switch {
	case score > cfg.CriticalScore:
		return model.RiskLevelCritical
	case score > cfg.HighRiskScore:
		return model.RiskLevelHigh
	default:
		return model.RiskLevelMedium
	}
}

func considerationComponent(considered bool) model.ScoreComponent {
	if considered {
		return model.ScoreComponent{Factor: FactorConsideredAlternative, Points: 3, Detail: "seriously considered switching"}
	}
	return model.ScoreComponent{Factor: FactorConsideredAlternative, Points: 0}
}

func (s *Scorer) accountValuePoints(value float64) float64 {
	switch {
	case value > s.cfg.HighValueThreshold:
		return 2
	case value > s.cfg.MidValueThreshold:
		return 1
	default:
		return 0
	}
}

func (s *Scorer) engagementPoints(engagement float64) float64 {
	switch {
	case engagement < s.cfg.LowEngagement:
		return 2
	case engagement < s.cfg.MidEngagement:
		return 1
	default:
		return 0
	}
}

func (s *Scorer) renewalWindow(days int) model.RenewalWindow {
	switch {
	case days < 0:
		return model.RenewalOverdue
	case days < s.cfg.RenewalUrgentDays:
		return model.RenewalUnder30
	case days < s.cfg.RenewalNearDays:
		return model.RenewalUnder90
	case days < s.cfg.RenewalWatchDays:
		return model.RenewalUnder180
	default:
		return model.RenewalDistant
	}
}

// SignalWeight returns the fixed weight for a signal type. Values that
// bypassed parsing fall back to 1.
func SignalWeight(t model.SignalType) float64 {
	switch t {
	case model.SignalPricingChange:
		return 4
	case model.SignalFeatureLaunch:
		return 3
	case model.SignalAcquisition, model.SignalPartnership:
		return 2
	case model.SignalFunding, model.SignalExecutiveChange:
		return 1
	default:
		return 1
	}
}

// RiskTagWeight returns the points for a qualitative risk tag.
func RiskTagWeight(r model.RiskTag) float64 {
	switch r {
	case model.RiskTagHigh:
		return 3
	case model.RiskTagMedium:
		return 2
	case model.RiskTagLow:
		return 1
	default:
		return 0
	}
}

// RenewalWeight returns the points for a renewal window. An overdue renewal
// scores the same as the most urgent window.
func RenewalWeight(w model.RenewalWindow) float64 {
	switch w {
	case model.RenewalOverdue, model.RenewalUnder30:
		return 3
	case model.RenewalUnder90:
		return 2
	case model.RenewalUnder180:
		return 1
	default:
		return 0
	}
}

// DaysUntil returns the whole days from now until t, rounded up. Past dates
// yield negative values.
func DaysUntil(now, t time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}
