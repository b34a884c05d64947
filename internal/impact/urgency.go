package impact

import (
	"github.com/sells-group/competitive-intel/internal/config"
	"github.com/sells-group/competitive-intel/internal/model"
)

// ClassifyUrgency buckets a scored customer for triage. Rules are evaluated
// in order and the first match wins. Account value is counted again here so
// that high-value accounts never fall below medium.
func ClassifyUrgency(cfg config.ImpactConfig, customer model.Customer, score float64) model.Urgency {
	switch {
	case score > cfg.ImmediateScore && customer.AccountValue > cfg.ImmediateAccountValue:
		return model.UrgencyImmediate
	case score > cfg.HighUrgencyScore || customer.AccountValue > cfg.HighUrgencyValue:
		return model.UrgencyHigh
	case score > cfg.MediumUrgencyScore || customer.AccountValue > cfg.MediumUrgencyValue:
		return model.UrgencyMedium
	default:
		return model.UrgencyLow
	}
}
