// Package monitoring watches the signal feed and raises alerts when a new
// competitive signal puts too many customers or too much revenue at risk.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/competitive-intel/internal/config"
	"github.com/sells-group/competitive-intel/internal/impact"
	"github.com/sells-group/competitive-intel/internal/model"
	"github.com/sells-group/competitive-intel/internal/resilience"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertCriticalExposure  AlertType = "critical_exposure"
	AlertValueAtRisk       AlertType = "value_at_risk"
	AlertUnresolvedSignals AlertType = "unresolved_signals"
)

// maxAlertCustomers caps the customer ids listed in alert details.
const maxAlertCustomers = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a digest against configured thresholds and sends
// alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
	retry  resilience.Policy
	now    func() time.Time
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		retry:  resilience.DefaultPolicy(),
		now:    time.Now,
	}
}

// Evaluate checks every analysis in the digest against the thresholds.
func (a *Alerter) Evaluate(d *impact.Digest) []Alert {
	var alerts []Alert
	now := a.now().UTC()

	for i := range d.Analyses {
		an := &d.Analyses[i]
		details := analysisDetails(an)

		if a.cfg.CriticalThreshold > 0 && an.Summary.CriticalRisk >= a.cfg.CriticalThreshold {
			alerts = append(alerts, Alert{
				Type:     AlertCriticalExposure,
				Severity: "critical",
				Message: fmt.Sprintf(
					"%s %s puts %d customer(s) at critical risk (threshold %d)",
					an.Competitor.Name, an.SignalType, an.Summary.CriticalRisk, a.cfg.CriticalThreshold,
				),
				Details:   details,
				Timestamp: now,
			})
		}

		if a.cfg.ValueAtRiskThreshold > 0 && an.Summary.TotalAccountValueAtRisk >= a.cfg.ValueAtRiskThreshold {
			alerts = append(alerts, Alert{
				Type:     AlertValueAtRisk,
				Severity: "high",
				Message: fmt.Sprintf(
					"%s %s puts $%.0f of account value at risk (threshold $%.0f)",
					an.Competitor.Name, an.SignalType, an.Summary.TotalAccountValueAtRisk, a.cfg.ValueAtRiskThreshold,
				),
				Details:   details,
				Timestamp: now,
			})
		}
	}

	if len(d.Unresolved) > 0 {
		alerts = append(alerts, Alert{
			Type:     AlertUnresolvedSignals,
			Severity: "low",
			Message:  fmt.Sprintf("%d signal(s) reference an unknown competitor", len(d.Unresolved)),
			Details: map[string]any{
				"signal_ids": d.Unresolved,
			},
			Timestamp: now,
		})
	}

	return alerts
}

func analysisDetails(a *model.Analysis) map[string]any {
	details := map[string]any{
		"analysis_id":   a.ID,
		"competitor_id": a.Competitor.ID,
		"signal_type":   string(a.SignalType),
		"affected":      a.TotalAffected(),
		"critical":      a.Summary.CriticalRisk,
		"high":          a.Summary.HighRisk,
		"value_at_risk": a.Summary.TotalAccountValueAtRisk,
	}
	if a.Signal != nil {
		details["signal_id"] = a.Signal.ID
		if a.Signal.SourceURL != "" {
			details["source_url"] = a.Signal.SourceURL
		}
	}

	var top []string
	for _, r := range a.Results {
		if r.RiskLevel != model.RiskLevelCritical || len(top) == maxAlertCustomers {
			continue
		}
		top = append(top, r.Customer.ID)
	}
	if len(top) > 0 {
		details["critical_customers"] = top
	}
	return details
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		_, err := resilience.Retry(ctx, a.retry, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, a.sendWebhook(ctx, alert)
		}, func(attempt int, err error) {
			zap.L().Warn("monitoring: retrying alert webhook",
				zap.String("type", string(alert.Type)),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		})
		if err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		err := eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}
	return nil
}
