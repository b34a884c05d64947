package api

import (
	"time"

	"github.com/sells-group/competitive-intel/internal/impact"
	"github.com/sells-group/competitive-intel/internal/model"
)

// --- Request DTOs ---

type filtersReq struct {
	Segment  string   `json:"segment"`
	Tier     []string `json:"tier"`
	Industry string   `json:"industry"`
}

type analysisReq struct {
	CompetitorID string      `json:"competitorId"`
	SignalType   string      `json:"signalType"`
	Filters      *filtersReq `json:"filters"`
}

func (r analysisReq) toRequest() impact.Request {
	req := impact.Request{CompetitorID: r.CompetitorID, SignalType: r.SignalType}
	if r.Filters != nil {
		req.Segment = r.Filters.Segment
		req.Tiers = r.Filters.Tier
		req.Industry = r.Filters.Industry
	}
	return req
}

// --- Response DTOs ---

type competitorResp struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	TargetIndustries        []string `json:"targetIndustries,omitempty"`
	TypicalCustomerSegments []string `json:"typicalCustomerSegments,omitempty"`
}

type signalResp struct {
	ID           string    `json:"id"`
	CompetitorID string    `json:"competitorId"`
	Type         string    `json:"type"`
	Title        string    `json:"title,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	SourceURL    string    `json:"sourceUrl,omitempty"`
	DetectedAt   time.Time `json:"detectedAt"`
}

type customerResp struct {
	ID              string  `json:"id"`
	CompanyName     string  `json:"companyName"`
	Industry        string  `json:"industry"`
	Segment         string  `json:"segment"`
	Tier            string  `json:"tier"`
	AccountValue    float64 `json:"accountValue"`
	EngagementScore float64 `json:"engagementScore"`
	RenewalDate     string  `json:"renewalDate"`
}

type componentResp struct {
	Factor string  `json:"factor"`
	Points float64 `json:"points"`
	Detail string  `json:"detail,omitempty"`
}

type impactResultResp struct {
	Customer           customerResp    `json:"customer"`
	ImpactScore        float64         `json:"impactScore"`
	RawScore           float64         `json:"rawScore"`
	RiskLevel          string          `json:"riskLevel"`
	Urgency            string          `json:"urgency"`
	RecommendedActions []string        `json:"recommendedActions"`
	DaysToRenewal      int             `json:"daysToRenewal"`
	RenewalWindow      string          `json:"renewalWindow"`
	Components         []componentResp `json:"components"`
}

type summaryResp struct {
	CriticalRisk            int     `json:"criticalRisk"`
	HighRisk                int     `json:"highRisk"`
	MediumRisk              int     `json:"mediumRisk"`
	TotalAccountValueAtRisk float64 `json:"totalAccountValueAtRisk"`
}

type skippedResp struct {
	CustomerID string `json:"customerId"`
	Reason     string `json:"reason"`
}

type analysisResp struct {
	ID                string             `json:"id"`
	Competitor        competitorResp     `json:"competitor"`
	SignalType        string             `json:"signalType"`
	Signal            *signalResp        `json:"signal,omitempty"`
	AffectedCustomers []impactResultResp `json:"affectedCustomers"`
	TotalAffected     int                `json:"totalAffected"`
	Summary           summaryResp        `json:"summary"`
	Skipped           []skippedResp      `json:"skipped,omitempty"`
	GeneratedAt       time.Time          `json:"generatedAt"`
}

type signalsResp struct {
	Signals []signalResp `json:"signals"`
	Count   int          `json:"count"`
}

type digestResp struct {
	Since         time.Time      `json:"since"`
	Until         time.Time      `json:"until"`
	Analyses      []analysisResp `json:"analyses"`
	TotalAffected int            `json:"totalAffected"`
	Unresolved    []string       `json:"unresolved,omitempty"`
}

func newCompetitorResp(c model.Competitor, detailed bool) competitorResp {
	out := competitorResp{ID: c.ID, Name: c.Name}
	if detailed {
		out.TargetIndustries = c.TargetIndustries
		out.TypicalCustomerSegments = c.TypicalCustomerSegments
	}
	return out
}

func newSignalResp(s model.Signal) signalResp {
	return signalResp{
		ID:           s.ID,
		CompetitorID: s.CompetitorID,
		Type:         string(s.Type),
		Title:        s.Title,
		Summary:      s.Summary,
		SourceURL:    s.SourceURL,
		DetectedAt:   s.DetectedAt,
	}
}

func newImpactResultResp(r model.ImpactResult) impactResultResp {
	actions := make([]string, len(r.RecommendedActions))
	for i, a := range r.RecommendedActions {
		actions[i] = string(a)
	}
	components := make([]componentResp, len(r.Components))
	for i, c := range r.Components {
		components[i] = componentResp(c)
	}

	var renewal string
	if !r.Customer.RenewalDate.IsZero() {
		renewal = r.Customer.RenewalDate.Format(time.DateOnly)
	}

	return impactResultResp{
		Customer: customerResp{
			ID:              r.Customer.ID,
			CompanyName:     r.Customer.CompanyName,
			Industry:        r.Customer.Industry,
			Segment:         r.Customer.Segment,
			Tier:            string(r.Customer.Tier),
			AccountValue:    r.Customer.AccountValue,
			EngagementScore: r.Customer.EngagementScore,
			RenewalDate:     renewal,
		},
		ImpactScore:        r.ImpactScore,
		RawScore:           r.RawScore,
		RiskLevel:          string(r.RiskLevel),
		Urgency:            string(r.Urgency),
		RecommendedActions: actions,
		DaysToRenewal:      r.DaysToRenewal,
		RenewalWindow:      string(r.RenewalWindow),
		Components:         components,
	}
}

func newAnalysisResp(a *model.Analysis) analysisResp {
	out := analysisResp{
		ID:                a.ID,
		Competitor:        newCompetitorResp(a.Competitor, false),
		SignalType:        string(a.SignalType),
		AffectedCustomers: make([]impactResultResp, 0, len(a.Results)),
		TotalAffected:     a.TotalAffected(),
		Summary:           summaryResp(a.Summary),
		GeneratedAt:       a.GeneratedAt,
	}
	if a.Signal != nil {
		s := newSignalResp(*a.Signal)
		out.Signal = &s
	}
	for _, r := range a.Results {
		out.AffectedCustomers = append(out.AffectedCustomers, newImpactResultResp(r))
	}
	for _, s := range a.Skipped {
		out.Skipped = append(out.Skipped, skippedResp(s))
	}
	return out
}

func newDigestResp(d *impact.Digest) digestResp {
	out := digestResp{
		Since:         d.Since,
		Until:         d.Until,
		Analyses:      make([]analysisResp, 0, len(d.Analyses)),
		TotalAffected: d.TotalAffected(),
		Unresolved:    d.Unresolved,
	}
	for i := range d.Analyses {
		out.Analyses = append(out.Analyses, newAnalysisResp(&d.Analyses[i]))
	}
	return out
}
