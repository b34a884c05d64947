// Package report renders impact analyses for people and spreadsheets.
package report

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/competitive-intel/internal/impact"
	"github.com/sells-group/competitive-intel/internal/model"
)

// Format selects an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatXLSX  Format = "xlsx"
)

// Formats lists every supported format.
var Formats = []Format{FormatTable, FormatCSV, FormatJSON, FormatXLSX}

// ParseFormat parses a format name. An empty name means table.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", eris.Errorf("report: unknown format %q", s)
	}
}

// Binary reports whether the format should not be written to a terminal.
func (f Format) Binary() bool {
	return f == FormatXLSX
}

// columns are the flat per-customer columns shared by csv and xlsx.
var columns = []string{
	"signal_id",
	"competitor_id",
	"signal_type",
	"customer_id",
	"company_name",
	"industry",
	"segment",
	"tier",
	"account_value",
	"engagement_score",
	"renewal_date",
	"days_to_renewal",
	"renewal_window",
	"impact_score",
	"raw_score",
	"risk_level",
	"urgency",
	"recommended_actions",
}

// record is one flattened customer result.
type record struct {
	signalID     string
	competitorID string
	signalType   string
	result       model.ImpactResult
}

func (r record) strings() []string {
	c := r.result.Customer
	return []string{
		r.signalID,
		r.competitorID,
		r.signalType,
		c.ID,
		c.CompanyName,
		c.Industry,
		c.Segment,
		string(c.Tier),
		formatFloat(c.AccountValue),
		formatFloat(c.EngagementScore),
		formatDate(c.RenewalDate),
		itoa(r.result.DaysToRenewal),
		string(r.result.RenewalWindow),
		formatFloat(r.result.ImpactScore),
		formatFloat(r.result.RawScore),
		string(r.result.RiskLevel),
		string(r.result.Urgency),
		joinActions(r.result.RecommendedActions),
	}
}

func records(analyses ...*model.Analysis) []record {
	var out []record
	for _, a := range analyses {
		var signalID string
		if a.Signal != nil {
			signalID = a.Signal.ID
		}
		for _, r := range a.Results {
			out = append(out, record{
				signalID:     signalID,
				competitorID: a.Competitor.ID,
				signalType:   string(a.SignalType),
				result:       r,
			})
		}
	}
	return out
}

func digestAnalyses(d *impact.Digest) []*model.Analysis {
	out := make([]*model.Analysis, len(d.Analyses))
	for i := range d.Analyses {
		out[i] = &d.Analyses[i]
	}
	return out
}

// WriteAnalysis renders a single analysis.
func WriteAnalysis(w io.Writer, f Format, a *model.Analysis) error {
	if a == nil {
		return eris.New("report: nil analysis")
	}
	switch f {
	case FormatTable:
		return writeAnalysisTable(w, a)
	case FormatCSV:
		return writeCSV(w, records(a))
	case FormatJSON:
		return writeJSON(w, a)
	case FormatXLSX:
		return writeXLSX(w, []*model.Analysis{a}, nil)
	default:
		return eris.Errorf("report: unknown format %q", f)
	}
}

// WriteDigest renders every analysis of a digest.
func WriteDigest(w io.Writer, f Format, d *impact.Digest) error {
	if d == nil {
		return eris.New("report: nil digest")
	}
	switch f {
	case FormatTable:
		return writeDigestTable(w, d)
	case FormatCSV:
		return writeCSV(w, records(digestAnalyses(d)...))
	case FormatJSON:
		return writeJSON(w, d)
	case FormatXLSX:
		return writeXLSX(w, digestAnalyses(d), d.Unresolved)
	default:
		return eris.Errorf("report: unknown format %q", f)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "report: encode json")
}

func joinActions(actions []model.ActionCode) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, ";")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

// formatDollars renders whole dollars with thousands separators.
func formatDollars(v float64) string {
	return message.NewPrinter(language.English).Sprintf("$%.0f", v)
}
