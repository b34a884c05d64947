package report

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/competitive-intel/internal/impact"
	"github.com/sells-group/competitive-intel/internal/model"
)

func writeAnalysisTable(out io.Writer, a *model.Analysis) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "Competitor:\t%s (%s)\n", a.Competitor.Name, a.Competitor.ID)
	_, _ = fmt.Fprintf(w, "Signal:\t%s\n", signalLine(a))
	_, _ = fmt.Fprintf(w, "Affected:\t%d (critical %d, high %d, medium %d)\n",
		a.TotalAffected(), a.Summary.CriticalRisk, a.Summary.HighRisk, a.Summary.MediumRisk)
	_, _ = fmt.Fprintf(w, "Value at risk:\t%s\n", formatDollars(a.Summary.TotalAccountValueAtRisk))
	_, _ = fmt.Fprintf(w, "Generated:\t%s\n", a.GeneratedAt.Format("2006-01-02 15:04 MST"))
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "report: write table")
	}

	if len(a.Results) == 0 {
		_, err := fmt.Fprintln(out, "\nNo affected customers.")
		return eris.Wrap(err, "report: write table")
	}

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CUSTOMER\tCOMPANY\tTIER\tSCORE\tRISK\tURGENCY\tRENEWAL\tVALUE\tACTIONS")
	_, _ = fmt.Fprintln(w, "--------\t-------\t----\t-----\t----\t-------\t-------\t-----\t-------")
	for _, r := range a.Results {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%s\t%s\t%s\t%s\t%s\n",
			r.Customer.ID,
			r.Customer.CompanyName,
			r.Customer.Tier,
			r.ImpactScore,
			r.RiskLevel,
			r.Urgency,
			renewalCell(r),
			formatDollars(r.Customer.AccountValue),
			joinActions(r.RecommendedActions),
		)
	}
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "report: write table")
	}

	return writeSkipped(out, a.Skipped)
}

func writeSkipped(out io.Writer, skipped []model.SkippedCustomer) error {
	if len(skipped) == 0 {
		return nil
	}
	_, _ = fmt.Fprintf(out, "\nSkipped %d malformed record(s):\n", len(skipped))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, s := range skipped {
		_, _ = fmt.Fprintf(w, "  %s\t%s\n", s.CustomerID, s.Reason)
	}
	return eris.Wrap(w.Flush(), "report: write table")
}

func writeDigestTable(out io.Writer, d *impact.Digest) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Window:\t%s .. %s\n", d.Since.Format(timeLayout), d.Until.Format(timeLayout))
	_, _ = fmt.Fprintf(w, "Signals:\t%d\n", len(d.Analyses)+len(d.Unresolved))
	_, _ = fmt.Fprintf(w, "Affected:\t%d\n", d.TotalAffected())
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "report: write table")
	}

	if len(d.Analyses) > 0 {
		_, _ = fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "DETECTED\tCOMPETITOR\tTYPE\tTITLE\tAFFECTED\tCRITICAL\tHIGH\tVALUE AT RISK")
		_, _ = fmt.Fprintln(w, "--------\t----------\t----\t-----\t--------\t--------\t----\t-------------")
		for i := range d.Analyses {
			a := &d.Analyses[i]
			var detected, title string
			if a.Signal != nil {
				detected = a.Signal.DetectedAt.Format(timeLayout)
				title = truncate(a.Signal.Title, 48)
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				detected,
				a.Competitor.Name,
				a.SignalType,
				title,
				a.TotalAffected(),
				a.Summary.CriticalRisk,
				a.Summary.HighRisk,
				formatDollars(a.Summary.TotalAccountValueAtRisk),
			)
		}
		if err := w.Flush(); err != nil {
			return eris.Wrap(err, "report: write table")
		}
	}

	if len(d.Unresolved) > 0 {
		_, _ = fmt.Fprintf(out, "\nUnresolved signals (unknown competitor): %d\n", len(d.Unresolved))
		for _, id := range d.Unresolved {
			_, _ = fmt.Fprintf(out, "  %s\n", id)
		}
	}
	return nil
}

const timeLayout = "2006-01-02 15:04"

func signalLine(a *model.Analysis) string {
	if a.Signal == nil || a.Signal.Title == "" {
		return string(a.SignalType)
	}
	return fmt.Sprintf("%s (%s)", a.SignalType, a.Signal.Title)
}

func renewalCell(r model.ImpactResult) string {
	if r.RenewalWindow == model.RenewalOverdue {
		return fmt.Sprintf("overdue %dd", -r.DaysToRenewal)
	}
	return fmt.Sprintf("%dd", r.DaysToRenewal)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func itoa(n int) string { return strconv.Itoa(n) }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
