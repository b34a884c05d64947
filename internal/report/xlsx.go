package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/competitive-intel/internal/model"
)

const (
	resultsSheet = "Affected Customers"
	summarySheet = "Summary"
	skippedSheet = "Skipped"
)

// numeric column indexes in columns, written as numbers rather than text.
var numericColumns = map[int]bool{8: true, 9: true, 11: true, 13: true, 14: true}

func writeXLSX(out io.Writer, analyses []*model.Analysis, unresolved []string) error {
	f := xlsx.NewFile()

	header := xlsx.NewStyle()
	header.Font.Bold = true
	header.ApplyFont = true

	summary, err := f.AddSheet(summarySheet)
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	addRow(summary, header, "signal_id", "competitor", "signal_type", "affected", "critical", "high", "medium", "value_at_risk")
	for _, a := range analyses {
		var signalID string
		if a.Signal != nil {
			signalID = a.Signal.ID
		}
		row := summary.AddRow()
		row.AddCell().SetString(signalID)
		row.AddCell().SetString(a.Competitor.Name)
		row.AddCell().SetString(string(a.SignalType))
		row.AddCell().SetInt(a.TotalAffected())
		row.AddCell().SetInt(a.Summary.CriticalRisk)
		row.AddCell().SetInt(a.Summary.HighRisk)
		row.AddCell().SetInt(a.Summary.MediumRisk)
		row.AddCell().SetFloatWithFormat(a.Summary.TotalAccountValueAtRisk, "#,##0")
	}
	for _, id := range unresolved {
		row := summary.AddRow()
		row.AddCell().SetString(id)
		row.AddCell().SetString("unresolved")
	}

	results, err := f.AddSheet(resultsSheet)
	if err != nil {
		return eris.Wrap(err, "report: add results sheet")
	}
	addRow(results, header, columns...)
	for _, rec := range records(analyses...) {
		row := results.AddRow()
		for i, v := range rec.strings() {
			cell := row.AddCell()
			if numericColumns[i] {
				cell.SetFloat(numericValue(rec.result, i))
				continue
			}
			cell.SetString(v)
		}
	}

	var skipped []model.SkippedCustomer
	for _, a := range analyses {
		skipped = append(skipped, a.Skipped...)
	}
	if len(skipped) > 0 {
		sheet, err := f.AddSheet(skippedSheet)
		if err != nil {
			return eris.Wrap(err, "report: add skipped sheet")
		}
		addRow(sheet, header, "customer_id", "reason")
		for _, s := range skipped {
			addRow(sheet, nil, s.CustomerID, s.Reason)
		}
	}

	return eris.Wrap(f.Write(out), "report: write xlsx")
}

func addRow(sheet *xlsx.Sheet, style *xlsx.Style, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		cell := row.AddCell()
		cell.SetString(v)
		if style != nil {
			cell.SetStyle(style)
		}
	}
}

func numericValue(r model.ImpactResult, col int) float64 {
	switch col {
	case 8:
		return r.Customer.AccountValue
	case 9:
		return r.Customer.EngagementScore
	case 11:
		return float64(r.DaysToRenewal)
	case 13:
		return r.ImpactScore
	case 14:
		return r.RawScore
	default:
		return 0
	}
}
