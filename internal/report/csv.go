package report

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
)

func writeCSV(out io.Writer, recs []record) error {
	w := csv.NewWriter(out)

	if err := w.Write(columns); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, r := range recs {
		if err := w.Write(r.strings()); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "report: flush csv")
}
