package main

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/competitive-intel/internal/impact"
	"github.com/sells-group/competitive-intel/internal/model"
	"github.com/sells-group/competitive-intel/internal/report"
)

type analyzeOptions struct {
	competitor string
	signalType string
	signalID   string
	segment    string
	tiers      []string
	industry   string
	format     string
	output     string
}

var analyzeFlags analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score the impact of a competitive signal on exposed customers",
	Long: "Runs an impact analysis for a competitor and signal type, or for a stored signal with --signal-id, " +
		"and renders the affected customers as a table, CSV, JSON or XLSX.",
	Example: `  competitive-intel analyze --competitor comp-acme --signal pricing_change
  competitive-intel analyze --signal-id sig-acme-pricing --tier enterprise --format csv --output acme.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		return runAnalyze(cmd.Context(), env.Analyzer, cmd.OutOrStdout(), analyzeFlags)
	},
}

func runAnalyze(ctx context.Context, analyzer *impact.Analyzer, stdout io.Writer, opts analyzeOptions) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	var analysis *model.Analysis
	if opts.signalID != "" {
		if opts.competitor != "" || opts.signalType != "" {
			return eris.New("--signal-id cannot be combined with --competitor or --signal")
		}
		filters, ferr := impact.ParseFilters(opts.segment, opts.tiers, opts.industry)
		if ferr != nil {
			return ferr
		}
		analysis, err = analyzer.AnalyzeSignal(ctx, opts.signalID, filters)
	} else {
		analysis, err = analyzer.Analyze(ctx, impact.Request{
			CompetitorID: opts.competitor,
			SignalType:   opts.signalType,
			Segment:      opts.segment,
			Tiers:        opts.tiers,
			Industry:     opts.industry,
		})
	}
	if err != nil {
		return err
	}

	return writeReport(stdout, opts.output, format, func(w io.Writer) error {
		return report.WriteAnalysis(w, format, analysis)
	})
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.competitor, "competitor", "", "competitor id")
	f.StringVar(&analyzeFlags.signalType, "signal", "", "signal type (pricing_change, feature_launch, acquisition, partnership, funding, executive_change)")
	f.StringVar(&analyzeFlags.signalID, "signal-id", "", "analyze a stored signal by id")
	f.StringVar(&analyzeFlags.segment, "segment", "", "only customers in this segment")
	f.StringSliceVar(&analyzeFlags.tiers, "tier", nil, "only customers in these tiers (repeatable)")
	f.StringVar(&analyzeFlags.industry, "industry", "", "only customers in this industry")
	f.StringVar(&analyzeFlags.format, "format", "table", "output format: table, csv, json, xlsx")
	f.StringVarP(&analyzeFlags.output, "output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(analyzeCmd)
}
