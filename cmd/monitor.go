package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/competitive-intel/internal/crm"
	"github.com/sells-group/competitive-intel/internal/impact"
	"github.com/sells-group/competitive-intel/internal/monitoring"
	"github.com/sells-group/competitive-intel/internal/report"
	"github.com/sells-group/competitive-intel/internal/resilience"
)

type monitorOptions struct {
	since      string
	competitor string
	types      []string
	segment    string
	tiers      []string
	industry   string
	format     string
	output     string
	publish    bool
	watch      bool
}

var monitorFlags monitorOptions

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Analyze every signal detected in a recent window",
	Long: "Builds a digest of the impact of each signal detected since --since (default: impact.digest_window_hours). " +
		"With --publish, each signal that affects customers is posted to the Notion alerts database. " +
		"With --watch, keeps running and alerts on new signals every monitoring.check_interval_secs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if monitorFlags.watch {
			return runWatch(cmd)
		}
		if monitorFlags.publish {
			if err := cfg.Validate("alerts"); err != nil {
				return err
			}
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		digest, err := runMonitor(ctx, env.Analyzer, cmd.OutOrStdout(), monitorFlags, time.Now())
		if err != nil {
			return err
		}

		if monitorFlags.publish {
			pub := crm.NewAlertPublisher(initNotion(cfg.Notion.AlertDB), resilience.GuardFrom("notion", cfg.Retry))
			n, err := pub.PublishDigest(ctx, digest)
			if err != nil {
				return err
			}
			zap.L().Info("alerts published", zap.Int("alerts", n))
		}
		return nil
	},
}

func runMonitor(ctx context.Context, analyzer *impact.Analyzer, stdout io.Writer, opts monitorOptions, now time.Time) (*impact.Digest, error) {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return nil, err
	}

	filter, err := signalFilter(opts.competitor, opts.types, opts.since, 0, now)
	if err != nil {
		return nil, err
	}
	filters, err := impact.ParseFilters(opts.segment, opts.tiers, opts.industry)
	if err != nil {
		return nil, err
	}

	digest, err := analyzer.Digest(ctx, impact.DigestRequest{
		Since:        filter.Since,
		CompetitorID: filter.CompetitorID,
		Types:        filter.Types,
		Filters:      filters,
	})
	if err != nil {
		return nil, err
	}

	err = writeReport(stdout, opts.output, format, func(w io.Writer) error {
		return report.WriteDigest(w, format, digest)
	})
	return digest, err
}

// runWatch runs the alert checker until interrupted.
func runWatch(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if monitorFlags.publish {
		cfg.Monitoring.PublishToNotion = true
	}
	env, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	checker, err := newChecker(env)
	if err != nil {
		return err
	}
	checker.Run(ctx)
	return nil
}

// newChecker builds the signal checker from the monitoring config.
func newChecker(env *appEnv) (*monitoring.Checker, error) {
	var opts []monitoring.CheckerOption
	if cfg.Monitoring.PublishToNotion {
		if err := cfg.Validate("alerts"); err != nil {
			return nil, err
		}
		opts = append(opts, monitoring.WithPublisher(
			crm.NewAlertPublisher(initNotion(cfg.Notion.AlertDB), resilience.GuardFrom("notion", cfg.Retry)),
		))
	}
	return monitoring.NewChecker(env.Analyzer, monitoring.NewAlerter(cfg.Monitoring), cfg.Monitoring, opts...), nil
}

func init() {
	f := monitorCmd.Flags()
	f.StringVar(&monitorFlags.since, "since", "", "window start (e.g. 24h, 2026-03-01); defaults to the configured digest window")
	f.StringVar(&monitorFlags.competitor, "competitor", "", "only signals for this competitor id")
	f.StringSliceVar(&monitorFlags.types, "type", nil, "only these signal types (repeatable)")
	f.StringVar(&monitorFlags.segment, "segment", "", "only customers in this segment")
	f.StringSliceVar(&monitorFlags.tiers, "tier", nil, "only customers in these tiers (repeatable)")
	f.StringVar(&monitorFlags.industry, "industry", "", "only customers in this industry")
	f.StringVar(&monitorFlags.format, "format", "table", "output format: table, csv, json, xlsx")
	f.StringVarP(&monitorFlags.output, "output", "o", "", "write to file instead of stdout")
	f.BoolVar(&monitorFlags.publish, "publish", false, "post alerts to the Notion alerts database")
	f.BoolVar(&monitorFlags.watch, "watch", false, "keep checking for new signals and send threshold alerts")
	rootCmd.AddCommand(monitorCmd)
}
