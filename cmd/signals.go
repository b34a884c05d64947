package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/competitive-intel/internal/model"
	"github.com/sells-group/competitive-intel/internal/store"
)

type signalsOptions struct {
	competitor string
	types      []string
	since      string
	limit      int
	json       bool
}

var signalsFlags signalsOptions

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "List detected competitive signals, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.Migrate(cmd.Context()); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		return runSignals(cmd.Context(), st, cmd.OutOrStdout(), signalsFlags, time.Now())
	},
}

func runSignals(ctx context.Context, repo store.SignalRepository, out io.Writer, opts signalsOptions, now time.Time) error {
	filter, err := signalFilter(opts.competitor, opts.types, opts.since, opts.limit, now)
	if err != nil {
		return err
	}

	signals, err := repo.ListSignals(ctx, filter)
	if err != nil {
		return eris.Wrap(err, "list signals")
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(signals), "encode signals")
	}

	if len(signals) == 0 {
		_, _ = fmt.Fprintln(out, "No signals found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCOMPETITOR\tTYPE\tDETECTED\tTITLE")
	_, _ = fmt.Fprintln(w, "--\t----------\t----\t--------\t-----")
	for _, s := range signals {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncateID(s.ID),
			s.CompetitorID,
			s.Type,
			s.DetectedAt.Format("2006-01-02 15:04"),
			s.Title,
		)
	}
	return eris.Wrap(w.Flush(), "write signals")
}

// signalFilter builds a store filter from command flags. since accepts a
// duration back from now ("72h") or an RFC 3339 timestamp.
func signalFilter(competitor string, types []string, since string, limit int, now time.Time) (store.SignalFilter, error) {
	f := store.SignalFilter{CompetitorID: competitor, Limit: limit}

	for _, raw := range types {
		t, err := model.ParseSignalType(raw)
		if err != nil {
			return store.SignalFilter{}, err
		}
		f.Types = append(f.Types, t)
	}

	if since != "" {
		t, err := parseSince(since, now)
		if err != nil {
			return store.SignalFilter{}, err
		}
		f.Since = t
	}
	if limit < 0 {
		return store.SignalFilter{}, eris.New("--limit must not be negative")
	}
	return f, nil
}

func parseSince(s string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return time.Time{}, eris.Errorf("--since %q must be a positive duration", s)
		}
		return now.Add(-d).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, eris.Errorf("--since %q is not a duration, date or RFC 3339 timestamp", s)
}

// truncateID returns the first 8 characters of long generated ids.
func truncateID(id string) string {
	if len(id) == 36 {
		return id[:8]
	}
	return id
}

func init() {
	f := signalsCmd.Flags()
	f.StringVar(&signalsFlags.competitor, "competitor", "", "only signals for this competitor id")
	f.StringSliceVar(&signalsFlags.types, "type", nil, "only these signal types (repeatable)")
	f.StringVar(&signalsFlags.since, "since", "", "only signals after this point (e.g. 72h, 2026-03-01)")
	f.IntVar(&signalsFlags.limit, "limit", 50, "maximum signals to list")
	f.BoolVar(&signalsFlags.json, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(signalsCmd)
}
