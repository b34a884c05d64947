package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/competitive-intel/internal/store"
)

var seedFixturePath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
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
		zap.L().Info("migrations applied", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load competitors, customers and signals from a YAML fixture",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("store"); err != nil {
			return err
		}
		path := seedFixturePath
		if path == "" {
			path = cfg.Store.FixturePath
		}
		if path == "" {
			return eris.New("--fixture is required (or set store.fixture_path)")
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		return runSeed(cmd.Context(), st, path)
	},
}

func runSeed(ctx context.Context, st store.Store, path string) error {
	f, err := store.LoadFixture(path)
	if err != nil {
		return err
	}
	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrate store")
	}
	if err := st.Seed(ctx, f); err != nil {
		return eris.Wrap(err, "seed store")
	}

	zap.L().Info("fixture seeded",
		zap.String("path", path),
		zap.Int("competitors", len(f.Competitors)),
		zap.Int("customers", len(f.Customers)),
		zap.Int("signals", len(f.Signals)),
	)
	return nil
}

func init() {
	seedCmd.Flags().StringVar(&seedFixturePath, "fixture", "", "path to the YAML fixture (default store.fixture_path)")
	rootCmd.AddCommand(migrateCmd, seedCmd)
}
