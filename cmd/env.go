package main

import (
	"context"
	"os"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/competitive-intel/internal/crm"
	"github.com/sells-group/competitive-intel/internal/impact"
	"github.com/sells-group/competitive-intel/internal/resilience"
	"github.com/sells-group/competitive-intel/internal/store"
	"github.com/sells-group/competitive-intel/pkg/notion"
	sfpkg "github.com/sells-group/competitive-intel/pkg/salesforce"
)

// defaultSQLitePath is used when the sqlite driver has no database_url.
const defaultSQLitePath = "competitive-intel.db"

// appEnv holds the store, the directories chosen by config and the
// analyzer built on top of them.
type appEnv struct {
	Store       store.Store
	Competitors store.CompetitorRepository
	Customers   store.CustomerRepository
	Analyzer    *impact.Analyzer
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv opens the store, resolves the customer and competitor directories
// and builds the Analyzer. Callers should defer env.Close().
func initEnv(ctx context.Context, opts ...impact.Option) (*appEnv, error) {
	if err := cfg.Validate("directory"); err != nil {
		return nil, err
	}
	if err := impact.ValidateConfig(cfg.Impact); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	customers, err := initCustomers(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	competitors, err := initCompetitors(st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	zap.L().Info("directories ready",
		zap.String("store", cfg.Store.Driver),
		zap.String("customers", cfg.Directory.Customers),
		zap.String("competitors", cfg.Directory.Competitors),
	)

	return &appEnv{
		Store:       st,
		Competitors: competitors,
		Customers:   customers,
		Analyzer:    impact.NewAnalyzer(competitors, customers, st, cfg.Impact, opts...),
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "fixture":
		f, err := store.LoadFixture(cfg.Store.FixturePath)
		if err != nil {
			return nil, err
		}
		return store.NewMemoryStore(f), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initCustomers(ctx context.Context, st store.Store) (store.CustomerRepository, error) {
	switch cfg.Directory.Customers {
	case "salesforce":
		client, err := initSalesforce()
		if err != nil {
			return nil, err
		}
		dir := crm.NewSalesforceDirectory(client, resilience.GuardFrom("salesforce", cfg.Retry))
		if err := dir.Check(ctx); err != nil {
			return nil, err
		}
		return dir, nil
	default:
		return st, nil
	}
}

func initCompetitors(st store.Store) (store.CompetitorRepository, error) {
	switch cfg.Directory.Competitors {
	case "notion":
		return crm.NewNotionRegistry(
			initNotion(cfg.Notion.CompetitorDB),
			resilience.GuardFrom("notion", cfg.Retry),
		), nil
	default:
		return st, nil
	}
}

func initSalesforce() (sfpkg.Client, error) {
	if err := cfg.Validate("salesforce"); err != nil {
		return nil, err
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf, sfpkg.WithRateLimit(cfg.Salesforce.RateLimit)), nil
}

func initNotion(dbID string) notion.Client {
	return notion.NewClient(cfg.Notion.Token, dbID, notion.WithRateLimit(cfg.Notion.RateLimit))
}
