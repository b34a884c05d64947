package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/competitive-intel/internal/db"
	"github.com/sells-group/competitive-intel/internal/model"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// postgresSchema holds every table owned by this service.
const postgresSchema = "intel"

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres connects to connString and returns a PostgresStore.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.NewPool(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Close is a no-op.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return db.Migrate(ctx, s.pool, postgresMigrations, "migrations/postgres", postgresSchema)
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const competitorColumns = `id, name, target_industries, customer_segments`

func (s *PostgresStore) GetCompetitor(ctx context.Context, id string) (*model.Competitor, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+competitorColumns+` FROM intel.competitors WHERE id = $1`, id)

	var c model.Competitor
	if err := row.Scan(&c.ID, &c.Name, &c.TargetIndustries, &c.TypicalCustomerSegments); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get competitor %s", id)
	}
	return &c, nil
}

func (s *PostgresStore) ListCompetitors(ctx context.Context) ([]model.Competitor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+competitorColumns+` FROM intel.competitors ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list competitors")
	}
	defer rows.Close()

	var out []model.Competitor
	for rows.Next() {
		var c model.Competitor
		if err := rows.Scan(&c.ID, &c.Name, &c.TargetIndustries, &c.TypicalCustomerSegments); err != nil {
			return nil, eris.Wrap(err, "postgres: scan competitor")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list competitors iterate")
}

const listCustomersSQL = `SELECT c.id, c.company_name, c.industry, c.segment, c.tier,
	c.account_value, c.engagement_score, c.renewal_date,
	e.calls_mentioned, e.considered_alternative, e.risk_tag
FROM intel.customers c
LEFT JOIN intel.customer_exposures e ON e.customer_id = c.id AND e.competitor_id = $1
ORDER BY c.id`

func (s *PostgresStore) ListCustomersWithExposure(ctx context.Context, competitorID string) ([]model.Customer, error) {
	rows, err := s.pool.Query(ctx, listCustomersSQL, competitorID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list customers for %s", competitorID)
	}
	defer rows.Close()

	var out []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows, competitorID)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list customers iterate")
}

func scanCustomer(rows pgx.Rows, competitorID string) (*model.Customer, error) {
	var (
		c          model.Customer
		tier       string
		renewal    *time.Time
		calls      *int
		considered *bool
		riskTag    *string
	)
	if err := rows.Scan(
		&c.ID, &c.CompanyName, &c.Industry, &c.Segment, &tier,
		&c.AccountValue, &c.EngagementScore, &renewal,
		&calls, &considered, &riskTag,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: scan customer")
	}

	c.Tier = model.NormalizeTier(tier)
	if renewal != nil {
		c.RenewalDate = renewal.UTC()
	}
	if riskTag != nil {
		exp := &model.CustomerExposure{RiskTag: model.NormalizeRiskTag(*riskTag)}
		if calls != nil {
			exp.CallsMentioned = *calls
		}
		if considered != nil {
			exp.ConsideredAlternative = *considered
		}
		c.Exposure = map[string]*model.CustomerExposure{competitorID: exp}
	}
	return &c, nil
}

const signalColumns = `id, competitor_id, type, title, summary, source_url, detected_at`

func (s *PostgresStore) GetSignal(ctx context.Context, id string) (*model.Signal, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+signalColumns+` FROM intel.signals WHERE id = $1`, id)

	sig, err := scanSignal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get signal %s", id)
	}
	return sig, nil
}

func (s *PostgresStore) ListSignals(ctx context.Context, filter SignalFilter) ([]model.Signal, error) {
	query, args := buildSignalQuery(filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list signals")
	}
	defer rows.Close()

	var out []model.Signal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan signal")
		}
		out = append(out, *sig)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list signals iterate")
}

func buildSignalQuery(f SignalFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.CompetitorID != "" {
		add("competitor_id = $%d", f.CompetitorID)
	}
	if len(f.Types) > 0 {
		add("type = ANY($%d)", typeStrings(f.Types))
	}
	if !f.Since.IsZero() {
		add("detected_at >= $%d", f.Since)
	}
	if !f.Until.IsZero() {
		add("detected_at <= $%d", f.Until)
	}

	query := `SELECT ` + signalColumns + ` FROM intel.signals`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, signalLimit(f))
	query += fmt.Sprintf(` ORDER BY detected_at DESC, id LIMIT $%d`, len(args))
	return query, args
}

func scanSignal(row pgx.Row) (*model.Signal, error) {
	var (
		sig model.Signal
		typ string
	)
	if err := row.Scan(&sig.ID, &sig.CompetitorID, &typ, &sig.Title, &sig.Summary, &sig.SourceURL, &sig.DetectedAt); err != nil {
		return nil, err
	}
	sig.Type = model.SignalType(typ)
	sig.DetectedAt = sig.DetectedAt.UTC()
	return &sig, nil
}

// Seed bulk-upserts the fixture, parents first.
func (s *PostgresStore) Seed(ctx context.Context, f *Fixture) error {
	var competitors, customers, exposures, signals [][]any

	for _, c := range f.Competitors {
		competitors = append(competitors, []any{c.ID, c.Name, nonNil(c.TargetIndustries), nonNil(c.TypicalCustomerSegments)})
	}
	for _, c := range f.Customers {
		customers = append(customers, []any{
			c.ID, c.CompanyName, c.Industry, c.Segment, string(c.Tier),
			c.AccountValue, c.EngagementScore, nullTime(c.RenewalDate),
		})
	}
	for _, r := range f.exposureRows() {
		exposures = append(exposures, []any{
			r.customerID, r.competitorID, int32(r.exposure.CallsMentioned),
			r.exposure.ConsideredAlternative, string(r.exposure.RiskTag),
		})
	}
	for _, sig := range f.Signals {
		signals = append(signals, []any{
			sig.ID, sig.CompetitorID, string(sig.Type), sig.Title, sig.Summary, sig.SourceURL, sig.DetectedAt.UTC(),
		})
	}

	steps := []struct {
		cfg  db.UpsertConfig
		rows [][]any
	}{
		{db.UpsertConfig{
			Table:        "intel.competitors",
			Columns:      []string{"id", "name", "target_industries", "customer_segments"},
			ConflictKeys: []string{"id"},
		}, competitors},
		{db.UpsertConfig{
			Table:        "intel.customers",
			Columns:      []string{"id", "company_name", "industry", "segment", "tier", "account_value", "engagement_score", "renewal_date"},
			ConflictKeys: []string{"id"},
		}, customers},
		{db.UpsertConfig{
			Table:        "intel.customer_exposures",
			Columns:      []string{"customer_id", "competitor_id", "calls_mentioned", "considered_alternative", "risk_tag"},
			ConflictKeys: []string{"customer_id", "competitor_id"},
		}, exposures},
		{db.UpsertConfig{
			Table:        "intel.signals",
			Columns:      []string{"id", "competitor_id", "type", "title", "summary", "source_url", "detected_at"},
			ConflictKeys: []string{"id"},
		}, signals},
	}

	for _, step := range steps {
		n, err := db.BulkUpsert(ctx, s.pool, step.cfg, step.rows)
		if err != nil {
			return eris.Wrapf(err, "postgres: seed %s", step.cfg.Table)
		}
		zap.L().Info("postgres: seeded table",
			zap.String("table", step.cfg.Table),
			zap.Int64("rows", n),
		)
	}
	return nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
