package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/competitive-intel/internal/model"
)

//go:embed migrations/sqlite.sql
var sqliteMigration string

// sqliteTimeLayout is fixed width so stored timestamps sort lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetCompetitor(ctx context.Context, id string) (*model.Competitor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, target_industries, customer_segments FROM competitors WHERE id = ?`, id)

	c, err := scanSQLiteCompetitor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get competitor %s", id)
	}
	return c, nil
}

func (s *SQLiteStore) ListCompetitors(ctx context.Context) ([]model.Competitor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, target_industries, customer_segments FROM competitors ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list competitors")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Competitor
	for rows.Next() {
		c, err := scanSQLiteCompetitor(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan competitor")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list competitors iterate")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteCompetitor(row rowScanner) (*model.Competitor, error) {
	var (
		c                    model.Competitor
		industries, segments string
	)
	if err := row.Scan(&c.ID, &c.Name, &industries, &segments); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(industries), &c.TargetIndustries); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode target industries for %s", c.ID)
	}
	if err := json.Unmarshal([]byte(segments), &c.TypicalCustomerSegments); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode customer segments for %s", c.ID)
	}
	return &c, nil
}

func (s *SQLiteStore) ListCustomersWithExposure(ctx context.Context, competitorID string) ([]model.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.id, c.company_name, c.industry, c.segment, c.tier,
		c.account_value, c.engagement_score, c.renewal_date,
		e.calls_mentioned, e.considered_alternative, e.risk_tag
	FROM customers c
	LEFT JOIN customer_exposures e ON e.customer_id = c.id AND e.competitor_id = ?
	ORDER BY c.id`, competitorID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list customers for %s", competitorID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Customer
	for rows.Next() {
		var (
			c          model.Customer
			tier       string
			renewal    string
			calls      sql.NullInt64
			considered sql.NullBool
			riskTag    sql.NullString
		)
		if err := rows.Scan(
			&c.ID, &c.CompanyName, &c.Industry, &c.Segment, &tier,
			&c.AccountValue, &c.EngagementScore, &renewal,
			&calls, &considered, &riskTag,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan customer")
		}

		c.Tier = model.NormalizeTier(tier)
		c.RenewalDate, err = parseSQLiteTime(renewal)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: renewal date for %s", c.ID)
		}
		if riskTag.Valid {
			c.Exposure = map[string]*model.CustomerExposure{competitorID: {
				CallsMentioned:        int(calls.Int64),
				ConsideredAlternative: considered.Bool,
				RiskTag:               model.NormalizeRiskTag(riskTag.String),
			}}
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list customers iterate")
}

func (s *SQLiteStore) GetSignal(ctx context.Context, id string) (*model.Signal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, competitor_id, type, title, summary, source_url, detected_at FROM signals WHERE id = ?`, id)

	sig, err := scanSQLiteSignal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get signal %s", id)
	}
	return sig, nil
}

func (s *SQLiteStore) ListSignals(ctx context.Context, filter SignalFilter) ([]model.Signal, error) {
	query := `SELECT id, competitor_id, type, title, summary, source_url, detected_at FROM signals WHERE 1=1`
	var args []any

	if filter.CompetitorID != "" {
		query += ` AND competitor_id = ?`
		args = append(args, filter.CompetitorID)
	}
	if len(filter.Types) > 0 {
		query += ` AND type IN (?` + strings.Repeat(`, ?`, len(filter.Types)-1) + `)`
		for _, t := range filter.Types {
			args = append(args, string(t))
		}
	}
	if !filter.Since.IsZero() {
		query += ` AND detected_at >= ?`
		args = append(args, formatSQLiteTime(filter.Since))
	}
	if !filter.Until.IsZero() {
		query += ` AND detected_at <= ?`
		args = append(args, formatSQLiteTime(filter.Until))
	}
	query += ` ORDER BY detected_at DESC, id LIMIT ?`
	args = append(args, signalLimit(filter))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list signals")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Signal
	for rows.Next() {
		sig, err := scanSQLiteSignal(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan signal")
		}
		out = append(out, *sig)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list signals iterate")
}

func scanSQLiteSignal(row rowScanner) (*model.Signal, error) {
	var (
		sig      model.Signal
		typ      string
		detected string
	)
	if err := row.Scan(&sig.ID, &sig.CompetitorID, &typ, &sig.Title, &sig.Summary, &sig.SourceURL, &detected); err != nil {
		return nil, err
	}
	sig.Type = model.SignalType(typ)

	var err error
	sig.DetectedAt, err = parseSQLiteTime(detected)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: detected_at for %s", sig.ID)
	}
	return &sig, nil
}

// Seed upserts the fixture in a single transaction.
func (s *SQLiteStore) Seed(ctx context.Context, f *Fixture) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: seed begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, c := range f.Competitors {
		industries, err := json.Marshal(nonNil(c.TargetIndustries))
		if err != nil {
			return eris.Wrap(err, "sqlite: encode target industries")
		}
		segments, err := json.Marshal(nonNil(c.TypicalCustomerSegments))
		if err != nil {
			return eris.Wrap(err, "sqlite: encode customer segments")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO competitors (id, name, target_industries, customer_segments) VALUES (?, ?, ?, ?)`,
			c.ID, c.Name, string(industries), string(segments),
		); err != nil {
			return eris.Wrapf(err, "sqlite: seed competitor %s", c.ID)
		}
	}

	for _, c := range f.Customers {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO customers (id, company_name, industry, segment, tier, account_value, engagement_score, renewal_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.CompanyName, c.Industry, c.Segment, string(c.Tier),
			c.AccountValue, c.EngagementScore, formatSQLiteTime(c.RenewalDate),
		); err != nil {
			return eris.Wrapf(err, "sqlite: seed customer %s", c.ID)
		}
	}

	for _, r := range f.exposureRows() {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO customer_exposures (customer_id, competitor_id, calls_mentioned, considered_alternative, risk_tag)
			VALUES (?, ?, ?, ?, ?)`,
			r.customerID, r.competitorID, r.exposure.CallsMentioned, r.exposure.ConsideredAlternative, string(r.exposure.RiskTag),
		); err != nil {
			return eris.Wrapf(err, "sqlite: seed exposure %s/%s", r.customerID, r.competitorID)
		}
	}

	for _, sig := range f.Signals {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO signals (id, competitor_id, type, title, summary, source_url, detected_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sig.ID, sig.CompetitorID, string(sig.Type), sig.Title, sig.Summary, sig.SourceURL, formatSQLiteTime(sig.DetectedAt),
		); err != nil {
			return eris.Wrapf(err, "sqlite: seed signal %s", sig.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: seed commit")
}

func formatSQLiteTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
