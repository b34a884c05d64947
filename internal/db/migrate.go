package db

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// migrationLockID serializes concurrent migration runs across processes.
const migrationLockID = 4242_0017

// Migrate applies every *.sql file in dir of fsys that is not yet recorded
// in <schema>.schema_migrations, in lexicographic order.
func Migrate(ctx context.Context, pool Pool, fsys fs.FS, dir, schema string) error {
	log := zap.L().With(zap.String("component", "db.migrate"), zap.String("schema", schema))

	if _, err := pool.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return eris.Wrap(err, "db: acquire migration advisory lock")
	}
	defer func() {
		if _, err := pool.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID); err != nil {
			log.Warn("db: failed to release migration advisory lock", zap.Error(err))
		}
	}()

	if err := ensureMigrationTable(ctx, pool, schema); err != nil {
		return err
	}

	names, err := migrationFiles(fsys, dir)
	if err != nil {
		return err
	}

	applied, err := appliedMigrations(ctx, pool, schema)
	if err != nil {
		return err
	}

	record := fmt.Sprintf("INSERT INTO %s (filename, applied_at) VALUES ($1, now())",
		pgx.Identifier{schema, "schema_migrations"}.Sanitize())

	for _, name := range names {
		if applied[name] {
			continue
		}

		data, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return eris.Wrapf(err, "db: read migration %s", name)
		}

		log.Info("applying migration", zap.String("file", name))

		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return eris.Wrapf(err, "db: apply migration %s", name)
		}
		if _, err := pool.Exec(ctx, record, name); err != nil {
			return eris.Wrapf(err, "db: record migration %s", name)
		}
	}

	return nil
}

func migrationFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, eris.Wrap(err, "db: read migration dir")
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func ensureMigrationTable(ctx context.Context, pool Pool, schema string) error {
	sql := fmt.Sprintf(`
		CREATE SCHEMA IF NOT EXISTS %s;
		CREATE TABLE IF NOT EXISTS %s (
			id         SERIAL PRIMARY KEY,
			filename   TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		pgx.Identifier{schema}.Sanitize(),
		pgx.Identifier{schema, "schema_migrations"}.Sanitize(),
	)
	if _, err := pool.Exec(ctx, sql); err != nil {
		return eris.Wrap(err, "db: ensure migration table")
	}
	return nil
}

func appliedMigrations(ctx context.Context, pool Pool, schema string) (map[string]bool, error) {
	rows, err := pool.Query(ctx, "SELECT filename FROM "+pgx.Identifier{schema, "schema_migrations"}.Sanitize())
	if err != nil {
		return nil, eris.Wrap(err, "db: query applied migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "db: scan migration row")
		}
		applied[name] = true
	}
	return applied, eris.Wrap(rows.Err(), "db: iterate migration rows")
}
