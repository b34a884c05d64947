package db

import (
	"context"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"migrations/002_signals.sql":   {Data: []byte("CREATE TABLE intel.signals (id TEXT);")},
		"migrations/001_customers.sql": {Data: []byte("CREATE TABLE intel.customers (id TEXT);")},
		"migrations/README.md":         {Data: []byte("not a migration")},
		"migrations/003_exposures.sql": {Data: []byte("CREATE TABLE intel.customer_exposures (id TEXT);")},
	}
}

func expectLock(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec("SELECT pg_advisory_lock").WithArgs(migrationLockID).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
}

func expectUnlock(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec("SELECT pg_advisory_unlock").WithArgs(migrationLockID).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
}

func TestMigrate_FreshDB(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectLock(mock)
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(`SELECT filename FROM "intel"."schema_migrations"`).
		WillReturnRows(pgxmock.NewRows([]string{"filename"}))
	for _, name := range []string{"001_customers.sql", "002_signals.sql", "003_exposures.sql"} {
		mock.ExpectExec("CREATE TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectExec(`INSERT INTO "intel"."schema_migrations"`).WithArgs(name).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	expectUnlock(mock)

	err = Migrate(context.Background(), mock, testMigrations(), "migrations", "intel")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_SkipsApplied(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectLock(mock)
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT filename FROM").
		WillReturnRows(pgxmock.NewRows([]string{"filename"}).AddRow("001_customers.sql").AddRow("002_signals.sql"))
	mock.ExpectExec("CREATE TABLE intel.customer_exposures").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO").WithArgs("003_exposures.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	expectUnlock(mock)

	err = Migrate(context.Background(), mock, testMigrations(), "migrations", "intel")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_ApplyFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectLock(mock)
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT filename FROM").WillReturnRows(pgxmock.NewRows([]string{"filename"}))
	mock.ExpectExec("CREATE TABLE intel.customers").WillReturnError(fmt.Errorf("syntax error"))
	expectUnlock(mock)

	err = Migrate(context.Background(), mock, testMigrations(), "migrations", "intel")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migration 001_customers.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_LockFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("SELECT pg_advisory_lock").WithArgs(migrationLockID).WillReturnError(fmt.Errorf("timeout"))

	err = Migrate(context.Background(), mock, testMigrations(), "migrations", "intel")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "advisory lock")
	assert.NoError(t, mock.ExpectationsWereMet())
}
