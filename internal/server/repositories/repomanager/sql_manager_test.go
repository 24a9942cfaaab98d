package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestSQLRepositoryManager_ImplementsInterface(t *testing.T) {
	var _ RepositoryManager = NewSQLRepositoryManager(DialectPostgres)
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := NewSQLRepositoryManager(DialectSQLite)

	if u := m.Users(db); u == nil {
		t.Fatal("Users() nil")
	}
	if tk := m.Tokens(db); tk == nil {
		t.Fatal("Tokens() nil")
	}

	var _ users.Repository = m.Users(db)
	var _ tokens.Repository = m.Tokens(db)
}

func TestDetectDialect(t *testing.T) {
	tests := map[string]Dialect{
		"postgres://u:p@localhost:5432/auth": DialectPostgres,
		"postgresql://localhost/auth":        DialectPostgres,
		"host=localhost user=u dbname=auth":  DialectPostgres,
		"file:auth.db":                       DialectSQLite,
		"./data/auth.sqlite":                 DialectSQLite,
		"file:test?mode=memory&cache=shared": DialectSQLite,
		"  POSTGRES://upper.example/auth   ": DialectPostgres,
	}
	for dsn, want := range tests {
		assert.Equal(t, want, DetectDialect(dsn), dsn)
	}
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t,
		"file:auth.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite",
		sqliteDSN("file:auth.db"))
	assert.Equal(t,
		"file:x?mode=memory&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite",
		sqliteDSN("file:x?mode=memory"))
}

func TestRunMigrations_UsesDialectDirectory(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var gotDir string
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	require.NoError(t, NewSQLRepositoryManager(DialectPostgres).RunMigrations(context.Background(), db))
	assert.Equal(t, "postgres", gotDir)

	require.NoError(t, NewSQLRepositoryManager(DialectSQLite).RunMigrations(context.Background(), db))
	assert.Equal(t, "sqlite", gotDir)
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := NewSQLRepositoryManager(DialectPostgres)
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestOpen_SQLiteInMemoryMigrates(t *testing.T) {
	ctx := context.Background()

	db, m, err := Open(ctx, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, DialectSQLite, m.Dialect())
	require.NoError(t, m.RunMigrations(ctx, db))

	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'password_reset_tokens', 'email_verify_tokens')`).Scan(&n))
	assert.Equal(t, 3, n)

	// idempotent
	require.NoError(t, m.RunMigrations(ctx, db))
}
