package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/kitekeeper/internal/dbx"
	"github.com/dmitrijs2005/kitekeeper/internal/server/migrations"
	"github.com/dmitrijs2005/kitekeeper/internal/server/repositories/tokens"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager vends SQL-backed token repositories and exposes a
// schema migration hook. One type serves both PostgreSQL and SQLite; they
// differ in goose dialect, migration directory and repository constructor.
type SQLRepositoryManager struct {
	db        *sql.DB
	dialect   string
	dir       string
	newTokens func(dbx.DBTX) tokens.Repository
}

// NewPostgresRepositoryManager wraps a pgx-backed *sql.DB.
func NewPostgresRepositoryManager(db *sql.DB) *SQLRepositoryManager {
	return &SQLRepositoryManager{
		db:      db,
		dialect: "pgx",
		dir:     migrations.PostgresDir,
		newTokens: func(db dbx.DBTX) tokens.Repository {
			return tokens.NewPostgresRepository(db)
		},
	}
}

// NewSQLiteRepositoryManager wraps a modernc sqlite *sql.DB.
func NewSQLiteRepositoryManager(db *sql.DB) *SQLRepositoryManager {
	return &SQLRepositoryManager{
		db:      db,
		dialect: "sqlite3",
		dir:     migrations.SQLiteDir,
		newTokens: func(db dbx.DBTX) tokens.Repository {
			return tokens.NewSQLiteRepository(db)
		},
	}
}

// Tokens returns a tokens.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Tokens(db dbx.DBTX) tokens.Repository {
	return m.newTokens(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the managed database.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect); err != nil {
		return fmt.Errorf("goose dialect %q: %w", m.dialect, err)
	}
	if err := gooseUpContext(ctx, m.db, m.dir); err != nil {
		return err
	}
	return nil
}

func (m *SQLRepositoryManager) Read(ctx context.Context, fn ScopeFunc) error {
	return dbx.WithConn(ctx, m.db, func(ctx context.Context, conn dbx.DBTX) error {
		return fn(ctx, m.Tokens(conn))
	})
}

func (m *SQLRepositoryManager) Write(ctx context.Context, fn ScopeFunc) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, m.Tokens(tx))
	})
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}
