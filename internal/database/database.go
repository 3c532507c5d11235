package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/isdelr/userdir/internal/store"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// goose keeps its dialect and base FS in package state.
var gooseMu sync.Mutex

// New creates a new database connection pool for the given dialect.
func New(dialect, dataSource string) (*sql.DB, error) {
	var driver, dsn string
	switch dialect {
	case store.DialectSQLite:
		driver = "sqlite"
		dsn = "file:" + dataSource + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	case store.DialectPostgres:
		driver = "pgx"
		dsn = dataSource
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, nil
}

// gooseUp is a seam for testing goose.UpContext.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// Migrate applies the embedded schema migrations for the given dialect.
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	var gooseDialect string
	switch dialect {
	case store.DialectSQLite:
		gooseDialect = "sqlite3"
	case store.DialectPostgres:
		gooseDialect = "postgres"
	default:
		return fmt.Errorf("unsupported database dialect %q", dialect)
	}

	dir, err := fs.Sub(migrations, "migrations/"+dialect)
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", dialect, err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(dir)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseUp(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	log.Debug().Str("component", "migrate").Msgf(format, v...)
}

// Fatalf only logs; goose returns the failure to Migrate as an error.
func (gooseLogger) Fatalf(format string, v ...any) {
	log.Error().Str("component", "migrate").Msgf(format, v...)
}
