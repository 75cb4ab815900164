// Package store persists an audit trail of background load runs.
package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	"github.com/perbu/sessmon/internal/store/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Store wraps a database connection
type Store struct {
	*sql.DB
	driver string
}

// Open opens the audit store and runs migrations. driver is "sqlite"
// (default; the database file lives in dataDir) or "postgres" (dsn
// required).
func Open(driver, dsn, dataDir string) (*Store, error) {
	var (
		sqlDB        *sql.DB
		err          error
		gooseDialect string
	)

	switch driver {
	case "", "sqlite":
		driver = "sqlite"
		gooseDialect = "sqlite3"
		path := filepath.Join(dataDir, "sessmon.db")
		sqlDB, err = sql.Open("sqlite", path)
	case "postgres":
		gooseDialect = "postgres"
		if dsn == "" {
			return nil, fmt.Errorf("postgres store requires a dsn")
		}
		sqlDB, err = sql.Open("postgres", dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(gooseDialect); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(sqlDB, "."); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{DB: sqlDB, driver: driver}, nil
}

// bind rewrites ? placeholders to $n for the postgres driver. The queries
// in this package are written with ? and stay portable across both
// backends.
func (s *Store) bind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
