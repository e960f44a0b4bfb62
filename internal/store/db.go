// Package store persists application entities in SQLite (development) or PostgreSQL (production).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

// Dialect selects the SQL flavour of the underlying database.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// DB is a database handle that knows its dialect.
type DB struct {
	*sql.DB
	dialect Dialect
}

// Open connects to the database behind driver ("sqlite", "pgx" or "postgres") and dsn.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var dialect Dialect
	switch driver {
	case "sqlite":
		dialect = SQLite
	case "pgx", "postgres":
		driver, dialect = "pgx", Postgres
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	if dialect == SQLite {
		// One connection: SQLite has a single writer, and ":memory:" databases are per connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", driver, err)
	}

	return &DB{DB: db, dialect: dialect}, nil
}
