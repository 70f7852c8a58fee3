package sqljson

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// OpenDB opens a database/sql handle on the pgx driver.
func OpenDB(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// OpenBun wraps a database/sql handle in a bun.DB on the Postgres dialect.
// JSON[T] columns work with bun out of the box through driver.Valuer and
// sql.Scanner.
func OpenBun(sqldb *sql.DB) *bun.DB {
	return bun.NewDB(sqldb, pgdialect.New())
}
