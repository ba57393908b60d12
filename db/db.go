package db

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"
)

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func LogAndQuery(ctx context.Context, db Querier, query string, args ...interface{}) (*sql.Rows, error) {
	logQuery(ctx, query, args)
	return db.QueryContext(ctx, query, args...)
}

func LogAndQueryRow(ctx context.Context, db Querier, query string, args ...interface{}) *sql.Row {
	logQuery(ctx, query, args)
	return db.QueryRowContext(ctx, query, args...)
}

func LogAndExec(ctx context.Context, db Querier, query string, args ...interface{}) (sql.Result, error) {
	logQuery(ctx, query, args)
	return db.ExecContext(ctx, query, args...)
}

// logQuery writes to the request logger carried by ctx, if any.
func logQuery(ctx context.Context, query string, args []interface{}) {
	zerolog.Ctx(ctx).Debug().Str("query", query).Interface("args", args).Msg("sql")
}
