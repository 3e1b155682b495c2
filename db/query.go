package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/georgysavva/scany/v2/sqlscan"
)

// ErrNotFound is returned by QueryOne when the query yields no row.
var ErrNotFound = errors.New("db: no rows in result set")

// Querier is implemented by *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Beginner starts transactions; *sql.DB implements it.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithTx runs fn inside a transaction, committing when fn succeeds and
// rolling back on error or panic.
func WithTx[T any](ctx context.Context, db Beginner, fn func(*sql.Tx) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	result, err := fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return zero, fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return zero, err
	}

	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// QueryMany scans every row into a T.
func QueryMany[T any](ctx context.Context, querier Querier, query string, args ...any) ([]T, error) {
	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	results := []T{}
	if err := sqlscan.ScanAll(&results, rows); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return results, nil
}

// QueryOne scans exactly one row into a T. A query without rows returns
// ErrNotFound.
func QueryOne[T any](ctx context.Context, querier Querier, query string, args ...any) (T, error) {
	var result T

	slog.DebugContext(ctx, "QueryOne executing", "query", query)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return result, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	if err := sqlscan.ScanOne(&result, rows); err != nil {
		if sqlscan.NotFound(err) {
			return result, ErrNotFound
		}
		return result, fmt.Errorf("scan failed: %w", err)
	}
	return result, nil
}

// Exec runs a statement and returns the number of affected rows.
func Exec(ctx context.Context, querier Querier, query string, args ...any) (int64, error) {
	result, err := querier.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
