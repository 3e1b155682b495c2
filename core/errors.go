package core

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the API maps to client errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrorCode(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil, false
	}
	return pgErr, true
}

// IsUniqueConstraintError checks if an error is a unique constraint violation.
// An empty constraintName matches any unique constraint.
func IsUniqueConstraintError(err error, constraintName string) bool {
	pgErr, ok := pgErrorCode(err)
	if !ok || pgErr.Code != pgUniqueViolation {
		return false
	}
	return strings.Contains(pgErr.ConstraintName, constraintName)
}

// IsForeignKeyConstraintError checks if an error is a foreign key violation.
// An empty constraintName matches any foreign key.
func IsForeignKeyConstraintError(err error, constraintName string) bool {
	pgErr, ok := pgErrorCode(err)
	if !ok || pgErr.Code != pgForeignKeyViolation {
		return false
	}
	return strings.Contains(pgErr.ConstraintName, constraintName)
}
