// Package postgres implements the domain repository interfaces over a
// pgxpool connection.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// isPgUniqueViolation checks if an error is a PostgreSQL unique constraint violation
func isPgUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// PostgreSQL unique violation error code is 23505
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// parseNumeric converts a numeric column selected as text into a decimal.
func parseNumeric(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
