package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation
const pgUniqueViolation = "23505"

// isDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation
// on the named constraint
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation &&
			strings.EqualFold(pgErr.ConstraintName, constraintName)
	}
	// GORM translates driver errors when TranslateError is enabled; the constraint
	// name is lost, but appointments carry no other unique index besides the key.
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
