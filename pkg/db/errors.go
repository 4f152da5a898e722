package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint violation on
// postgres or sqlite. When constraintName is provided the error text must
// also reference it (postgres names the index, sqlite names table.column).
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if !isUnique(err) {
		return false
	}
	if constraintName != "" {
		return strings.Contains(err.Error(), constraintName)
	}
	return true
}

// IsForeignKeyViolation reports whether err references a missing parent row.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := pgCode(err); ok {
		return code == pgForeignKeyViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	msg := err.Error()
	return strings.Contains(msg, "violates foreign key constraint") ||
		strings.Contains(msg, "FOREIGN KEY constraint failed")
}

// IsIntegrityViolation groups the constraint failures a caller may recover from locally.
func IsIntegrityViolation(err error) bool {
	return IsUniqueViolation(err, "") || IsForeignKeyViolation(err)
}

// IsNotFound reports whether a First/Take lookup found no row.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isUnique(err error) bool {
	if code, ok := pgCode(err); ok {
		return code == pgUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

func pgCode(err error) (string, bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}
	return "", false
}
