package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// uniqueViolationMessages match drivers that surface neither a pgconn error
// nor gorm.ErrDuplicatedKey: lib-level postgres wrappers and sqlite (2067).
var uniqueViolationMessages = []string{
	"duplicate key value violates unique constraint",
	"UNIQUE constraint failed",
}

// IsDuplicateKeyErr reports whether err is a unique constraint violation,
// the signal that a concurrently allocated invoice number or row id won.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := err.Error()
	for _, m := range uniqueViolationMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
