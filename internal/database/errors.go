package database

import (
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrStorageFailure wraps every store error other than a duplicate link.
var ErrStorageFailure = errors.New("storage failure")

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a driver uniqueness error.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}

	return false
}
