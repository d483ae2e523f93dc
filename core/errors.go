package core

import (
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrConfig is returned when the configured backend is unusable; a
	// process hitting this at startup should not keep running.
	ErrConfig = errors.New("backend configuration invalid")
	// ErrScopeClosed is returned when a statement is issued on a
	// transaction scope that has already been released.
	ErrScopeClosed = errors.New("transaction scope already released")
)

// uniqueViolation is the PostgreSQL error code for a unique constraint.
const uniqueViolation = "23505"

// IsDuplicateKey reports whether err is a unique-key violation from
// either backend, so domain modules can branch on "already exists"
// without knowing which engine is active.
func IsDuplicateKey(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
