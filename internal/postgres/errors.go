package postgres

import (
	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
)

// UniqueViolation is the SQLSTATE postgres reports for a unique index conflict
const UniqueViolation = pq.ErrorCode("23505")

// IsUniqueViolation reports whether err is a unique violation, optionally on a named constraint
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != UniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
