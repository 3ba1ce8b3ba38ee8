package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with a uniqueness
// invariant (slug, section order) and retrying did not resolve it.
var ErrConflict = errors.New("conflict")

const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
)

// isUniqueViolation reports whether err is a Postgres unique violation,
// optionally restricted to one constraint name.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != pqUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// isSerializationFailure reports whether err is a Postgres serialization
// conflict, which callers may retry.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == pqSerializationFailure
}
