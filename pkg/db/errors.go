package db

import (
	"strings"

	pkgerrors "github.com/padimart/padimart-backend/pkg/errors"
)

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether the error is a Postgres unique violation,
// optionally scoped to a named constraint. Driver diagnostics are preferred;
// message matching covers errors that arrive already flattened to strings.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	d := pkgerrors.Dump(err)
	if d.PGCode != "" {
		if d.PGCode != uniqueViolationCode {
			return false
		}
		return constraintName == "" || d.PGConstraint == constraintName
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}
