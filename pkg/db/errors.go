package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// IsUniqueViolation reports whether err is a unique constraint failure. When
// constraintName is provided the constraint must also match. Both Postgres
// and sqlite wordings are recognised.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if pg, ok := pkgerrors.PGError(err); ok {
		if pg.Code != pgUniqueViolation {
			return false
		}
		return constraintName == "" || pg.Constraint == constraintName
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return constraintName == "" &&
		(strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed"))
}

// IsSerializationFailure reports a transaction Postgres aborted because of a
// concurrent writer. sqlite reports the same situation as a busy database.
func IsSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	if pg, ok := pkgerrors.PGError(err); ok {
		return pg.Code == pgSerializationFailure || pg.Code == pgDeadlockDetected
	}
	return strings.Contains(err.Error(), "database is locked")
}
