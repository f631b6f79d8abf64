// Package repository implements data access over *sql.DB.  This file
// defines error values and helpers reused across repositories.  Sentinel
// values let handlers distinguish failure scenarios: ErrForbidden means the
// caller does not own the resource it is mutating, ErrConflict means a
// unique constraint was violated.  Absence of a row is signalled with
// sql.ErrNoRows straight from the driver.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or update violates a unique
// constraint, such as registering a user name that is already taken.
// Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062 from a unique index).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
