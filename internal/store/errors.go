package store

import (
	"errors"
	"strings"
)

// Sentinel errors returned by Store operations. Callers match with errors.Is.
var (
	// ErrDuplicate is returned by Insert when a record with the same
	// (command, cwd) pair already exists. Callers recover by re-finding
	// the record and calling Touch.
	ErrDuplicate = errors.New("omniscient: duplicate command")

	// ErrNotFound is returned when a record id or (command, cwd) key
	// does not exist.
	ErrNotFound = errors.New("omniscient: record not found")

	// ErrStorageUnavailable is returned when the database cannot be
	// opened or is corrupted. Fatal for the calling operation.
	ErrStorageUnavailable = errors.New("omniscient: storage unavailable")
)

// isUniqueViolation reports whether err is SQLite's uniqueness-constraint
// failure. The driver does not export a typed error for this, so we match
// the stable message prefix it emits.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
