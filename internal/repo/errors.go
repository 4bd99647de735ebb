package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound aliases gorm.ErrRecordNotFound so callers need not import
	// gorm to test for a missing row.
	ErrNotFound = gorm.ErrRecordNotFound

	// ErrDuplicate reports a live unique key: a paid date or an unexpired
	// idempotency key.
	ErrDuplicate = errors.New("duplicate")
)

// isUniqueViolation detects unique-constraint errors. glebarez/sqlite
// reports them as plain text rather than gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
