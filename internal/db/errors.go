package db

import (
	"database/sql"
	"errors"
	"strings"
)

// IsUniqueViolation reports whether err came from a UNIQUE index, e.g.
// a concurrent duplicate insert racing on (user_id, roadmap_id).
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Terminal outcomes (missing rows, constraint violations) are not worth
// retrying; everything else is treated as transient storage trouble.
func retryable(err error) bool {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return false
	}
	return !IsUniqueViolation(err)
}
