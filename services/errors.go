package services

import (
	"errors"

	"dsadmin/apperror"

	"gorm.io/gorm"
)

// lookupError maps a failed storage lookup to NotFound with message, or to an
// internal error for anything other than a missing row.
func lookupError(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(message)
	}
	return apperror.Internal("Database error.", err)
}

// writeError maps a failed write. A unique-key violation that raced past the
// service's own check still surfaces as a conflict.
func writeError(err error, conflictMessage string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict(conflictMessage)
	}
	return apperror.Internal("Database error.", err)
}

// exists reports whether a lookup found a row, treating ErrRecordNotFound as
// a clean miss.
func exists(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, apperror.Internal("Database error.", err)
}

func dedupeIDs(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
