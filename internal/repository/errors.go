package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique index would be violated.
	ErrDuplicate = errors.New("duplicate key")
)

// GroupCount is one row of a grouped count.
type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// translate maps GORM errors onto the store-agnostic ones above.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
