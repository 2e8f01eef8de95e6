// Package id provides time-ordered UUID identifiers for ledger entries,
// documents and catalog records.
package id

import (
	"github.com/google/uuid"
)

// ID identifies an entity. UUIDv7 keeps insertion order close to key order,
// which matters for the append-heavy ledger table.
type ID = uuid.UUID

// New generates a UUIDv7, falling back to v4 if the clock source fails.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts a string to an ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts a string to an ID, panicking on error. For tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero ID.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether the ID is the zero value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
