package database

import (
	"errors"
)

// Sentinel errors surfaced by the habit store. These are routine,
// user-correctable outcomes, distinct from I/O failures which come back
// wrapped and unmatched.
var (
	// ErrDuplicateHabit means an active habit with the same name
	// (case-insensitive) already exists for the user.
	ErrDuplicateHabit = errors.New("habit already exists")
	// ErrInvalidName means the habit name failed validation.
	ErrInvalidName = errors.New("invalid habit name")
)

// HabitStore owns the durable state: users, habits, daily completions.
// All methods are safe for concurrent use; the completion uniqueness
// invariant is enforced by the database, not by check-then-act.
type HabitStore struct {
	db *DB
}

// NewHabitStore creates a habit store backed by the given database.
func NewHabitStore(db *DB) *HabitStore {
	return &HabitStore{db: db}
}
