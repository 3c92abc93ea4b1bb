package models

import (
	"time"
)

// NoteMaxLen is the maximum completion note length in runes; longer input
// is truncated, never rejected.
const NoteMaxLen = 200

// DateLayout is the day-granularity key used for completion uniqueness.
const DateLayout = "2006-01-02"

// Completion records that a habit was performed on a calendar date.
// At most one completion exists per (user, habit, date); the habit store's
// unique index enforces this, not application code.
type Completion struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	HabitID     int64     `json:"habit_id"`
	CompletedOn string    `json:"completed_on"` // DateLayout formatted
	Note        string    `json:"note,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// DayStats is one consistent snapshot of a user's progress for a day.
type DayStats struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// AllDone reports whether every active habit was completed.
func (s DayStats) AllDone() bool {
	return s.Total > 0 && s.Completed == s.Total
}
