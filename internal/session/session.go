package session

import (
	"sync"
	"time"
)

// State is a conversation state. MAIN_MENU is both the initial state and
// where every flow lands when it finishes.
type State int

const (
	StateMainMenu State = iota
	StateAddHabit
	StateAddCustomHabit
	StateDeleteHabit
	StateTrackHabit
	StateAddNote
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateMainMenu:
		return "MAIN_MENU"
	case StateAddHabit:
		return "ADD_HABIT"
	case StateAddCustomHabit:
		return "ADD_CUSTOM_HABIT"
	case StateDeleteHabit:
		return "DELETE_HABIT"
	case StateTrackHabit:
		return "TRACK_HABIT"
	case StateAddNote:
		return "ADD_NOTE"
	default:
		return "UNKNOWN"
	}
}

// Session is the ephemeral per-user conversation state. It lives only in
// memory: a process restart loses in-flight forms but never committed
// habits or completions.
//
// The mutex serializes events for this user; events for different users
// proceed independently.
type Session struct {
	mu sync.Mutex

	userID int64
	chatID int64

	state State

	// trackHabitID is the habit selected in TRACK_HABIT, awaiting the
	// note decision. Zero means nothing stashed.
	trackHabitID int64

	// lastSeen is guarded by the engine lock, not mu.
	lastSeen time.Time
}

// reset returns the session to the main menu and discards stashed data.
func (s *Session) reset() {
	s.state = StateMainMenu
	s.trackHabitID = 0
}
