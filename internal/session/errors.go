package session

import (
	"errors"
)

// ErrOrphanedFlow means a completion step was reached with no habit
// stashed in the session. It is defensive: transitions that follow the
// table cannot produce it. The user gets an apology and lands back on
// the main menu; the occurrence is always logged.
var ErrOrphanedFlow = errors.New("completion step reached without a selected habit")
