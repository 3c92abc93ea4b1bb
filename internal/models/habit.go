package models

import (
	"time"
)

const (
	// HabitNameMinLen is the minimum habit name length in runes
	HabitNameMinLen = 2
	// HabitNameMaxLen is the maximum habit name length in runes
	HabitNameMaxLen = 30
)

// Habit is a named recurring activity tracked by one user.
// Habits are never hard-deleted; Active=false soft-deletes them while
// preserving historical completions.
type Habit struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Glyph     string    `json:"glyph"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// PredefinedHabit is one entry of the quick-pick catalog offered in the
// add-habit flow.
type PredefinedHabit struct {
	Glyph string
	Name  string
}

// PredefinedHabits is the quick-pick catalog. Order matters: the picker
// renders them two per row in this order.
var PredefinedHabits = []PredefinedHabit{
	{Glyph: "💧", Name: "Drink water"},
	{Glyph: "🏃", Name: "Exercise"},
	{Glyph: "📚", Name: "Reading"},
	{Glyph: "🧘", Name: "Meditation"},
	{Glyph: "🛌", Name: "Early rise"},
	{Glyph: "✍️", Name: "Journaling"},
	{Glyph: "🍎", Name: "Healthy eating"},
	{Glyph: "🚫", Name: "No bad habits"},
}

// PredefinedHabitName resolves a catalog glyph to its habit name.
func PredefinedHabitName(glyph string) (string, bool) {
	for _, p := range PredefinedHabits {
		if p.Glyph == glyph {
			return p.Name, true
		}
	}
	return "", false
}

// CustomHabitGlyph is the glyph assigned to user-typed habits.
const CustomHabitGlyph = "✅"
