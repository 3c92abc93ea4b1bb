package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/habitloop/habitloop/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	habitNameTag = fmt.Sprintf("min=%d,max=%d", models.HabitNameMinLen, models.HabitNameMaxLen)
)

func init() {
	Validate = validator.New()
}

// HabitName validates a sanitized habit name against the length bounds.
// validator counts runes for string min/max, which is what we want for
// glyph-heavy names.
func HabitName(name string) error {
	if err := Validate.Var(name, habitNameTag); err != nil {
		return fmt.Errorf("habit name must be %d-%d characters: %w",
			models.HabitNameMinLen, models.HabitNameMaxLen, err)
	}
	return nil
}

// SanitizeText trims whitespace and strips control characters from typed
// user text before it is validated or stored.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	sanitized.Grow(len(text))
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// TruncateNote caps a completion note at the note length limit. Overlong
// notes are truncated, not rejected.
func TruncateNote(note string) string {
	note = SanitizeText(note)
	if utf8.RuneCountInString(note) <= models.NoteMaxLen {
		return note
	}
	runes := []rune(note)
	return string(runes[:models.NoteMaxLen])
}
