// Package render builds the instructions the core hands to the messaging
// gateway. The engine decides what happens; this package owns wording,
// keyboards, and cosmetic frame sequences.
package render

import (
	"fmt"
	"strings"

	"github.com/habitloop/habitloop/internal/models"
)

// Main-menu reply keyboard labels. These come back as plain text events
// and are routed like their commands.
const (
	LabelAdd    = "➕ Add habit"
	LabelStats  = "📊 Stats"
	LabelList   = "📋 My habits"
	LabelTrack  = "✅ Track"
	LabelDelete = "🗑 Delete habit"
	LabelHelp   = "ℹ️ Help"
)

// MenuRows is the reply-keyboard layout the gateway attaches when an
// instruction carries MainMenu.
func MenuRows() [][]string {
	return [][]string{
		{LabelAdd},
		{LabelStats, LabelList},
		{LabelTrack},
		{LabelDelete, LabelHelp},
	}
}

// CommandForLabel maps a menu button label to its command name.
func CommandForLabel(text string) (string, bool) {
	switch text {
	case LabelAdd:
		return "add", true
	case LabelStats:
		return "stats", true
	case LabelList:
		return "habits", true
	case LabelTrack:
		return "track", true
	case LabelDelete:
		return "delete", true
	case LabelHelp:
		return "help", true
	}
	return "", false
}

func menu(chatID int64, text string) *models.Instruction {
	return &models.Instruction{ChatID: chatID, Text: text, MainMenu: true}
}

// Welcome greets a newly registered (or restarting) user.
func Welcome(chatID int64, firstName string) *models.Instruction {
	greeting := "Hi!"
	if firstName != "" {
		greeting = fmt.Sprintf("Hi, %s!", firstName)
	}
	return menu(chatID, greeting+`

I help you build habits that stick.

What I can do:
➕ add habits
✅ track daily completions
📊 show your progress
🗑 remove habits you outgrew

Use the menu buttons below.`)
}

// Help explains the bot.
func Help(chatID int64) *models.Instruction {
	return menu(chatID, `How to use me:
1. Add a habit — pick one or type your own
2. Track it every day you do it
3. Watch your stats grow

Commands:
/start — restart
/help — this text
/cancel — abort the current step`)
}

// UnknownInput re-prompts the main menu.
func UnknownInput(chatID int64) *models.Instruction {
	return menu(chatID, "Use the menu buttons below 👇")
}

// Cancelled confirms a flow was aborted.
func Cancelled(chatID int64) *models.Instruction {
	return menu(chatID, "❌ Cancelled")
}

// Apology is the generic something-went-wrong screen.
func Apology(chatID int64) *models.Instruction {
	return menu(chatID, "⚠️ Something went wrong. Please try again.")
}

// Stats renders the daily aggregate with a ten-segment progress bar.
func Stats(chatID int64, stats models.DayStats) *models.Instruction {
	text := fmt.Sprintf("📊 Today\n\n✅ Done: %d/%d habits", stats.Completed, stats.Total)
	if stats.Total > 0 {
		pct := stats.Completed * 100 / stats.Total
		text += fmt.Sprintf("\n📈 %d%%\n%s", pct, progressBar(pct))
	}
	switch {
	case stats.AllDone():
		text += "\n\n🎉 All habits done — great work!"
	case stats.Completed == 0 && stats.Total > 0:
		text += "\n\n⏳ Start tracking today!"
	}
	return menu(chatID, text)
}

func progressBar(pct int) string {
	filled := pct / 10
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

// HabitList renders the user's active habits.
func HabitList(chatID int64, habits []models.Habit) *models.Instruction {
	if len(habits) == 0 {
		return NoHabits(chatID)
	}
	var b strings.Builder
	b.WriteString("📋 Your habits:\n\n")
	for i, h := range habits {
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, h.Glyph, h.Name)
	}
	fmt.Fprintf(&b, "\n✨ %d total", len(habits))
	return menu(chatID, b.String())
}

// NoHabits nudges the user to create a first habit.
func NoHabits(chatID int64) *models.Instruction {
	return menu(chatID, "📭 No habits yet.\n\nTap ➕ Add habit to create your first one!")
}

// PredefinedPicker offers the catalog, two per row, plus custom and cancel.
func PredefinedPicker(chatID int64) *models.Instruction {
	var rows [][]models.Option
	catalog := models.PredefinedHabits
	for i := 0; i < len(catalog); i += 2 {
		var row []models.Option
		for _, p := range catalog[i:min(i+2, len(catalog))] {
			row = append(row, models.Option{
				Label: p.Glyph + " " + p.Name,
				Token: models.PredefToken(p.Glyph),
			})
		}
		rows = append(rows, row)
	}
	rows = append(rows, []models.Option{
		{Label: "✏️ My own habit", Token: models.CustomToken()},
		{Label: "❌ Cancel", Token: models.CancelToken()},
	})
	return &models.Instruction{
		ChatID:  chatID,
		Text:    "🎯 Pick a habit or create your own:",
		Options: rows,
	}
}

// CustomPrompt asks the user to type a habit name.
func CustomPrompt(chatID int64) *models.Instruction {
	return &models.Instruction{
		ChatID: chatID,
		Text: fmt.Sprintf(`✏️ Type your habit name (%d-%d characters).

Examples:
• Learn Spanish
• Walk outside
• Plan tomorrow`, models.HabitNameMinLen, models.HabitNameMaxLen),
	}
}

// InvalidName re-prompts after a name that failed validation.
func InvalidName(chatID int64) *models.Instruction {
	return &models.Instruction{
		ChatID: chatID,
		Text: fmt.Sprintf("❌ The name must be %d-%d characters. Try again:",
			models.HabitNameMinLen, models.HabitNameMaxLen),
	}
}

// DuplicateName re-prompts after a name that already exists.
func DuplicateName(chatID int64, name string) *models.Instruction {
	return &models.Instruction{
		ChatID: chatID,
		Text:   fmt.Sprintf("❌ %q is already on your list. Pick another name:", name),
	}
}

// DuplicateHabit reports a duplicate catalog pick and returns to the menu.
func DuplicateHabit(chatID int64, name string) *models.Instruction {
	return menu(chatID, fmt.Sprintf("❌ %q is already on your list.", name))
}

// Created celebrates a new habit, with a short frame sequence first.
func Created(chatID int64, glyph, name string) *models.Instruction {
	in := menu(chatID, fmt.Sprintf(`🎉 Habit added!

%s %s

Track it every day and watch your stats.`, glyph, name))
	in.Frames = []models.Frame{
		{Text: "✨ Creating…", DelayMs: 200},
		{Text: "🌟 Done!", DelayMs: 200},
	}
	return in
}

// TrackPicker lists habits not yet completed today.
func TrackPicker(chatID int64, habits []models.Habit) *models.Instruction {
	in := habitPicker(chatID, habits, models.TrackToken)
	in.Text = "✅ Which habit did you complete today?"
	return in
}

// AllDone celebrates a fully completed day when tracking starts.
func AllDone(chatID int64) *models.Instruction {
	return menu(chatID, "🎉 Every habit is done for today!\n\nTomorrow is a new day.")
}

// DeletePicker lists active habits for removal.
func DeletePicker(chatID int64, habits []models.Habit) *models.Instruction {
	in := habitPicker(chatID, habits, models.DeleteToken)
	in.Text = "🗑 Which habit should I remove?"
	return in
}

// NothingToDelete reports an empty habit list for the delete flow.
func NothingToDelete(chatID int64) *models.Instruction {
	return menu(chatID, "📭 Nothing to delete.")
}

// Deleted confirms a removal, with a short frame sequence first.
func Deleted(chatID int64, habit models.Habit) *models.Instruction {
	in := menu(chatID, fmt.Sprintf("🗑 Removed\n\n%s %s", habit.Glyph, habit.Name))
	in.Frames = []models.Frame{
		{Text: "🗑 Removing…", DelayMs: 300},
	}
	return in
}

// AskNote asks whether to attach a note to a completion.
func AskNote(chatID int64, habit models.Habit) *models.Instruction {
	return &models.Instruction{
		ChatID: chatID,
		Text:   fmt.Sprintf("✅ %s %s\n\nAdd a note to this completion?", habit.Glyph, habit.Name),
		Options: [][]models.Option{{
			{Label: "✅ Yes", Token: models.YesToken()},
			{Label: "❌ No", Token: models.NoToken()},
		}},
	}
}

// NotePrompt asks for the note text.
func NotePrompt(chatID int64) *models.Instruction {
	return &models.Instruction{
		ChatID: chatID,
		Text:   "📝 Type your note:",
	}
}

// AlreadyCompleted reports the normal "done already" outcome.
func AlreadyCompleted(chatID int64) *models.Instruction {
	return menu(chatID, "⚠️ You already tracked this habit today.")
}

// Progress reports fresh stats after a completion, with a celebratory
// variant when the day is fully done.
func Progress(chatID int64, stats models.DayStats, note string) *models.Instruction {
	text := fmt.Sprintf("✅ Tracked!\n\n📊 Today: %d/%d habits", stats.Completed, stats.Total)
	if note != "" {
		text += "\n📝 Note: " + note
	}
	if stats.AllDone() {
		text += "\n\n🎉 That's every habit for today — congratulations!"
	}
	in := menu(chatID, text)
	in.Frames = []models.Frame{
		{Text: "💾 Saving…", DelayMs: 300},
	}
	return in
}

func habitPicker(chatID int64, habits []models.Habit, token func(int64) string) *models.Instruction {
	var rows [][]models.Option
	for _, h := range habits {
		rows = append(rows, []models.Option{{
			Label: h.Glyph + " " + h.Name,
			Token: token(h.ID),
		}})
	}
	rows = append(rows, []models.Option{{Label: "❌ Cancel", Token: models.CancelToken()}})
	return &models.Instruction{ChatID: chatID, Options: rows}
}

// UseButtons re-prompts without leaving the current step.
func UseButtons(chatID int64) *models.Instruction {
	return &models.Instruction{ChatID: chatID, Text: "👇 Use the buttons above."}
}

// HabitNotFound reports a selection that no longer resolves to an active
// habit (e.g. deleted from another device between render and press).
func HabitNotFound(chatID int64) *models.Instruction {
	return menu(chatID, "❌ That habit is gone.")
}
