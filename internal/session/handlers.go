package session

import (
	"context"
	"errors"

	"github.com/habitloop/habitloop/internal/database"
	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/render"
	"github.com/habitloop/habitloop/internal/validation"
	"go.uber.org/zap"
)

// dispatch routes one event through the transition table. The caller
// holds the session lock.
func (e *Engine) dispatch(ctx context.Context, s *Session, ev models.Event) *models.Instruction {
	// Global transitions apply in every state.
	if ev.Kind == models.EventCommand {
		switch ev.Command {
		case "start":
			return e.handleStart(ctx, s, ev)
		case "cancel":
			s.reset()
			return render.Cancelled(s.chatID)
		case "help":
			return render.Help(s.chatID)
		}
	}
	if tok, ok := buttonToken(ev); ok && tok.Kind == models.TokenCancel {
		s.reset()
		return render.Cancelled(s.chatID)
	}

	switch s.state {
	case StateMainMenu:
		return e.handleMainMenu(ctx, s, ev)
	case StateAddHabit:
		return e.handleAddHabit(ctx, s, ev)
	case StateAddCustomHabit:
		return e.handleAddCustomHabit(ctx, s, ev)
	case StateDeleteHabit:
		return e.handleDeleteHabit(ctx, s, ev)
	case StateTrackHabit:
		return e.handleTrackHabit(ctx, s, ev)
	case StateAddNote:
		return e.handleAddNote(ctx, s, ev)
	default:
		s.reset()
		return render.UnknownInput(s.chatID)
	}
}

// handleStart registers the user and restarts the conversation.
func (e *Engine) handleStart(ctx context.Context, s *Session, ev models.Event) *models.Instruction {
	user := ev.From
	if err := e.store.RegisterUser(ctx, &user); err != nil {
		e.logStorageError("register_user", s.userID, err)
		s.reset()
		return render.Apology(s.chatID)
	}
	s.reset()
	return render.Welcome(s.chatID, user.FirstName)
}

func (e *Engine) handleMainMenu(ctx context.Context, s *Session, ev models.Event) *models.Instruction {
	command := ev.Command
	if ev.Kind == models.EventText {
		if mapped, ok := render.CommandForLabel(ev.Text); ok {
			command = mapped
		}
	}

	switch command {
	case "add":
		s.state = StateAddHabit
		return render.PredefinedPicker(s.chatID)

	case "stats":
		stats, err := e.store.TodaysStats(ctx, s.userID, e.now())
		if err != nil {
			e.logStorageError("todays_stats", s.userID, err)
			return render.Apology(s.chatID)
		}
		return render.Stats(s.chatID, stats)

	case "habits":
		habits, err := e.store.ListActiveHabits(ctx, s.userID)
		if err != nil {
			e.logStorageError("list_habits", s.userID, err)
			return render.Apology(s.chatID)
		}
		return render.HabitList(s.chatID, habits)

	case "track":
		return e.startTracking(ctx, s)

	case "delete":
		return e.startDeleting(ctx, s)

	case "help":
		return render.Help(s.chatID)

	default:
		return render.UnknownInput(s.chatID)
	}
}

// startTracking offers the habits not yet completed today, or reports
// there is nothing left to track.
func (e *Engine) startTracking(ctx context.Context, s *Session) *models.Instruction {
	habits, err := e.store.ListActiveHabits(ctx, s.userID)
	if err != nil {
		e.logStorageError("list_habits", s.userID, err)
		return render.Apology(s.chatID)
	}
	if len(habits) == 0 {
		return render.NoHabits(s.chatID)
	}

	done, err := e.store.TodaysCompletedHabitIDs(ctx, s.userID, e.now())
	if err != nil {
		e.logStorageError("todays_completed", s.userID, err)
		return render.Apology(s.chatID)
	}

	var remaining []models.Habit
	for _, h := range habits {
		if !done[h.ID] {
			remaining = append(remaining, h)
		}
	}
	if len(remaining) == 0 {
		return render.AllDone(s.chatID)
	}

	s.state = StateTrackHabit
	return render.TrackPicker(s.chatID, remaining)
}

func (e *Engine) startDeleting(ctx context.Context, s *Session) *models.Instruction {
	habits, err := e.store.ListActiveHabits(ctx, s.userID)
	if err != nil {
		e.logStorageError("list_habits", s.userID, err)
		return render.Apology(s.chatID)
	}
	if len(habits) == 0 {
		return render.NothingToDelete(s.chatID)
	}

	s.state = StateDeleteHabit
	return render.DeletePicker(s.chatID, habits)
}

func (e *Engine) handleAddHabit(ctx context.Context, s *Session, ev models.Event) *models.Instruction {
	tok, ok := buttonToken(ev)
	if !ok {
		return render.PredefinedPicker(s.chatID)
	}

	switch tok.Kind {
	case models.TokenPredef:
		name, known := models.PredefinedHabitName(tok.Glyph)
		if !known {
			return render.PredefinedPicker(s.chatID)
		}
		return e.createHabit(ctx, s, name, tok.Glyph, false)

	case models.TokenCustom:
		s.state = StateAddCustomHabit
		return render.CustomPrompt(s.chatID)

	default:
		return render.PredefinedPicker(s.chatID)
	}
}

func (e *Engine) handleAddCustomHabit(ctx context.Context, s *Session, ev models.Event) *models.Instruction {
	if ev.Kind != models.EventText {
		return render.CustomPrompt(s.chatID)
	}
	name := validation.SanitizeText(ev.Text)
	return e.createHabit(ctx, s, name, models.CustomHabitGlyph, true)
}

// createHabit shares the store call between the catalog and custom
// paths. The duplicate-name outcome differs: a catalog duplicate returns
// to the menu, a custom duplicate re-prompts in place.
func (e *Engine) createHabit(ctx context.Context, s *Session, name, glyph string, reprompt bool) *models.Instruction {
	_, err := e.store.CreateHabit(ctx, s.userID, name, glyph)
	switch {
	case err == nil:
		s.reset()
		return render.Created(s.chatID, glyph, name)

	case errors.Is(err, database.ErrInvalidName):
		if reprompt {
			return render.InvalidName(s.chatID)
		}
		s.reset()
		return render.Apology(s.chatID)

	case errors.Is(err, database.ErrDuplicateHabit):
		if reprompt {
			return render.DuplicateName(s.chatID, name)
		}
		s.reset()
		return render.DuplicateHabit(s.chatID, name)

	default:
		return e.storageFailure(s, "create_habit", err)
	}
}

func (e *Engine) handleDeleteHabit(ctx context.Context, s *Session, ev models.Event) *models.Instruction {
	tok, ok := buttonToken(ev)
	if !ok || tok.Kind != models.TokenDelete {
		return render.UseButtons(s.chatID)
	}

	habit, err := e.findActiveHabit(ctx, s.userID, tok.HabitID)
	if err != nil {
		return e.storageFailure(s, "list_habits", err)
	}
	if habit == nil {
		s.reset()
		return render.HabitNotFound(s.chatID)
	}

	if err := e.store.DeactivateHabit(ctx, habit.ID, s.userID); err != nil {
		return e.storageFailure(s, "deactivate_habit", err)
	}

	s.reset()
	return render.Deleted(s.chatID, *habit)
}

func (e *Engine) handleTrackHabit(ctx context.Context, s *Session, ev models.Event) *models.Instruction {
	tok, ok := buttonToken(ev)
	if !ok || tok.Kind != models.TokenTrack {
		return render.UseButtons(s.chatID)
	}

	habit, err := e.findActiveHabit(ctx, s.userID, tok.HabitID)
	if err != nil {
		return e.storageFailure(s, "list_habits", err)
	}
	if habit == nil {
		s.reset()
		return render.HabitNotFound(s.chatID)
	}

	s.trackHabitID = habit.ID
	s.state = StateAddNote
	return render.AskNote(s.chatID, *habit)
}

func (e *Engine) handleAddNote(ctx context.Context, s *Session, ev models.Event) *models.Instruction {
	if tok, ok := buttonToken(ev); ok {
		switch tok.Kind {
		case models.TokenYes:
			return render.NotePrompt(s.chatID)
		case models.TokenNo:
			return e.complete(ctx, s, "")
		default:
			return render.UseButtons(s.chatID)
		}
	}
	if ev.Kind == models.EventText {
		return e.complete(ctx, s, validation.TruncateNote(ev.Text))
	}
	return render.UseButtons(s.chatID)
}

// complete records the stashed habit for today and renders fresh
// progress. The stash is cleared whatever happens.
func (e *Engine) complete(ctx context.Context, s *Session, note string) *models.Instruction {
	habitID := s.trackHabitID
	s.trackHabitID = 0

	if habitID == 0 {
		e.log.Warn("orphaned_flow",
			zap.Int64("user_id", s.userID),
			zap.Error(ErrOrphanedFlow),
		)
		s.state = StateMainMenu
		return render.Apology(s.chatID)
	}

	inserted, err := e.store.RecordCompletion(ctx, s.userID, habitID, e.now(), note)
	if err != nil {
		return e.storageFailure(s, "record_completion", err)
	}

	s.state = StateMainMenu
	if !inserted {
		return render.AlreadyCompleted(s.chatID)
	}

	stats, err := e.store.TodaysStats(ctx, s.userID, e.now())
	if err != nil {
		e.logStorageError("todays_stats", s.userID, err)
		return render.Apology(s.chatID)
	}
	return render.Progress(s.chatID, stats, note)
}

// findActiveHabit resolves a picked habit id against the current active
// list, which also verifies ownership. Nil means not found.
func (e *Engine) findActiveHabit(ctx context.Context, userID, habitID int64) (*models.Habit, error) {
	habits, err := e.store.ListActiveHabits(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range habits {
		if habits[i].ID == habitID {
			return &habits[i], nil
		}
	}
	return nil, nil
}

// storageFailure logs, resets to a safe state, and apologizes. The
// session never stays stranded mid-flow after an I/O failure.
func (e *Engine) storageFailure(s *Session, op string, err error) *models.Instruction {
	e.logStorageError(op, s.userID, err)
	s.reset()
	return render.Apology(s.chatID)
}

func buttonToken(ev models.Event) (models.Token, bool) {
	if ev.Kind != models.EventButton {
		return models.Token{}, false
	}
	return models.ParseToken(ev.Token)
}
