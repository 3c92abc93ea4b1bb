package database

import (
	"context"
	"fmt"
	"time"

	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/validation"
)

// RecordCompletion inserts a completion for the given day. It returns
// false when one already exists for the (user, habit, day) triple;
// "already done today" is a normal outcome, not a fault.
//
// The insert-or-detect-duplicate is a single statement riding on the
// unique constraint, so concurrent duplicate submissions (rapid double
// taps, two devices) collapse to one row without a check-then-act window.
func (s *HabitStore) RecordCompletion(ctx context.Context, userID, habitID int64, day time.Time, note string) (bool, error) {
	query := `
		INSERT INTO completions (user_id, habit_id, completed_on, note)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT completions_user_habit_day_key DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query,
		userID,
		habitID,
		day.Format(models.DateLayout),
		validation.TruncateNote(note),
	)
	if err != nil {
		return false, fmt.Errorf("failed to record completion: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return inserted > 0, nil
}

// TodaysStats returns (completed, total) counts over the user's active
// habits for the given day. Both counts come from one statement, so the
// pair is a consistent snapshot even under concurrent writes.
func (s *HabitStore) TodaysStats(ctx context.Context, userID int64, day time.Time) (models.DayStats, error) {
	query := `
		SELECT
			COUNT(DISTINCT c.habit_id) AS completed,
			COUNT(DISTINCT h.id)       AS total
		FROM habits h
		LEFT JOIN completions c
			ON c.habit_id = h.id
			AND c.user_id = h.user_id
			AND c.completed_on = $2
		WHERE h.user_id = $1 AND h.active
	`

	var stats models.DayStats
	err := s.db.QueryRowContext(ctx, query, userID, day.Format(models.DateLayout)).
		Scan(&stats.Completed, &stats.Total)
	if err != nil {
		return models.DayStats{}, fmt.Errorf("failed to compute day stats: %w", err)
	}

	return stats, nil
}

// TodaysCompletedHabitIDs returns the ids of habits completed on the
// given day. Ids of since-deactivated habits are included; callers
// intersect with the active list.
func (s *HabitStore) TodaysCompletedHabitIDs(ctx context.Context, userID int64, day time.Time) (map[int64]bool, error) {
	query := `
		SELECT habit_id
		FROM completions
		WHERE user_id = $1 AND completed_on = $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, day.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to list completed habit ids: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan habit id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habit ids: %w", err)
	}

	return ids, nil
}

// CompletionsForHabit returns a habit's completion history, newest first.
// Completions survive habit deactivation; this is the historical view.
func (s *HabitStore) CompletionsForHabit(ctx context.Context, userID, habitID int64) ([]models.Completion, error) {
	query := `
		SELECT id, user_id, habit_id, to_char(completed_on, 'YYYY-MM-DD'), note, recorded_at
		FROM completions
		WHERE user_id = $1 AND habit_id = $2
		ORDER BY completed_on DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, habitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var completions []models.Completion
	for rows.Next() {
		var c models.Completion
		if err := rows.Scan(&c.ID, &c.UserID, &c.HabitID, &c.CompletedOn, &c.Note, &c.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		completions = append(completions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completions: %w", err)
	}

	return completions, nil
}
