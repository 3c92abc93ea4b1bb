package database

import (
	"context"
	"fmt"

	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/validation"
)

// CreateHabit validates the name, rejects case-insensitive duplicates
// among the user's active habits, and inserts the habit.
//
// The duplicate-name check is application-level and race-tolerant: a lost
// race yields a rare duplicate-named habit, never a broken completion
// invariant. It always reads the current active list, never a cached one.
func (s *HabitStore) CreateHabit(ctx context.Context, userID int64, name, glyph string) (int64, error) {
	name = validation.SanitizeText(name)
	if err := validation.HabitName(name); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidName, name)
	}

	var exists bool
	dupQuery := `
		SELECT EXISTS (
			SELECT 1 FROM habits
			WHERE user_id = $1 AND active AND lower(name) = lower($2)
		)
	`
	if err := s.db.QueryRowContext(ctx, dupQuery, userID, name).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check habit name: %w", err)
	}
	if exists {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateHabit, name)
	}

	var habitID int64
	insertQuery := `
		INSERT INTO habits (user_id, name, glyph)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := s.db.QueryRowContext(ctx, insertQuery, userID, name, glyph).Scan(&habitID); err != nil {
		return 0, fmt.Errorf("failed to create habit: %w", err)
	}

	return habitID, nil
}

// ListActiveHabits returns the user's active habits in creation order.
func (s *HabitStore) ListActiveHabits(ctx context.Context, userID int64) ([]models.Habit, error) {
	query := `
		SELECT id, user_id, name, glyph, active, created_at
		FROM habits
		WHERE user_id = $1 AND active
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var habits []models.Habit
	for rows.Next() {
		var h models.Habit
		if err := rows.Scan(&h.ID, &h.UserID, &h.Name, &h.Glyph, &h.Active, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habits: %w", err)
	}

	return habits, nil
}

// DeactivateHabit soft-deletes a habit. Deactivating a habit that does
// not exist or belongs to another user is a silent no-op: the caller is
// expected to pick from ListActiveHabits first.
func (s *HabitStore) DeactivateHabit(ctx context.Context, habitID, userID int64) error {
	query := `
		UPDATE habits
		SET active = FALSE
		WHERE id = $1 AND user_id = $2
	`

	if _, err := s.db.ExecContext(ctx, query, habitID, userID); err != nil {
		return fmt.Errorf("failed to deactivate habit: %w", err)
	}

	return nil
}
