package database

import (
	"context"
	"fmt"

	"github.com/habitloop/habitloop/internal/models"
)

// RegisterUser upserts a user record. Registration is idempotent: an
// existing user keeps its join date, and profile fields are only updated
// with non-empty values so a sparse update never erases known data.
func (s *HabitStore) RegisterUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			username   = CASE WHEN EXCLUDED.username   <> '' THEN EXCLUDED.username   ELSE users.username   END,
			first_name = CASE WHEN EXCLUDED.first_name <> '' THEN EXCLUDED.first_name ELSE users.first_name END,
			last_name  = CASE WHEN EXCLUDED.last_name  <> '' THEN EXCLUDED.last_name  ELSE users.last_name  END
		RETURNING joined_at
	`

	err := s.db.QueryRowContext(ctx, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
	).Scan(&user.JoinedAt)

	if err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	return nil
}

// GetUsers returns all registered users ordered by join date.
func (s *HabitStore) GetUsers(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT id, username, first_name, last_name, joined_at
		FROM users
		ORDER BY joined_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}
