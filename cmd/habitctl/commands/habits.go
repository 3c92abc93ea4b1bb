package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewHabitsCmd creates the habits command
func NewHabitsCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "habits",
		Short: "List a user's active habits",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB(db)

			habits, err := store.ListActiveHabits(context.Background(), userID)
			if err != nil {
				return fmt.Errorf("failed to list habits: %w", err)
			}

			if len(habits) == 0 {
				fmt.Printf("User %d has no active habits\n", userID)
				return nil
			}

			for _, h := range habits {
				fmt.Printf("%d\t%s %s\tcreated %s\n",
					h.ID, h.Glyph, h.Name, h.CreatedAt.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// NewDeactivateCmd creates the deactivate command
func NewDeactivateCmd() *cobra.Command {
	var userID, habitID int64

	cmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Deactivate a habit (history is kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := store.DeactivateHabit(context.Background(), habitID, userID); err != nil {
				return fmt.Errorf("failed to deactivate habit: %w", err)
			}

			fmt.Printf("Habit %d deactivated for user %d\n", habitID, userID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	cmd.Flags().Int64Var(&habitID, "habit", 0, "Habit ID")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("habit")
	return cmd
}
