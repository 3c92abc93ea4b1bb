package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	var userID, habitID int64

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show completion history for a habit, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB(db)

			completions, err := store.CompletionsForHabit(context.Background(), userID, habitID)
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}

			if len(completions) == 0 {
				fmt.Printf("No completions for habit %d\n", habitID)
				return nil
			}

			for _, c := range completions {
				line := c.CompletedOn
				if c.Note != "" {
					line += "\t" + c.Note
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	cmd.Flags().Int64Var(&habitID, "habit", 0, "Habit ID")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("habit")
	return cmd
}
