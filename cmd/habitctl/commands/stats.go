package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/habitloop/habitloop/internal/models"
)

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	var userID int64
	var dayStr string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show a user's completion stats for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now()
			if dayStr != "" {
				var err error
				day, err = time.Parse(models.DateLayout, dayStr)
				if err != nil {
					return fmt.Errorf("invalid --day, expected YYYY-MM-DD: %w", err)
				}
			}

			db, store, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB(db)

			stats, err := store.TodaysStats(context.Background(), userID, day)
			if err != nil {
				return fmt.Errorf("failed to load stats: %w", err)
			}

			fmt.Printf("User %d on %s: %d/%d habits completed\n",
				userID, day.Format(models.DateLayout), stats.Completed, stats.Total)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	cmd.Flags().StringVar(&dayStr, "day", "", "Day (YYYY-MM-DD, default today)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
