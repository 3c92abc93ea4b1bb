package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewUsersCmd creates the users command
func NewUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB(db)

			users, err := store.GetUsers(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			if len(users) == 0 {
				fmt.Println("No users registered")
				return nil
			}

			for _, u := range users {
				name := u.FirstName
				if u.LastName != "" {
					name += " " + u.LastName
				}
				fmt.Printf("%d\t%s\t@%s\tjoined %s\n",
					u.ID, name, u.Username, u.JoinedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
}
