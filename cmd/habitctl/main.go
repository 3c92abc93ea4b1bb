package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/habitloop/habitloop/cmd/habitctl/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "habitctl",
		Short: "Admin tool for the habit bot",
		Long:  "CLI tool for inspecting users, habits, and completions",
	}

	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewHabitsCmd())
	rootCmd.AddCommand(commands.NewStatsCmd())
	rootCmd.AddCommand(commands.NewHistoryCmd())
	rootCmd.AddCommand(commands.NewDeactivateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
