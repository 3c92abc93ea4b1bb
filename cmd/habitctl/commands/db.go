package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/habitloop/habitloop/internal/database"
)

// openStore connects straight from DATABASE_URL. The admin tool does not
// need the bot's full configuration.
func openStore() (*database.DB, *database.HabitStore, error) {
	_ = godotenv.Load()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}

	db, err := database.New(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, database.NewHabitStore(db), nil
}

func closeDB(db *database.DB) {
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
}
