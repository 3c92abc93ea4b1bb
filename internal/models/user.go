package models

import (
	"time"
)

// User represents a person talking to the bot. ID is the messaging
// platform's numeric user id and is the primary key everywhere.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}
