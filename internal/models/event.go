package models

// EventKind enumerates the inbound event variants the engine dispatches on.
type EventKind string

const (
	// EventCommand is a named slash command ("/start", "/track", ...)
	EventCommand EventKind = "command"
	// EventText is free-form typed text, including menu button labels
	EventText EventKind = "text"
	// EventButton is an inline button press carrying an opaque token
	EventButton EventKind = "button"
)

// Event is one inbound chat event attributed to a stable user id.
// Exactly one of Command, Text, Token is meaningful depending on Kind.
type Event struct {
	Kind      EventKind `json:"kind"`
	From      User      `json:"from"`
	ChatID    int64     `json:"chat_id"`
	MessageID int64     `json:"message_id,omitempty"` // message holding the pressed button
	Command   string    `json:"command,omitempty"`
	Text      string    `json:"text,omitempty"`
	Token     string    `json:"token,omitempty"`
}
