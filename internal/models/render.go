package models

// Option pairs a human label with an opaque token. The token comes back
// verbatim as a future button-press event.
type Option struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Frame is one step of a cosmetic edit sequence played by the delivery
// worker after the state transition is committed.
type Frame struct {
	Text    string `json:"text"`
	DelayMs int    `json:"delay_ms"`
}

// Instruction tells the collaborator layer what to render. The core emits
// instructions; it never talks to the chat platform itself.
type Instruction struct {
	ChatID    int64      `json:"chat_id"`
	MessageID int64      `json:"message_id,omitempty"` // >0 edits an existing message in place
	Text      string     `json:"text"`
	Options   [][]Option `json:"options,omitempty"` // inline keyboard rows
	MainMenu  bool       `json:"main_menu,omitempty"`
	Frames    []Frame    `json:"frames,omitempty"` // played before the final text
}
