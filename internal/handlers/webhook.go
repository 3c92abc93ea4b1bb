package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/habitloop/habitloop/internal/logger"
	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/queue"
)

// EventHandler runs one conversation transition. Implemented by
// session.Engine; tests substitute fakes.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev models.Event) *models.Instruction
}

// WebhookHandler receives chat platform updates, drives the
// conversation engine, and enqueues the resulting render job.
type WebhookHandler struct {
	engine   EventHandler
	jobQueue queue.JobQueue
	log      *zap.Logger
}

// NewWebhookHandler creates a webhook handler
func NewWebhookHandler(engine EventHandler, jobQueue queue.JobQueue, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		engine:   engine,
		jobQueue: jobQueue,
		log:      log,
	}
}

// Update is one inbound webhook payload. Exactly one of Message or
// CallbackQuery is set.
type Update struct {
	UpdateID      int64            `json:"update_id"`
	Message       *IncomingMessage `json:"message,omitempty"`
	CallbackQuery *CallbackQuery   `json:"callback_query,omitempty"`
}

// IncomingMessage is a typed message from a chat.
type IncomingMessage struct {
	MessageID int64    `json:"message_id"`
	From      *Contact `json:"from,omitempty"`
	Chat      Chat     `json:"chat"`
	Text      string   `json:"text,omitempty"`
}

// CallbackQuery is an inline button press.
type CallbackQuery struct {
	ID      string           `json:"id"`
	From    *Contact         `json:"from,omitempty"`
	Message *IncomingMessage `json:"message,omitempty"`
	Data    string           `json:"data,omitempty"`
}

// Chat identifies the conversation an update came from.
type Chat struct {
	ID int64 `json:"id"`
}

// Contact is the sender of an update.
type Contact struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// HandleWebhook handles POST /webhook
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_payload", "Request body must be a webhook update")
		return
	}

	event, ok := toEvent(update)
	if !ok {
		// Joins, edits, stickers and other update kinds we don't handle.
		respondJSON(w, http.StatusOK, map[string]string{"result": "ignored"})
		return
	}

	instruction := h.engine.HandleEvent(r.Context(), event)
	if instruction == nil {
		respondJSON(w, http.StatusOK, map[string]string{"result": "ok"})
		return
	}

	job := queue.NewRenderJob(event.From.ID, instruction)
	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		// The transition already happened; retrying the update would
		// replay it. Log and accept.
		h.log.Error("enqueue_render_job_failed",
			zap.Int64("user_id", event.From.ID),
			zap.String("job_id", job.ID.String()),
			zap.String("error", logger.SanitizeError(err)),
		)
	}

	respondJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

// toEvent maps an update onto the engine's event variants. Reports
// false for updates that carry nothing actionable.
func toEvent(update Update) (models.Event, bool) {
	if cb := update.CallbackQuery; cb != nil && cb.From != nil && cb.Data != "" {
		ev := models.Event{
			Kind:  models.EventButton,
			From:  contactToUser(cb.From),
			Token: cb.Data,
		}
		if cb.Message != nil {
			ev.ChatID = cb.Message.Chat.ID
			ev.MessageID = cb.Message.MessageID
		}
		if ev.ChatID == 0 {
			ev.ChatID = ev.From.ID
		}
		return ev, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return models.Event{}, false
	}

	ev := models.Event{
		From:      contactToUser(msg.From),
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}

	if name, isCommand := parseCommand(msg.Text); isCommand {
		ev.Kind = models.EventCommand
		ev.Command = name
		return ev, true
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return models.Event{}, false
	}
	ev.Kind = models.EventText
	ev.Text = text
	return ev, true
}

// parseCommand extracts the command name from "/name" or "/name@bot".
func parseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.Fields(text[1:])
	if len(name) == 0 || name[0] == "" {
		return "", false
	}
	command, _, _ := strings.Cut(name[0], "@")
	if command == "" {
		return "", false
	}
	return command, true
}

func contactToUser(c *Contact) models.User {
	return models.User{
		ID:        c.ID,
		Username:  c.Username,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
}
