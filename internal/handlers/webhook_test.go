package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/queue"
	"go.uber.org/zap"
)

type fakeEngine struct {
	events []models.Event
	out    *models.Instruction
}

func (f *fakeEngine) HandleEvent(_ context.Context, ev models.Event) *models.Instruction {
	f.events = append(f.events, ev)
	return f.out
}

type fakeJobQueue struct {
	jobs       []*queue.Job
	enqueueErr error
}

func (f *fakeJobQueue) Enqueue(_ context.Context, job *queue.Job) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeJobQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, nil
}

func (f *fakeJobQueue) Close() error                      { return nil }
func (f *fakeJobQueue) HealthCheck(context.Context) error { return nil }

func postUpdate(t *testing.T, h *WebhookHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)
	return rec
}

func TestWebhookCommandMessage(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{out: &models.Instruction{ChatID: 7, Text: "hi"}}
	jq := &fakeJobQueue{}
	h := NewWebhookHandler(engine, jq, zap.NewNop())

	body := `{"update_id":1,"message":{"message_id":10,"from":{"id":7,"first_name":"Ada","username":"ada"},"chat":{"id":7},"text":"/start"}}`
	rec := postUpdate(t, h, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(engine.events) != 1 {
		t.Fatalf("events = %d, want 1", len(engine.events))
	}
	ev := engine.events[0]
	if ev.Kind != models.EventCommand || ev.Command != "start" {
		t.Errorf("event = %+v, want start command", ev)
	}
	if ev.From.ID != 7 || ev.From.FirstName != "Ada" {
		t.Errorf("from = %+v", ev.From)
	}
	if len(jq.jobs) != 1 || jq.jobs[0].UserID != 7 {
		t.Errorf("jobs = %+v, want one render job for user 7", jq.jobs)
	}
}

func TestWebhookTextMessage(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{out: &models.Instruction{ChatID: 7}}
	h := NewWebhookHandler(engine, &fakeJobQueue{}, zap.NewNop())

	body := `{"update_id":2,"message":{"message_id":11,"from":{"id":7},"chat":{"id":7},"text":"  Morning run  "}}`
	postUpdate(t, h, body)

	ev := engine.events[0]
	if ev.Kind != models.EventText || ev.Text != "Morning run" {
		t.Errorf("event = %+v, want trimmed text event", ev)
	}
}

func TestWebhookCallbackQuery(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{out: &models.Instruction{ChatID: 7}}
	h := NewWebhookHandler(engine, &fakeJobQueue{}, zap.NewNop())

	body := `{"update_id":3,"callback_query":{"id":"cb1","from":{"id":7},"message":{"message_id":12,"chat":{"id":7}},"data":"track_5"}}`
	postUpdate(t, h, body)

	ev := engine.events[0]
	if ev.Kind != models.EventButton || ev.Token != "track_5" {
		t.Errorf("event = %+v, want button event with token track_5", ev)
	}
	if ev.MessageID != 12 {
		t.Errorf("MessageID = %d, want 12", ev.MessageID)
	}
}

func TestWebhookIgnoresNonActionableUpdates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"no message", `{"update_id":4}`},
		{"empty text", `{"update_id":5,"message":{"message_id":1,"from":{"id":7},"chat":{"id":7},"text":"   "}}`},
		{"no sender", `{"update_id":6,"message":{"message_id":1,"chat":{"id":7},"text":"hi"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			engine := &fakeEngine{}
			h := NewWebhookHandler(engine, &fakeJobQueue{}, zap.NewNop())

			rec := postUpdate(t, h, tt.body)
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if len(engine.events) != 0 {
				t.Errorf("engine saw %d events, want 0", len(engine.events))
			}
		})
	}
}

func TestWebhookRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	h := NewWebhookHandler(&fakeEngine{}, &fakeJobQueue{}, zap.NewNop())
	rec := postUpdate(t, h, `{"update_id":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWebhookAcceptsWhenEnqueueFails(t *testing.T) {
	t.Parallel()

	// The transition already ran; a retry would replay it, so the
	// handler still answers 200.
	engine := &fakeEngine{out: &models.Instruction{ChatID: 7}}
	jq := &fakeJobQueue{enqueueErr: context.DeadlineExceeded}
	h := NewWebhookHandler(engine, jq, zap.NewNop())

	body := `{"update_id":7,"message":{"message_id":1,"from":{"id":7},"chat":{"id":7},"text":"/help"}}`
	rec := postUpdate(t, h, body)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		command bool
	}{
		{"/start", "start", true},
		{"/help@habitloop_bot", "help", true},
		{"/track today", "track", true},
		{"plain text", "", false},
		{"/", "", false},
		{"  /cancel  ", "cancel", true},
	}
	for _, tt := range tests {
		got, ok := parseCommand(tt.in)
		if got != tt.want || ok != tt.command {
			t.Errorf("parseCommand(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.command)
		}
	}
}
