package queue

import (
	"encoding/json"
	"testing"

	"github.com/habitloop/habitloop/internal/models"
)

func TestNewRenderJob(t *testing.T) {
	t.Parallel()

	in := &models.Instruction{ChatID: 42, Text: "hello", MainMenu: true}
	job := NewRenderJob(42, in)

	if job.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("job ID not assigned")
	}
	if job.Type != JobTypeRender {
		t.Errorf("Type = %q, want %q", job.Type, JobTypeRender)
	}
	if job.UserID != 42 {
		t.Errorf("UserID = %d, want 42", job.UserID)
	}
	if job.Instruction != in {
		t.Error("Instruction not carried")
	}
	if job.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", job.MaxRetries)
	}
}

func TestJobRetryBudget(t *testing.T) {
	t.Parallel()

	job := NewRenderJob(1, &models.Instruction{ChatID: 1})
	for i := 0; i < job.MaxRetries; i++ {
		if !job.CanRetry() {
			t.Fatalf("CanRetry() = false after %d retries, budget is %d", i, job.MaxRetries)
		}
		job.IncrementRetry()
	}
	if job.CanRetry() {
		t.Errorf("CanRetry() = true after %d retries", job.RetryCount)
	}
}

func TestJobCarriesInstructionThroughJSON(t *testing.T) {
	t.Parallel()

	in := &models.Instruction{
		ChatID: 7,
		Text:   "🎉 Habit added!",
		Options: [][]models.Option{{
			{Label: "✅ Yes", Token: models.YesToken()},
		}},
		Frames: []models.Frame{{Text: "✨ Creating…", DelayMs: 200}},
	}
	data, err := json.Marshal(NewRenderJob(7, in))
	if err != nil {
		t.Fatal(err)
	}

	var got Job
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Instruction == nil {
		t.Fatal("instruction lost in transit")
	}
	if got.Instruction.Text != in.Text {
		t.Errorf("Text = %q, want %q", got.Instruction.Text, in.Text)
	}
	if len(got.Instruction.Frames) != 1 || got.Instruction.Frames[0].DelayMs != 200 {
		t.Errorf("Frames = %+v, want the original frame", got.Instruction.Frames)
	}
	if got.Instruction.Options[0][0].Token != models.YesToken() {
		t.Errorf("Token = %q, want %q", got.Instruction.Options[0][0].Token, models.YesToken())
	}
}
