package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/habitloop/habitloop/internal/models"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeRender is a job for delivering one render instruction to a chat
	JobTypeRender JobType = "render"
)

// Job represents a job in the queue
type Job struct {
	ID          uuid.UUID           `json:"id"`
	Type        JobType             `json:"type"`
	UserID      int64               `json:"user_id"`
	Instruction *models.Instruction `json:"instruction,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	RetryCount  int                 `json:"retry_count"`
	MaxRetries  int                 `json:"max_retries"`
}

// NewRenderJob creates a delivery job for one instruction
func NewRenderJob(userID int64, in *models.Instruction) *Job {
	return &Job{
		ID:          uuid.New(),
		Type:        JobTypeRender,
		UserID:      userID,
		Instruction: in,
		CreatedAt:   time.Now(),
		RetryCount:  0,
		MaxRetries:  3,
	}
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
