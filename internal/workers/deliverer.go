// Package workers holds the queue consumers. The deliverer plays render
// jobs against the chat gateway, including their cosmetic frame
// sequences, so the webhook path never blocks on outbound I/O.
package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/queue"
)

// Sender is the outbound chat surface the deliverer drives. Implemented
// by gateway.Client; tests substitute fakes.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, options [][]models.Option, mainMenu bool) (int64, error)
	EditMessage(ctx context.Context, chatID, messageID int64, text string, options [][]models.Option) error
}

// Deliverer processes render jobs
type Deliverer struct {
	sender   Sender
	jobQueue queue.JobQueue // for re-enqueueing retries
	log      *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewDeliverer creates a render job deliverer
func NewDeliverer(sender Sender, jobQueue queue.JobQueue, log *zap.Logger) *Deliverer {
	return &Deliverer{
		sender:   sender,
		jobQueue: jobQueue,
		log:      log,
		sleep:    sleepCtx,
	}
}

// ProcessJob handles one queue message: deliver, then ack. Failed jobs
// with retry budget left are re-enqueued; exhausted ones go to the DLQ.
func (d *Deliverer) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	switch job.Type {
	case queue.JobTypeRender:
	default:
		if nackErr := msg.Nack(false); nackErr != nil {
			d.log.Error("failed_to_nack_unknown_job_type",
				zap.String("job_id", job.ID.String()),
				zap.String("job_type", string(job.Type)),
				zap.Error(nackErr),
			)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err := d.ProcessRenderJob(ctx, job); err != nil {
		d.log.Error("render_job_failed",
			zap.String("job_id", job.ID.String()),
			zap.Int64("user_id", job.UserID),
			zap.Int("retry_count", job.RetryCount),
			zap.Error(err),
		)

		if job.CanRetry() && d.jobQueue != nil {
			job.IncrementRetry()
			if enqueueErr := d.jobQueue.Enqueue(ctx, job); enqueueErr != nil {
				// Could not re-enqueue, let the broker route it to the DLQ.
				_ = msg.Nack(false)
				return fmt.Errorf("failed to re-enqueue job: %w", enqueueErr)
			}
			if ackErr := msg.Ack(); ackErr != nil {
				return fmt.Errorf("failed to ack retried job: %w", ackErr)
			}
			return nil
		}

		if nackErr := msg.Nack(false); nackErr != nil {
			d.log.Warn("failed_to_nack_render_job",
				zap.String("job_id", job.ID.String()),
				zap.Error(nackErr),
			)
		}
		return err
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack render job: %w", ackErr)
	}
	return nil
}

// ProcessRenderJob delivers one instruction. Frame sequences are sent as
// a message that is edited in place, then the final text replaces it;
// frame failures are logged and skipped since the final message is what
// matters.
func (d *Deliverer) ProcessRenderJob(ctx context.Context, job *queue.Job) error {
	in := job.Instruction
	if in == nil {
		return fmt.Errorf("render job %s has no instruction", job.ID)
	}

	if len(in.Frames) > 0 {
		if err := d.playFrames(ctx, in); err != nil {
			d.log.Warn("frame_sequence_failed",
				zap.Int64("chat_id", in.ChatID),
				zap.Error(err),
			)
		}
	}

	if in.MessageID != 0 {
		if err := d.sender.EditMessage(ctx, in.ChatID, in.MessageID, in.Text, in.Options); err != nil {
			return fmt.Errorf("failed to edit message: %w", err)
		}
		return nil
	}

	if _, err := d.sender.SendMessage(ctx, in.ChatID, in.Text, in.Options, in.MainMenu); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (d *Deliverer) playFrames(ctx context.Context, in *models.Instruction) error {
	frames := in.Frames

	msgID, err := d.sender.SendMessage(ctx, in.ChatID, frames[0].Text, nil, false)
	if err != nil {
		return err
	}
	if err := d.sleep(ctx, time.Duration(frames[0].DelayMs)*time.Millisecond); err != nil {
		return err
	}

	for _, frame := range frames[1:] {
		if err := d.sender.EditMessage(ctx, in.ChatID, msgID, frame.Text, nil); err != nil {
			return err
		}
		if err := d.sleep(ctx, time.Duration(frame.DelayMs)*time.Millisecond); err != nil {
			return err
		}
	}

	// The final content overwrites the last frame in place.
	in.MessageID = msgID
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
