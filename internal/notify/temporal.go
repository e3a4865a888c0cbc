package notify

import (
	"context"
	"fmt"
	"log"

	"go.temporal.io/sdk/client"

	"github.com/Nour-MZ/Nomada/internal/models"
)

// WorkflowStarter is the part of client.Client the sink needs.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// TemporalSink hands confirmations to the booking confirmation workflow,
// which retries delivery on the worker.
type TemporalSink struct {
	client    WorkflowStarter
	taskQueue string
	logger    *log.Logger
}

func NewTemporalSink(c WorkflowStarter, taskQueue string, logger *log.Logger) *TemporalSink {
	if logger == nil {
		logger = log.Default()
	}
	return &TemporalSink{client: c, taskQueue: taskQueue, logger: logger}
}

// WorkflowID is stable per booking so a repeated start is rejected by
// Temporal instead of sending a second email.
func WorkflowID(c models.BookingConfirmation) string {
	return fmt.Sprintf("booking-confirmation-%s-%s", c.Type, c.Reference)
}

func (s *TemporalSink) SendBookingConfirmation(ctx context.Context, c models.BookingConfirmation) error {
	if len(c.Recipients()) == 0 {
		return ErrNoRecipients
	}
	opts := client.StartWorkflowOptions{
		ID:        WorkflowID(c),
		TaskQueue: s.taskQueue,
	}
	if _, err := s.client.ExecuteWorkflow(ctx, opts, models.WorkflowBookingConfirmation, models.BookingConfirmationWorkflowInput{
		Confirmation: c,
	}); err != nil {
		return fmt.Errorf("failed to start confirmation workflow: %w", err)
	}
	s.logger.Printf("confirmation workflow started id=%s queue=%s", opts.ID, s.taskQueue)
	return nil
}
