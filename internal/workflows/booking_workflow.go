package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Nour-MZ/Nomada/internal/activities"
	"github.com/Nour-MZ/Nomada/internal/models"
)

const (
	// EmailTimeout bounds a single SMTP attempt.
	EmailTimeout = 30 * time.Second
	// MaxEmailAttempts is how many times delivery is tried before giving up.
	MaxEmailAttempts = 5
)

// BookingConfirmationWorkflow delivers the confirmation email for a booking,
// retrying transient SMTP failures. A booking is never undone because its
// email could not be sent, so delivery failure is reported in the result
// rather than failing the workflow.
func BookingConfirmationWorkflow(ctx workflow.Context, input models.BookingConfirmationWorkflowInput) (*models.BookingConfirmationWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	c := input.Confirmation
	logger.Info("Booking confirmation workflow started", "reference", c.Reference, "type", c.Type)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: EmailTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        MaxEmailAttempts,
			NonRetryableErrorTypes: []string{"NoRecipients"},
		},
	})

	var sent activities.SendBookingEmailResult
	err := workflow.ExecuteActivity(ctx, models.ActivitySendBookingEmail, c).Get(ctx, &sent)
	if err != nil {
		logger.Error("Booking email not delivered", "reference", c.Reference, "error", err)
		return &models.BookingConfirmationWorkflowResult{
			Delivered:     false,
			Recipients:    c.Recipients(),
			FailureReason: err.Error(),
		}, nil
	}

	logger.Info("Booking confirmation delivered", "reference", c.Reference, "recipients", len(sent.Recipients))
	return &models.BookingConfirmationWorkflowResult{
		Delivered:  true,
		Recipients: sent.Recipients,
	}, nil
}
