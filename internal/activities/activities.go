package activities

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Nour-MZ/Nomada/internal/models"
	"github.com/Nour-MZ/Nomada/internal/notify"
)

// Sender delivers a confirmation. notify.SMTPSink is the production sender.
type Sender interface {
	SendBookingConfirmation(ctx context.Context, c models.BookingConfirmation) error
}

// Activities holds the dependencies of the confirmation activities.
type Activities struct {
	sender Sender
}

func New(sender Sender) *Activities {
	return &Activities{sender: sender}
}

// SendBookingEmailResult is what the workflow gets back on delivery.
type SendBookingEmailResult struct {
	Recipients []string `json:"recipients"`
}

// SendBookingEmail sends the confirmation email. Failures without
// recipients are not retried; transport errors are.
func (a *Activities) SendBookingEmail(ctx context.Context, c models.BookingConfirmation) (*SendBookingEmailResult, error) {
	logger := activity.GetLogger(ctx)
	recipients := c.Recipients()
	logger.Info("Sending booking email", "reference", c.Reference, "type", c.Type, "recipients", len(recipients))

	if len(recipients) == 0 {
		return nil, temporal.NewNonRetryableApplicationError("booking has no recipients", "NoRecipients", notify.ErrNoRecipients)
	}

	if err := a.sender.SendBookingConfirmation(ctx, c); err != nil {
		if errors.Is(err, notify.ErrNoRecipients) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), "NoRecipients", err)
		}
		logger.Warn("Booking email failed", "reference", c.Reference, "error", err)
		return nil, err
	}

	logger.Info("Booking email sent", "reference", c.Reference)
	return &SendBookingEmailResult{Recipients: recipients}, nil
}
