package activities

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/Nour-MZ/Nomada/internal/models"
)

type stubSender struct {
	err  error
	sent []models.BookingConfirmation
}

func (s *stubSender) SendBookingConfirmation(_ context.Context, c models.BookingConfirmation) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, c)
	return nil
}

func confirmation() models.BookingConfirmation {
	return models.BookingConfirmation{
		Type:      models.BookingTypeFlight,
		UserEmail: "ada@example.com",
		Reference: "ABC123",
		Passengers: []models.PassengerSpec{
			{GivenName: "Ada", Email: "ada@example.com"},
			{GivenName: "Charles", Email: "charles@example.com"},
		},
	}
}

func newEnv(a *Activities) *testsuite.TestActivityEnvironment {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(a.SendBookingEmail)
	return env
}

func TestSendBookingEmail_Success(t *testing.T) {
	sender := &stubSender{}
	a := New(sender)
	env := newEnv(a)

	val, err := env.ExecuteActivity(a.SendBookingEmail, confirmation())
	require.NoError(t, err)

	var result SendBookingEmailResult
	require.NoError(t, val.Get(&result))
	assert.Equal(t, []string{"ada@example.com", "charles@example.com"}, result.Recipients)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ABC123", sender.sent[0].Reference)
}

func TestSendBookingEmail_NoRecipientsIsNotRetried(t *testing.T) {
	sender := &stubSender{}
	a := New(sender)
	env := newEnv(a)

	_, err := env.ExecuteActivity(a.SendBookingEmail, models.BookingConfirmation{Reference: "X"})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.True(t, appErr.NonRetryable())
	assert.Empty(t, sender.sent)
}

func TestSendBookingEmail_TransportErrorIsRetryable(t *testing.T) {
	a := New(&stubSender{err: errors.New("connection refused")})
	env := newEnv(a)

	_, err := env.ExecuteActivity(a.SendBookingEmail, confirmation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		assert.False(t, appErr.NonRetryable())
	}
}
