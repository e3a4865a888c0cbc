package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nour-MZ/Nomada/internal/database"
	"github.com/Nour-MZ/Nomada/internal/models"
)

type stubConversation struct {
	sessionID string
	email     string
	message   string
}

func (c *stubConversation) HandleTurn(_ context.Context, sessionID, email, message string) (string, models.OutboundMessage) {
	c.sessionID, c.email, c.message = sessionID, email, message
	return sessionID, models.OutboundMessage{Kind: models.OutboundText, Text: "Where would you like to go?"}
}

type stubSessions map[string]bool

func (s stubSessions) Delete(id string) bool {
	if !s[id] {
		return false
	}
	delete(s, id)
	return true
}

type stubFlights struct {
	detail models.CancellationDetail
	err    error
	calls  []string
}

func (f *stubFlights) CancelOrder(_ context.Context, orderID string, _ bool) (models.CancellationDetail, error) {
	f.calls = append(f.calls, orderID)
	return f.detail, f.err
}

type recordedEvents []models.BookingRecord

func (e *recordedEvents) PublishBooking(rec models.BookingRecord) {
	*e = append(*e, rec)
}

type fixture struct {
	svc      Service
	repo     *database.Repository
	conv     *stubConversation
	flights  *stubFlights
	events   *recordedEvents
	sessions stubSessions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := database.Open("sqlite", filepath.Join(t.TempDir(), "nomada.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	f := &fixture{
		repo:     repo,
		conv:     &stubConversation{},
		flights:  &stubFlights{detail: models.CancellationDetail{OrderID: "ord_1", Confirmed: true}},
		events:   &recordedEvents{},
		sessions: stubSessions{"s1": true},
	}
	f.svc = NewService(Deps{
		Conversation: f.conv,
		Sessions:     f.sessions,
		Store:        repo,
		Flights:      f.flights,
		Events:       f.events,
	})
	return f
}

func TestChat(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Chat(context.Background(), models.ChatRequest{SessionID: "s1", Message: "hi", Email: "ada@example.com"})

	require.NoError(t, err)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "Where would you like to go?", resp.Reply)
	assert.Equal(t, "text", resp.Kind)
	assert.Equal(t, "ada@example.com", f.conv.email)
}

func TestChat_AssignsSessionID(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Chat(context.Background(), models.ChatRequest{Message: "hi"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, resp.SessionID, f.conv.sessionID)
}

func TestChat_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Chat(context.Background(), models.ChatRequest{SessionID: "s1", Message: ""})
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "message")

	_, err = f.svc.Chat(context.Background(), models.ChatRequest{Message: "hi", Email: "not-an-email"})
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "email")
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, models.RegisterRequest{Name: " Ada Lovelace ", Email: "Ada@Example.com", Password: "analytical"})
	require.NoError(t, err)
	assert.True(t, reg.Success)
	assert.Equal(t, "Ada Lovelace", reg.Name)
	assert.Equal(t, "ada@example.com", reg.Email)

	user, err := f.repo.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "analytical", user.PasswordHash)

	login, err := f.svc.Login(ctx, models.LoginRequest{Email: "ADA@example.com", Password: "analytical"})
	require.NoError(t, err)
	assert.True(t, login.Success)
	assert.Equal(t, "Ada Lovelace", login.Name)

	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Register(ctx, models.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "analytical"})
	assert.ErrorIs(t, err, database.ErrEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), models.RegisterRequest{Name: "", Email: "bad", Password: "short"})

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "name")
	assert.Contains(t, verrs, "email")
	assert.Contains(t, verrs, "password")
}

func TestListBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.repo.SaveBooking(ctx, "ada@example.com", models.BookingTypeFlight, "ord_1", "Flight JFK-LHR", nil)
	require.NoError(t, err)

	bookings, err := f.svc.ListBookings(ctx, " ADA@example.com ")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "ord_1", bookings[0].Reference)

	_, err = f.svc.ListBookings(ctx, "")
	var verrs validation.Errors
	assert.True(t, errors.As(err, &verrs))
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.repo.SaveBooking(ctx, "ada@example.com", models.BookingTypeFlight, "ord_1", "Flight JFK-LHR", nil)
	require.NoError(t, err)

	detail, err := f.svc.CancelBooking(ctx, models.CancelBookingRequest{Email: "ada@example.com", OrderID: "ord_1"})

	require.NoError(t, err)
	assert.True(t, detail.Confirmed)
	assert.Equal(t, []string{"ord_1"}, f.flights.calls)
	bookings, err := f.repo.ListBookings(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, bookings[0].Status)
	require.Len(t, *f.events, 1)
	assert.Equal(t, models.BookingStatusCancelled, (*f.events)[0].Status)

	// already cancelled: no second provider call
	_, err = f.svc.CancelBooking(ctx, models.CancelBookingRequest{Email: "ada@example.com", OrderID: "ord_1"})
	require.NoError(t, err)
	assert.Len(t, f.flights.calls, 1)
}

func TestCancelBooking_NotOwned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.repo.SaveBooking(ctx, "ada@example.com", models.BookingTypeFlight, "ord_1", "Flight JFK-LHR", nil)
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(ctx, models.CancelBookingRequest{Email: "eve@example.com", OrderID: "ord_1"})

	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.Empty(t, f.flights.calls)
}

func TestCancelBooking_Unconfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.repo.SaveBooking(ctx, "ada@example.com", models.BookingTypeFlight, "ord_1", "Flight JFK-LHR", nil)
	require.NoError(t, err)
	f.flights.detail = models.CancellationDetail{OrderID: "ord_1", ConfirmationError: "too late"}

	detail, err := f.svc.CancelBooking(ctx, models.CancelBookingRequest{Email: "ada@example.com", OrderID: "ord_1"})

	assert.ErrorIs(t, err, ErrNotCancellable)
	require.NotNil(t, detail)
	assert.Equal(t, "too late", detail.ConfirmationError)
	bookings, err := f.repo.ListBookings(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusActive, bookings[0].Status)
	assert.Empty(t, *f.events)
}

func TestListPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.UpsertPayment(ctx, models.PaymentRecord{
		PaymentID: "pay_1", OrderID: "ord_1", Amount: 250, Currency: "EUR", Status: "succeeded",
		CustomerEmail: "ada@example.com", CardBrand: "visa", CardLast4: "4242",
	}))

	payments, err := f.svc.ListPayments(ctx, "ada@example.com")

	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "4242", payments[0].CardLast4)
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.svc.DeleteSession(context.Background(), "s1"))
	assert.False(t, f.svc.DeleteSession(context.Background(), "s1"))
}
