// Package service is the façade the REST handlers call: chat turns,
// accounts, booking history and cancellation.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nour-MZ/Nomada/internal/database"
	"github.com/Nour-MZ/Nomada/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrNotCancellable     = errors.New("cancellation was not confirmed by the provider")
)

const minPasswordLength = 8

// Service defines the operations exposed over HTTP.
type Service interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	ListBookings(ctx context.Context, email string) ([]models.BookingRecord, error)
	CancelBooking(ctx context.Context, req models.CancelBookingRequest) (*models.CancellationDetail, error)
	ListPayments(ctx context.Context, email string) ([]models.PaymentRecord, error)
	DeleteSession(ctx context.Context, sessionID string) bool
}

// Conversation runs chat turns. *agent.Agent implements it.
type Conversation interface {
	HandleTurn(ctx context.Context, sessionID, email, message string) (string, models.OutboundMessage)
}

// Sessions forgets conversation state. *agent.Registry implements it.
type Sessions interface {
	Delete(id string) bool
}

// Store is the persistence the service reads and writes.
// *database.Repository implements it.
type Store interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListBookings(ctx context.Context, userEmail string) ([]models.BookingRecord, error)
	CancelBooking(ctx context.Context, userEmail, reference string) error
	ListPayments(ctx context.Context, email string) ([]models.PaymentRecord, error)
}

type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID string, autoConfirm bool) (models.CancellationDetail, error)
}

type EventPublisher interface {
	PublishBooking(rec models.BookingRecord)
}

// Deps are the collaborators of the default service. Events may be nil.
type Deps struct {
	Conversation Conversation
	Sessions     Sessions
	Store        Store
	Flights      OrderCanceller
	Events       EventPublisher
}

type serviceImpl struct {
	deps Deps
}

// NewService creates the default Service.
func NewService(deps Deps) Service {
	return &serviceImpl{deps: deps}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *serviceImpl) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Message, validation.Required),
		validation.Field(&req.Email, is.EmailFormat),
	); err != nil {
		return nil, err
	}
	sessionID := lo.CoalesceOrEmpty(strings.TrimSpace(req.SessionID), uuid.NewString())

	sessionID, out := s.deps.Conversation.HandleTurn(ctx, sessionID, req.Email, req.Message)
	return &models.ChatResponse{
		SessionID: sessionID,
		Reply:     out.Text,
		Kind:      string(out.Kind),
	}, nil
}

func (s *serviceImpl) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.Password, validation.Required, validation.Length(minPasswordLength, 72)),
	); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := s.deps.Store.CreateUser(ctx, req.Name, req.Email, string(hash))
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		Success: true,
		Message: "Account created",
		Name:    user.Name,
		Email:   user.Email,
	}, nil
}

func (s *serviceImpl) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.Password, validation.Required),
	); err != nil {
		return nil, err
	}

	user, err := s.deps.Store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &models.AuthResponse{
		Success: true,
		Message: "Logged in",
		Name:    user.Name,
		Email:   user.Email,
	}, nil
}

func (s *serviceImpl) ListBookings(ctx context.Context, email string) ([]models.BookingRecord, error) {
	email = normalizeEmail(email)
	if err := validation.Validate(email, validation.Required, is.EmailFormat); err != nil {
		return nil, validation.Errors{"email": err}
	}
	return s.deps.Store.ListBookings(ctx, email)
}

// CancelBooking cancels a flight order owned by req.Email with the provider
// and marks the stored booking cancelled once the provider confirms.
func (s *serviceImpl) CancelBooking(ctx context.Context, req models.CancelBookingRequest) (*models.CancellationDetail, error) {
	req.Email = normalizeEmail(req.Email)
	req.OrderID = strings.TrimSpace(req.OrderID)
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.OrderID, validation.Required),
	); err != nil {
		return nil, err
	}

	bookings, err := s.deps.Store.ListBookings(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	booking, ok := lo.Find(bookings, func(b models.BookingRecord) bool {
		return b.Type == models.BookingTypeFlight && b.Reference == req.OrderID
	})
	if !ok {
		return nil, ErrBookingNotFound
	}
	if booking.Status == models.BookingStatusCancelled {
		return &models.CancellationDetail{OrderID: req.OrderID, Confirmed: true}, nil
	}

	detail, err := s.deps.Flights.CancelOrder(ctx, req.OrderID, true)
	if err != nil {
		return nil, err
	}
	if !detail.Confirmed {
		return &detail, ErrNotCancellable
	}
	if err := s.deps.Store.CancelBooking(ctx, req.Email, req.OrderID); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	if s.deps.Events != nil {
		booking.Status = models.BookingStatusCancelled
		s.deps.Events.PublishBooking(booking)
	}
	return &detail, nil
}

func (s *serviceImpl) ListPayments(ctx context.Context, email string) ([]models.PaymentRecord, error) {
	email = normalizeEmail(email)
	if err := validation.Validate(email, validation.Required, is.EmailFormat); err != nil {
		return nil, validation.Errors{"email": err}
	}
	return s.deps.Store.ListPayments(ctx, email)
}

func (s *serviceImpl) DeleteSession(_ context.Context, sessionID string) bool {
	return s.deps.Sessions.Delete(sessionID)
}
