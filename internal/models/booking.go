package models

import (
	"encoding/json"
	"time"
)

type BookingType string

const (
	BookingTypeFlight BookingType = "flight"
	BookingTypeHotel  BookingType = "hotel"
)

type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// BookingRecord is a persisted flight order or hotel booking owned by a user.
type BookingRecord struct {
	ID        uint            `json:"id"`
	UserEmail string          `json:"user_email"`
	Type      BookingType     `json:"type"`
	Reference string          `json:"reference"`
	Title     string          `json:"title"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	Status    BookingStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// User is a registered account.
type User struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// PaymentRecord tracks a payment made against a flight order. Only the
// card brand and last four digits are ever stored.
type PaymentRecord struct {
	ID            uint            `json:"id"`
	PaymentID     string          `json:"payment_id"`
	OfferID       string          `json:"offer_id,omitempty"`
	OrderID       string          `json:"order_id,omitempty"`
	Amount        float64         `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	CardBrand     string          `json:"card_brand,omitempty"`
	CardLast4     string          `json:"card_last4,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// RegisterRequest creates a user account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest authenticates a user.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
}

// ChatRequest is one turn sent by the web frontend.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Email     string `json:"email,omitempty"`
}

// ChatResponse carries the assistant reply for a turn.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Kind      string `json:"kind"`
}

// CancelBookingRequest cancels a flight order on behalf of a user.
type CancelBookingRequest struct {
	Email   string `json:"email"`
	OrderID string `json:"order_id"`
}
