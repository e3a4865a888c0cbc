package database

import (
	"encoding/json"
	"time"

	"github.com/Nour-MZ/Nomada/internal/models"
)

type bookingRow struct {
	ID         uint      `gorm:"primaryKey"`
	UserEmail  string    `gorm:"size:191;index;not null"`
	Type       string    `gorm:"size:32;not null"`
	Reference  string    `gorm:"size:191;index;not null"`
	Title      string    `gorm:"size:512"`
	DetailJSON string    `gorm:"type:text"`
	Status     string    `gorm:"size:32;not null;default:active"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

func (bookingRow) TableName() string {
	return "bookings"
}

func (r bookingRow) toRecord() models.BookingRecord {
	rec := models.BookingRecord{
		ID:        r.ID,
		UserEmail: r.UserEmail,
		Type:      models.BookingType(r.Type),
		Reference: r.Reference,
		Title:     r.Title,
		Status:    models.BookingStatus(r.Status),
		CreatedAt: r.CreatedAt,
	}
	if r.DetailJSON != "" {
		rec.Detail = json.RawMessage(r.DetailJSON)
	}
	return rec
}

type flightSearchRow struct {
	SearchID  string    `gorm:"primaryKey;size:64"`
	SessionID string    `gorm:"size:191;index;not null"`
	MetaJSON  string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
}

func (flightSearchRow) TableName() string {
	return "flight_searches"
}

type flightChoiceRow struct {
	ID               uint    `gorm:"primaryKey"`
	SearchID         string  `gorm:"size:64;index;not null"`
	SessionID        string  `gorm:"size:191;index;not null"`
	Position         int     `gorm:"not null"`
	OfferID          string  `gorm:"size:191;not null"`
	PassengerIDsJSON string  `gorm:"type:text"`
	TotalAmount      float64 `gorm:"not null"`
	Currency         string  `gorm:"size:8"`
	RawJSON          string  `gorm:"type:text"`
}

func (flightChoiceRow) TableName() string {
	return "flight_choices"
}

func (r flightChoiceRow) toRecord() models.OfferRecord {
	rec := models.OfferRecord{OfferID: r.OfferID}
	if r.PassengerIDsJSON != "" {
		_ = json.Unmarshal([]byte(r.PassengerIDsJSON), &rec.PassengerIDs)
	}
	if r.RawJSON != "" {
		rec.Raw = json.RawMessage(r.RawJSON)
	}
	return rec
}

type hotelSearchRow struct {
	SearchID    string    `gorm:"primaryKey;size:64"`
	SessionID   string    `gorm:"size:191;index;not null"`
	RequestJSON string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (hotelSearchRow) TableName() string {
	return "hotel_searches"
}

type hotelChoiceRow struct {
	ID        uint    `gorm:"primaryKey"`
	SearchID  string  `gorm:"size:64;index;not null"`
	SessionID string  `gorm:"size:191;index;not null"`
	Position  int     `gorm:"not null"`
	HotelCode int     `gorm:"not null"`
	Name      string  `gorm:"size:512"`
	MinRate   float64 `gorm:"not null"`
	Currency  string  `gorm:"size:8"`
	HotelJSON string  `gorm:"type:text"`
}

func (hotelChoiceRow) TableName() string {
	return "hotels"
}

type userRow struct {
	ID           uint      `gorm:"primaryKey"`
	Name         string    `gorm:"size:191;not null"`
	Email        string    `gorm:"size:191;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (userRow) TableName() string {
	return "users"
}

func (r userRow) toRecord() models.User {
	return models.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

type paymentRow struct {
	ID            uint      `gorm:"primaryKey"`
	PaymentID     string    `gorm:"size:191;uniqueIndex;not null"`
	OfferID       string    `gorm:"size:191"`
	OrderID       string    `gorm:"size:191;index"`
	Amount        float64   `gorm:"not null"`
	Currency      string    `gorm:"size:8"`
	Status        string    `gorm:"size:64;not null"`
	CustomerEmail string    `gorm:"size:191;index"`
	CardBrand     string    `gorm:"size:32"`
	CardLast4     string    `gorm:"size:4"`
	MetadataJSON  string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (paymentRow) TableName() string {
	return "payments"
}

func (r paymentRow) toRecord() models.PaymentRecord {
	rec := models.PaymentRecord{
		ID:            r.ID,
		PaymentID:     r.PaymentID,
		OfferID:       r.OfferID,
		OrderID:       r.OrderID,
		Amount:        r.Amount,
		Currency:      r.Currency,
		Status:        r.Status,
		CustomerEmail: r.CustomerEmail,
		CardBrand:     r.CardBrand,
		CardLast4:     r.CardLast4,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.MetadataJSON != "" {
		rec.Metadata = json.RawMessage(r.MetadataJSON)
	}
	return rec
}

func paymentRowFromRecord(rec models.PaymentRecord) paymentRow {
	return paymentRow{
		ID:            rec.ID,
		PaymentID:     rec.PaymentID,
		OfferID:       rec.OfferID,
		OrderID:       rec.OrderID,
		Amount:        rec.Amount,
		Currency:      rec.Currency,
		Status:        rec.Status,
		CustomerEmail: rec.CustomerEmail,
		CardBrand:     rec.CardBrand,
		CardLast4:     rec.CardLast4,
		MetadataJSON:  string(rec.Metadata),
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}
