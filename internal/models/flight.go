package models

import (
	"encoding/json"
	"strings"
	"time"
)

// ProviderPassengerIDPrefix is the flight provider's convention for
// passenger ids it has issued (e.g. "pas_0000A...").
const ProviderPassengerIDPrefix = "pas_"

// IsProviderPassengerID reports whether id was issued by the flight provider.
func IsProviderPassengerID(id string) bool {
	return strings.HasPrefix(strings.TrimSpace(id), ProviderPassengerIDPrefix)
}

type CabinClass string

const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium_economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

// ValidCabinClasses lists every cabin class the flight provider accepts.
var ValidCabinClasses = []CabinClass{CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst}

// SearchSlice is one leg of a flight search request.
type SearchSlice struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

// SearchPassenger is a passenger entry of a search request.
type SearchPassenger struct {
	Type string `json:"type,omitempty"`
	Age  int    `json:"age,omitempty"`
}

// FlightSearchRequest is the normalized input of FlightProvider.Search.
type FlightSearchRequest struct {
	Slices     []SearchSlice     `json:"slices"`
	Passengers []SearchPassenger `json:"passengers"`
	CabinClass CabinClass        `json:"cabin_class"`
	MaxOffers  int               `json:"max_offers"`
}

// Segment is a single flown leg inside a slice.
type Segment struct {
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartingAt   time.Time `json:"departing_at"`
	ArrivingAt    time.Time `json:"arriving_at"`
	MarketingCode string    `json:"marketing_carrier,omitempty"`
	FlightNumber  string    `json:"flight_number,omitempty"`
	Duration      string    `json:"duration,omitempty"`
}

// Slice is an origin to destination journey made of one or more segments.
type Slice struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Duration    string    `json:"duration,omitempty"`
	Segments    []Segment `json:"segments"`
}

// FlightOffer is a priced itinerary returned by a flight search.
type FlightOffer struct {
	ID            string          `json:"offer_id"`
	TotalAmount   float64         `json:"total_amount"`
	TotalCurrency string          `json:"total_currency"`
	Owner         string          `json:"owner,omitempty"`
	ExpiresAt     string          `json:"expires_at,omitempty"`
	PassengerIDs  []string        `json:"passenger_ids"`
	Slices        []Slice         `json:"slices"`
	Raw           json.RawMessage `json:"-"`
}

// LastArrival returns the arrival time of the last segment of the last
// slice, which is when the traveler actually reaches the destination.
func (o FlightOffer) LastArrival() (time.Time, bool) {
	if len(o.Slices) == 0 {
		return time.Time{}, false
	}
	segs := o.Slices[len(o.Slices)-1].Segments
	if len(segs) == 0 {
		return time.Time{}, false
	}
	arr := segs[len(segs)-1].ArrivingAt
	return arr, !arr.IsZero()
}

// OfferRecord is a cached search result row addressable by position.
type OfferRecord struct {
	OfferID      string          `json:"offer_id"`
	PassengerIDs []string        `json:"passenger_ids"`
	Raw          json.RawMessage `json:"raw"`
}

// SearchMeta describes the query that produced a cached search.
type SearchMeta struct {
	Origin        string `json:"origin,omitempty"`
	Destination   string `json:"destination,omitempty"`
	DepartureDate string `json:"departure_date,omitempty"`
	ReturnDate    string `json:"return_date,omitempty"`
	CabinClass    string `json:"cabin_class,omitempty"`
}

// PassengerSpec is the identity record the flight provider needs per traveler.
type PassengerSpec struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Gender      string `json:"gender,omitempty"`
	GivenName   string `json:"given_name,omitempty"`
	FamilyName  string `json:"family_name,omitempty"`
	BornOn      string `json:"born_on,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// RequiredPassengerFields are the fields an order needs for every passenger.
var RequiredPassengerFields = []string{
	"id", "title", "gender", "given_name", "family_name", "born_on", "email", "phone_number",
}

// Field returns the value of a passenger field by its wire name.
func (p PassengerSpec) Field(name string) string {
	switch name {
	case "id":
		return p.ID
	case "title":
		return p.Title
	case "gender":
		return p.Gender
	case "given_name":
		return p.GivenName
	case "family_name":
		return p.FamilyName
	case "born_on":
		return p.BornOn
	case "email":
		return p.Email
	case "phone_number":
		return p.PhoneNumber
	}
	return ""
}

// FullName joins given and family names.
func (p PassengerSpec) FullName() string {
	return strings.TrimSpace(p.GivenName + " " + p.FamilyName)
}

type OrderType string

const (
	OrderTypeInstant OrderType = "instant"
	OrderTypeHold    OrderType = "hold"
)

// CreateOrderRequest is the provider-ready order input. Payment never
// carries raw card data.
type CreateOrderRequest struct {
	OfferID     string          `json:"offer_id"`
	Passengers  []PassengerSpec `json:"passengers"`
	PaymentType string          `json:"payment_type"`
	OrderType   OrderType       `json:"order_type"`
	CardID      string          `json:"card_id,omitempty"`
}

// OrderDetail is the normalized view of a flight order.
type OrderDetail struct {
	OrderID           string          `json:"order_id"`
	BookingReference  string          `json:"booking_reference"`
	TotalAmount       float64         `json:"total_amount"`
	TotalCurrency     string          `json:"total_currency"`
	OrderType         OrderType       `json:"order_type,omitempty"`
	PaymentRequiredBy string          `json:"payment_required_by,omitempty"`
	Paid              bool            `json:"paid"`
	Passengers        []PassengerSpec `json:"passengers"`
	Itinerary         []Slice         `json:"itinerary"`
	CancelledAt       string          `json:"cancelled_at,omitempty"`
}

// CreatePaymentRequest pays for a hold order.
type CreatePaymentRequest struct {
	OrderID     string  `json:"order_id"`
	Amount      float64 `json:"amount,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	PaymentType string  `json:"payment_type"`
	CardID      string  `json:"card_id,omitempty"`
}

// PaymentDetail is the provider's payment confirmation.
type PaymentDetail struct {
	PaymentID string  `json:"payment_id"`
	OrderID   string  `json:"order_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Type      string  `json:"type"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// CancellationDetail is the outcome of a cancel request and, when
// auto-confirmed, of its confirmation.
type CancellationDetail struct {
	CancellationID    string  `json:"cancellation_id"`
	OrderID           string  `json:"order_id"`
	RefundAmount      float64 `json:"refund_amount"`
	RefundCurrency    string  `json:"refund_currency"`
	RefundTo          string  `json:"refund_to,omitempty"`
	Confirmed         bool    `json:"confirmed"`
	ConfirmedAt       string  `json:"confirmed_at,omitempty"`
	ConfirmationError string  `json:"confirmation_error,omitempty"`
}

// ChangeOffer is a priced alternative itinerary for an existing order.
type ChangeOffer struct {
	ID                  string  `json:"change_offer_id"`
	ChangeTotalAmount   float64 `json:"change_total_amount"`
	ChangeTotalCurrency string  `json:"change_total_currency"`
	NewTotalAmount      float64 `json:"new_total_amount"`
	PenaltyAmount       float64 `json:"penalty_total_amount"`
	ExpiresAt           string  `json:"expires_at,omitempty"`
	Slices              []Slice `json:"slices,omitempty"`
}

// ChangeConfirmation is the result of applying a change offer.
type ChangeConfirmation struct {
	ChangeID    string  `json:"order_change_id"`
	OrderID     string  `json:"order_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	ConfirmedAt string  `json:"confirmed_at,omitempty"`
}

// ConfirmChangeRequest applies a change offer. Amount and currency are
// resolved from the change offer when left empty.
type ConfirmChangeRequest struct {
	ChangeOfferID string  `json:"change_offer_id"`
	PaymentType   string  `json:"payment_type"`
	Amount        float64 `json:"amount,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	CardID        string  `json:"card_id,omitempty"`
}
