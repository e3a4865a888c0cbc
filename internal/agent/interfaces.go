package agent

import (
	"context"

	"github.com/Nour-MZ/Nomada/internal/models"
	"github.com/Nour-MZ/Nomada/internal/oracle"
)

// FlightProvider is the flight-API adapter.
type FlightProvider interface {
	Search(ctx context.Context, req models.FlightSearchRequest) ([]models.FlightOffer, error)
	GetOffer(ctx context.Context, offerID string) (models.FlightOffer, error)
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.OrderDetail, error)
	CreatePayment(ctx context.Context, req models.CreatePaymentRequest) (models.PaymentDetail, error)
	GetOrder(ctx context.Context, orderID string) (models.OrderDetail, error)
	CancelOrder(ctx context.Context, orderID string, autoConfirm bool) (models.CancellationDetail, error)
	RequestChangeOffers(ctx context.Context, orderID string, slices []models.SearchSlice, maxOffers int) ([]models.ChangeOffer, error)
	ConfirmChange(ctx context.Context, req models.ConfirmChangeRequest) (models.ChangeConfirmation, error)
}

// HotelProvider is the hotel-API adapter.
type HotelProvider interface {
	Search(ctx context.Context, req models.HotelSearchRequest) ([]models.Hotel, error)
	Book(ctx context.Context, req models.HotelBookingRequest) (models.HotelBooking, error)
	GetBooking(ctx context.Context, reference string) (models.HotelBooking, error)
	CancelBooking(ctx context.Context, reference string) (models.HotelCancellation, error)
}

// Oracle decides between a direct answer and a tool call, and narrates
// tool results.
type Oracle interface {
	Decide(ctx context.Context, history []models.Turn, catalogPrompt string) (models.Decision, error)
	Narrate(ctx context.Context, n oracle.Narration) (string, error)
}

// BookingStore persists confirmed bookings. Records are never deleted.
type BookingStore interface {
	SaveBooking(ctx context.Context, userEmail string, bookingType models.BookingType, reference, title string, detail any) (uint, error)
	ListBookings(ctx context.Context, userEmail string) ([]models.BookingRecord, error)
	CancelBooking(ctx context.Context, userEmail, reference string) error
}

// SearchCache keeps the latest flight and hotel results per session so a
// later turn can pick one by position.
type SearchCache interface {
	SaveSearch(ctx context.Context, sessionID string, offers []models.FlightOffer, meta models.SearchMeta) (string, error)
	LoadLatest(ctx context.Context, sessionID string) ([]models.OfferRecord, error)
	SaveHotelSearch(ctx context.Context, sessionID string, hotels []models.Hotel, req models.HotelSearchRequest) (string, error)
	LoadLatestHotels(ctx context.Context, sessionID string) ([]models.Hotel, *models.HotelSearchRequest, error)
}

type PaymentStore interface {
	UpsertPayment(ctx context.Context, rec models.PaymentRecord) error
}

type UserDirectory interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// NotificationSink delivers booking confirmations. Failures never fail the
// booking.
type NotificationSink interface {
	SendBookingConfirmation(ctx context.Context, c models.BookingConfirmation) error
}

// EventPublisher pushes booking changes to connected clients.
type EventPublisher interface {
	PublishBooking(rec models.BookingRecord)
}

type Metrics interface {
	TurnHandled(ctx context.Context, outcome string)
	ToolCalled(ctx context.Context, tool, outcome string)
	DuplicateRejected(ctx context.Context)
}

type noopMetrics struct{}

func (noopMetrics) TurnHandled(context.Context, string) {}
func (noopMetrics) ToolCalled(context.Context, string, string) {}
func (noopMetrics) DuplicateRejected(context.Context) {}
