package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Nour-MZ/Nomada/internal/models"
)

type fakeFlights struct {
	mu sync.Mutex

	offers      []models.FlightOffer
	order       models.OrderDetail
	orderErr    error
	cancel      models.CancellationDetail
	changes     []models.ChangeOffer
	searchCalls int
	orders      []models.CreateOrderRequest
	payments    []models.CreatePaymentRequest
	lastSearch  models.FlightSearchRequest
}

func (f *fakeFlights) Search(_ context.Context, req models.FlightSearchRequest) ([]models.FlightOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	f.lastSearch = req
	return f.offers, nil
}

func (f *fakeFlights) GetOffer(_ context.Context, offerID string) (models.FlightOffer, error) {
	for _, o := range f.offers {
		if o.ID == offerID {
			return o, nil
		}
	}
	return models.FlightOffer{}, &models.ProviderFailure{Provider: "duffel", Operation: "get_offer", Message: "not found", Status: 404}
}

func (f *fakeFlights) CreateOrder(_ context.Context, req models.CreateOrderRequest) (models.OrderDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, req)
	return f.order, f.orderErr
}

func (f *fakeFlights) CreatePayment(_ context.Context, req models.CreatePaymentRequest) (models.PaymentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = append(f.payments, req)
	return models.PaymentDetail{PaymentID: "pay_1", OrderID: req.OrderID, Amount: 120, Currency: "EUR", Type: req.PaymentType, Status: "succeeded"}, nil
}

func (f *fakeFlights) GetOrder(_ context.Context, orderID string) (models.OrderDetail, error) {
	o := f.order
	o.OrderID = orderID
	return o, nil
}

func (f *fakeFlights) CancelOrder(_ context.Context, orderID string, autoConfirm bool) (models.CancellationDetail, error) {
	c := f.cancel
	c.OrderID = orderID
	c.Confirmed = autoConfirm
	return c, nil
}

func (f *fakeFlights) RequestChangeOffers(_ context.Context, _ string, _ []models.SearchSlice, _ int) ([]models.ChangeOffer, error) {
	return f.changes, nil
}

func (f *fakeFlights) ConfirmChange(_ context.Context, req models.ConfirmChangeRequest) (models.ChangeConfirmation, error) {
	return models.ChangeConfirmation{ChangeID: "oce_1", Amount: req.Amount, Currency: req.Currency}, nil
}

type fakeHotels struct {
	mu sync.Mutex

	hotels   []models.Hotel
	booking  models.HotelBooking
	bookErr  error
	bookings []models.HotelBookingRequest
}

func (h *fakeHotels) Search(context.Context, models.HotelSearchRequest) ([]models.Hotel, error) {
	return h.hotels, nil
}

func (h *fakeHotels) Book(_ context.Context, req models.HotelBookingRequest) (models.HotelBooking, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bookings = append(h.bookings, req)
	return h.booking, h.bookErr
}

func (h *fakeHotels) GetBooking(_ context.Context, reference string) (models.HotelBooking, error) {
	b := h.booking
	b.Reference = reference
	return b, nil
}

func (h *fakeHotels) CancelBooking(_ context.Context, reference string) (models.HotelCancellation, error) {
	return models.HotelCancellation{Reference: reference, Status: "CANCELLED"}, nil
}

// memStore backs the booking, cache, payment and user interfaces.
type memStore struct {
	mu sync.Mutex

	bookings  []models.BookingRecord
	cancelled []string
	offers    map[string][]models.OfferRecord
	hotels    map[string][]models.Hotel
	hotelReqs map[string]models.HotelSearchRequest
	payments  []models.PaymentRecord
	users     map[string]*models.User
}

func newMemStore() *memStore {
	return &memStore{
		offers:    map[string][]models.OfferRecord{},
		hotels:    map[string][]models.Hotel{},
		hotelReqs: map[string]models.HotelSearchRequest{},
		users:     map[string]*models.User{},
	}
}

func (m *memStore) SaveBooking(_ context.Context, email string, bookingType models.BookingType, reference, title string, detail any) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, _ := json.Marshal(detail)
	m.bookings = append(m.bookings, models.BookingRecord{
		ID:        uint(len(m.bookings) + 1),
		UserEmail: email,
		Type:      bookingType,
		Reference: reference,
		Title:     title,
		Detail:    raw,
		Status:    models.BookingStatusActive,
	})
	return uint(len(m.bookings)), nil
}

func (m *memStore) ListBookings(_ context.Context, email string) ([]models.BookingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BookingRecord
	for _, b := range m.bookings {
		if b.UserEmail == email {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) CancelBooking(_ context.Context, _ string, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, reference)
	for i := range m.bookings {
		if m.bookings[i].Reference == reference {
			m.bookings[i].Status = models.BookingStatusCancelled
		}
	}
	return nil
}

func (m *memStore) SaveSearch(_ context.Context, sessionID string, offers []models.FlightOffer, _ models.SearchMeta) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := make([]models.OfferRecord, 0, len(offers))
	for _, o := range offers {
		records = append(records, models.OfferRecord{OfferID: o.ID, PassengerIDs: o.PassengerIDs})
	}
	m.offers[sessionID] = records
	return fmt.Sprintf("search-%d", len(m.offers)), nil
}

func (m *memStore) LoadLatest(_ context.Context, sessionID string) ([]models.OfferRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offers[sessionID], nil
}

func (m *memStore) SaveHotelSearch(_ context.Context, sessionID string, hotels []models.Hotel, req models.HotelSearchRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotels[sessionID] = hotels
	m.hotelReqs[sessionID] = req
	return "hotel-search-1", nil
}

func (m *memStore) LoadLatestHotels(_ context.Context, sessionID string) ([]models.Hotel, *models.HotelSearchRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.hotelReqs[sessionID]
	if !ok {
		return nil, nil, nil
	}
	return m.hotels[sessionID], &req, nil
}

func (m *memStore) UpsertPayment(_ context.Context, rec models.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, rec)
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, fmt.Errorf("user %s not found", email)
	}
	return u, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []models.BookingConfirmation
}

func (n *fakeNotifier) SendBookingConfirmation(_ context.Context, c models.BookingConfirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, c)
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.BookingRecord
}

func (e *fakeEvents) PublishBooking(rec models.BookingRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, rec)
}

type fakeTokenizer struct {
	cards []models.RawCardDetails
}

func (t *fakeTokenizer) Tokenize(_ context.Context, card models.RawCardDetails) (models.CardToken, error) {
	t.cards = append(t.cards, card)
	return models.CardToken{CardID: "tcd_vaulted"}, nil
}

type recordingMetrics struct {
	mu         sync.Mutex
	turns      []string
	tools      []string
	duplicates int
}

func (r *recordingMetrics) TurnHandled(_ context.Context, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, outcome)
}

func (r *recordingMetrics) ToolCalled(_ context.Context, tool, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = append(r.tools, tool+":"+outcome)
}

func (r *recordingMetrics) DuplicateRejected(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.duplicates++
}
