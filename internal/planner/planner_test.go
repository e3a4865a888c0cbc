package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nour-MZ/Nomada/internal/models"
)

type stubFlights struct {
	offers []models.FlightOffer
	err    error
	calls  []models.FlightSearchRequest
}

func (s *stubFlights) Search(_ context.Context, req models.FlightSearchRequest) ([]models.FlightOffer, error) {
	s.calls = append(s.calls, req)
	return s.offers, s.err
}

type stubHotels struct {
	hotels []models.Hotel
	err    error
	calls  []models.HotelSearchRequest
}

func (s *stubHotels) Search(_ context.Context, req models.HotelSearchRequest) ([]models.Hotel, error) {
	s.calls = append(s.calls, req)
	return s.hotels, s.err
}

func offer(id string, total float64, arrives time.Time) models.FlightOffer {
	return models.FlightOffer{
		ID:            id,
		TotalAmount:   total,
		TotalCurrency: "EUR",
		PassengerIDs:  []string{"pas_" + id},
		Slices: []models.Slice{{
			Origin:      "LHR",
			Destination: "PMI",
			Segments:    []models.Segment{{Origin: "LHR", Destination: "PMI", ArrivingAt: arrives}},
		}},
	}
}

func budget(v float64) *float64 { return &v }

func baseConstraints() models.TripConstraints {
	return models.TripConstraints{
		Origin:        "lhr",
		Destination:   "pmi",
		DepartureDate: "2025-12-25",
		Budget:        budget(1000),
		Interests:     []string{"Beach"},
	}
}

func TestParseConstraints_MissingFields(t *testing.T) {
	_, err := ParseConstraints(map[string]any{
		"origin":         "LHR",
		"destination":    "any",
		"departure_date": "",
		"budget":         "none",
	})
	var vf *models.ValidationFailure
	require.True(t, errors.As(err, &vf))
	assert.Equal(t, []string{"destination", "departure_date", "budget"}, vf.MissingFields)
	assert.Equal(t, OptionalFields, vf.OptionalFields)
	assert.Contains(t, vf.Hint, "destination, departure_date, budget")
}

func TestParseConstraints_Complete(t *testing.T) {
	c, err := ParseConstraints(map[string]any{
		"origin":           "LHR",
		"destination":      "PMI",
		"departure_date":   "2025-12-25",
		"budget":           "€1,500 total",
		"passengers":       2,
		"hotel_keywords":   "pool, spa",
		"interests":        []any{"food", ""},
		"hotel_max_rate":   "300",
		"hotel_categories": []any{"4EST"},
	})
	require.NoError(t, err)
	require.NotNil(t, c.Budget)
	assert.Equal(t, 1500.0, *c.Budget)
	assert.Equal(t, 2, c.Passengers)
	assert.Equal(t, []string{"pool", "spa"}, c.HotelKeywords)
	assert.Equal(t, []string{"food"}, c.Interests)
	assert.Equal(t, 300.0, c.HotelMaxRate)
	assert.Equal(t, []string{"4EST"}, c.HotelCategory)
}

func TestPlan_PicksCheapestAndChecksInOnArrival(t *testing.T) {
	flights := &stubFlights{offers: []models.FlightOffer{
		offer("off_a", 320, time.Date(2025, 12, 25, 14, 0, 0, 0, time.UTC)),
		offer("off_b", 210, time.Date(2025, 12, 26, 1, 30, 0, 0, time.UTC)),
	}}
	hotels := &stubHotels{hotels: []models.Hotel{
		{Code: 1, Name: "No Price", Currency: "EUR"},
		{Code: 2, Name: "Hotel Sol", Currency: "EUR", MinRate: 420.5, Rooms: []models.HotelRoom{{Rates: []models.HotelRate{{RateKey: "rk-2", Net: 420.5}}}}},
		{Code: 3, Name: "Hotel Mar", Currency: "EUR", MinRate: 510},
	}}

	plan, tripCtx, err := New(flights, hotels).Plan(context.Background(), baseConstraints())
	require.NoError(t, err)

	require.Len(t, flights.calls, 1)
	assert.Len(t, flights.calls[0].Slices, 1)
	assert.Equal(t, "LHR", flights.calls[0].Slices[0].Origin)
	assert.Equal(t, models.CabinEconomy, flights.calls[0].CabinClass)

	assert.Equal(t, "off_b", plan.BestFlight.ID)
	assert.Equal(t, "2025-12-26", plan.CheckIn)
	assert.Equal(t, "2025-12-29", plan.CheckOut)
	assert.Equal(t, DefaultNights, plan.Nights)

	require.Len(t, hotels.calls, 1)
	assert.Equal(t, "PMI", hotels.calls[0].DestinationCode)
	assert.Equal(t, "2025-12-26", hotels.calls[0].CheckIn)
	assert.Equal(t, 1, hotels.calls[0].Rooms[0].Adults)

	assert.Equal(t, "Hotel Sol", plan.BestHotel.Name)
	assert.Equal(t, 630.5, plan.CostEstimate.Total)
	assert.Equal(t, "EUR", plan.CostEstimate.Currency)
	assert.Empty(t, plan.CostEstimate.HotelCurrency)
	assert.True(t, plan.CostEstimate.WithinBudget)

	require.Len(t, plan.Activities, 1)
	assert.Equal(t, "beach", plan.Activities[0].Interest)
	assert.Contains(t, plan.Activities[0].Description, "PMI")

	assert.Equal(t, models.TripPlanContext{
		OfferID:      "off_b",
		PassengerIDs: []string{"pas_off_b"},
		HotelCode:    2,
		HotelName:    "Hotel Sol",
		RateKey:      "rk-2",
		CheckIn:      "2025-12-26",
		CheckOut:     "2025-12-29",
		Rooms:        hotels.calls[0].Rooms,
	}, tripCtx)
}

func TestPlan_ReturnDateEndsStay(t *testing.T) {
	c := baseConstraints()
	c.ReturnDate = "2026-01-02"
	c.HotelCode = "plm"
	c.Budget = budget(100)
	flights := &stubFlights{offers: []models.FlightOffer{offer("off_a", 200, time.Date(2025, 12, 25, 9, 0, 0, 0, time.UTC))}}
	hotels := &stubHotels{hotels: []models.Hotel{{Code: 9, Name: "Far", Currency: "GBP", MinRate: 300}}}

	plan, _, err := New(flights, hotels).Plan(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-02", plan.CheckOut)
	assert.Equal(t, 8, plan.Nights)
	assert.Equal(t, "PLM", hotels.calls[0].DestinationCode)
	assert.Equal(t, "GBP", plan.CostEstimate.HotelCurrency)
	assert.False(t, plan.CostEstimate.WithinBudget)
}

func TestPlan_NoResults(t *testing.T) {
	t.Run("no flights", func(t *testing.T) {
		hotels := &stubHotels{}
		_, _, err := New(&stubFlights{}, hotels).Plan(context.Background(), baseConstraints())
		var nr *models.NoResultsFailure
		require.True(t, errors.As(err, &nr))
		assert.Equal(t, "flight", nr.Stage)
		assert.Equal(t, "PMI", nr.Criteria["destination"])
		assert.Empty(t, hotels.calls)
	})

	t.Run("no hotels", func(t *testing.T) {
		flights := &stubFlights{offers: []models.FlightOffer{offer("off_a", 200, time.Time{})}}
		_, _, err := New(flights, &stubHotels{}).Plan(context.Background(), baseConstraints())
		var nr *models.NoResultsFailure
		require.True(t, errors.As(err, &nr))
		assert.Equal(t, "hotel", nr.Stage)
		assert.Equal(t, "2025-12-25", nr.Criteria["check_in"])
	})
}

func TestPlan_InvalidInputMakesNoProviderCall(t *testing.T) {
	c := baseConstraints()
	c.Origin = "London"
	flights := &stubFlights{}

	_, _, err := New(flights, &stubHotels{}).Plan(context.Background(), c)
	var vf *models.ValidationFailure
	require.True(t, errors.As(err, &vf))
	assert.Contains(t, vf.MissingFields, "origin")
	assert.Empty(t, flights.calls)
}

func TestPlan_ProviderErrorPassesThrough(t *testing.T) {
	pf := &models.ProviderFailure{Provider: "duffel", Operation: "search_flights", Message: "timeout"}
	_, _, err := New(&stubFlights{err: pf}, &stubHotels{}).Plan(context.Background(), baseConstraints())
	assert.Same(t, pf, err)
}

func TestActivities(t *testing.T) {
	assert.Len(t, Activities("BCN", nil), 2)
	assert.Len(t, Activities("BCN", []string{"museums", "Food", "food"}), 2)
	assert.Empty(t, Activities("BCN", []string{"skydiving"}))
}
