// Package planner assembles a trip from the cheapest flight and hotel that
// match the traveler's constraints.
package planner

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/Nour-MZ/Nomada/internal/models"
	"github.com/Nour-MZ/Nomada/internal/normalize"
)

const (
	dateLayout    = "2006-01-02"
	DefaultNights = 3
)

// OptionalFields are reported alongside missing required constraints.
var OptionalFields = []string{
	"return_date", "passengers", "cabin_class", "hotel_destination_code", "rooms",
	"hotel_min_rate", "hotel_max_rate", "hotel_keywords", "hotel_categories", "interests",
}

type FlightSearcher interface {
	Search(ctx context.Context, req models.FlightSearchRequest) ([]models.FlightOffer, error)
}

type HotelSearcher interface {
	Search(ctx context.Context, req models.HotelSearchRequest) ([]models.Hotel, error)
}

// Planner runs one flight search and one hotel search per plan.
type Planner struct {
	flights   FlightSearcher
	hotels    HotelSearcher
	maxOffers int
	maxHotels int
}

func New(flights FlightSearcher, hotels HotelSearcher) *Planner {
	return &Planner{flights: flights, hotels: hotels, maxOffers: 10, maxHotels: 10}
}

// ParseConstraints reads validated tool arguments. Origin, destination,
// departure date and budget are required; "any" and "none" count as
// missing.
func ParseConstraints(args map[string]any) (models.TripConstraints, error) {
	c := models.TripConstraints{
		Origin:        text(args["origin"]),
		Destination:   text(args["destination"]),
		DepartureDate: text(args["departure_date"]),
		ReturnDate:    text(args["return_date"]),
		Budget:        parseBudget(args["budget"]),
		CabinClass:    models.CabinClass(text(args["cabin_class"])),
		HotelCode:     text(args["hotel_destination_code"]),
		HotelMinRate:  number(args["hotel_min_rate"]),
		HotelMaxRate:  number(args["hotel_max_rate"]),
		HotelKeywords: stringList(args["hotel_keywords"]),
		HotelCategory: stringList(args["hotel_categories"]),
		Interests:     stringList(args["interests"]),
	}
	if n := int(number(args["passengers"])); n > 0 {
		c.Passengers = n
	}
	if raw, ok := args["rooms"]; ok && raw != nil {
		c.Rooms = normalize.Rooms(raw)
	}

	var missing []string
	if c.Origin == "" {
		missing = append(missing, "origin")
	}
	if c.Destination == "" {
		missing = append(missing, "destination")
	}
	if c.DepartureDate == "" {
		missing = append(missing, "departure_date")
	}
	if c.Budget == nil {
		missing = append(missing, "budget")
	}
	if len(missing) > 0 {
		return c, &models.ValidationFailure{
			Message:        "Missing required trip details",
			MissingFields:  missing,
			OptionalFields: OptionalFields,
			Hint:           fmt.Sprintf("Please provide: %s. Origin and destination are IATA codes, dates are YYYY-MM-DD.", strings.Join(missing, ", ")),
		}
	}
	return c, nil
}

// Plan searches flights then hotels and prices the cheapest combination.
// The hotel stay starts on the day the flight actually lands.
func (p *Planner) Plan(ctx context.Context, c models.TripConstraints) (models.TripPlan, models.TripPlanContext, error) {
	slices, err := normalize.SearchSlices(c.Origin, c.Destination, c.DepartureDate, c.ReturnDate)
	if err != nil {
		return models.TripPlan{}, models.TripPlanContext{}, err
	}
	cabin, err := normalize.CabinClass(string(c.CabinClass))
	if err != nil {
		return models.TripPlan{}, models.TripPlanContext{}, err
	}
	passengers := max(1, c.Passengers)

	offers, err := p.flights.Search(ctx, models.FlightSearchRequest{
		Slices:     slices[:1],
		Passengers: normalize.SearchPassengers(passengers),
		CabinClass: cabin,
		MaxOffers:  p.maxOffers,
	})
	if err != nil {
		return models.TripPlan{}, models.TripPlanContext{}, err
	}
	if len(offers) == 0 {
		return models.TripPlan{}, models.TripPlanContext{}, &models.NoResultsFailure{Stage: "flight", Criteria: map[string]any{
			"origin":         slices[0].Origin,
			"destination":    slices[0].Destination,
			"departure_date": slices[0].DepartureDate,
			"cabin_class":    cabin,
			"passengers":     passengers,
		}}
	}
	flight := lo.MinBy(offers, func(a, b models.FlightOffer) bool { return a.TotalAmount < b.TotalAmount })

	checkIn := slices[0].DepartureDate
	if arrival, ok := flight.LastArrival(); ok {
		checkIn = arrival.Format(dateLayout)
	}
	checkOut, nights := stay(checkIn, c.ReturnDate)

	hotelCode := strings.ToUpper(lo.CoalesceOrEmpty(c.HotelCode, slices[0].Destination))
	rooms := c.Rooms
	if len(rooms) == 0 {
		rooms = normalize.Rooms(passengers)
	}
	hotelReq := models.HotelSearchRequest{
		DestinationCode: hotelCode,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Rooms:           rooms,
		Filters: models.HotelFilters{
			MaxHotels:  p.maxHotels,
			MinRate:    c.HotelMinRate,
			MaxRate:    c.HotelMaxRate,
			Categories: c.HotelCategory,
			Keywords:   c.HotelKeywords,
		},
	}
	hotels, err := p.hotels.Search(ctx, hotelReq)
	if err != nil {
		return models.TripPlan{}, models.TripPlanContext{}, err
	}
	if len(hotels) == 0 {
		return models.TripPlan{}, models.TripPlanContext{}, &models.NoResultsFailure{Stage: "hotel", Criteria: map[string]any{
			"destination_code": hotelCode,
			"check_in":         checkIn,
			"check_out":        checkOut,
			"min_rate":         c.HotelMinRate,
			"max_rate":         c.HotelMaxRate,
		}}
	}
	hotel := lo.MinBy(hotels, cheaperHotel)

	var budget float64
	if c.Budget != nil {
		budget = *c.Budget
	}
	estimate := models.CostEstimate{
		Total:       round2(flight.TotalAmount + hotel.Rate()),
		Currency:    flight.TotalCurrency,
		FlightTotal: flight.TotalAmount,
		HotelTotal:  hotel.Rate(),
	}
	if hotel.Currency != "" && hotel.Currency != flight.TotalCurrency {
		estimate.HotelCurrency = hotel.Currency
	}
	estimate.WithinBudget = budget > 0 && estimate.Total <= budget

	plan := models.TripPlan{
		Origin:        slices[0].Origin,
		Destination:   slices[0].Destination,
		DepartureDate: slices[0].DepartureDate,
		ReturnDate:    c.ReturnDate,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Nights:        nights,
		Budget:        budget,
		BestFlight:    flight,
		BestHotel:     hotel,
		Activities:    Activities(slices[0].Destination, c.Interests),
		CostEstimate:  estimate,
	}
	tripCtx := models.TripPlanContext{
		OfferID:      flight.ID,
		PassengerIDs: flight.PassengerIDs,
		HotelCode:    hotel.Code,
		HotelName:    hotel.Name,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Rooms:        rooms,
	}
	if rate, ok := hotel.CheapestRate(); ok {
		tripCtx.RateKey = rate.RateKey
	}
	return plan, tripCtx, nil
}

// stay ends on the return date when it falls after check-in, otherwise
// DefaultNights later.
func stay(checkIn, returnDate string) (string, int) {
	in, err := time.Parse(dateLayout, checkIn)
	if err != nil {
		return checkIn, 0
	}
	if out, err := time.Parse(dateLayout, returnDate); err == nil && out.After(in) {
		return returnDate, int(out.Sub(in).Hours() / 24)
	}
	return in.AddDate(0, 0, DefaultNights).Format(dateLayout), DefaultNights
}

// Hotels without a price sort last.
func cheaperHotel(a, b models.Hotel) bool {
	ar, br := a.Rate(), b.Rate()
	if ar <= 0 {
		return false
	}
	return br <= 0 || ar < br
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var amountPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

func parseBudget(v any) *float64 {
	switch b := v.(type) {
	case float64:
		if b > 0 {
			return &b
		}
	case int:
		if b > 0 {
			f := float64(b)
			return &f
		}
	case string:
		if isPlaceholder(b) {
			return nil
		}
		m := amountPattern.FindString(strings.ReplaceAll(b, ",", ""))
		if f, err := strconv.ParseFloat(m, 64); err == nil && f > 0 {
			return &f
		}
	}
	return nil
}

func isPlaceholder(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "none", "null", "n/a":
		return true
	}
	return false
}

func text(v any) string {
	s, _ := v.(string)
	if isPlaceholder(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f
	}
	return 0
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return lo.Compact(list)
	case []any:
		return lo.Compact(lo.Map(list, func(item any, _ int) string { return text(item) }))
	case string:
		if text(list) == "" {
			return nil
		}
		return lo.Compact(lo.Map(strings.Split(list, ","), func(s string, _ int) string { return strings.TrimSpace(s) }))
	}
	return nil
}
