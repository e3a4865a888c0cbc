package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Nour-MZ/Nomada/internal/models"
	"github.com/Nour-MZ/Nomada/internal/normalize"
	"github.com/Nour-MZ/Nomada/internal/planner"
)

const dateLayout = "2006-01-02"

func (a *Agent) searchHotels(ctx context.Context, s *Session, args map[string]any) (result, error) {
	req := models.HotelSearchRequest{
		DestinationCode: strings.ToUpper(argString(args, "destination_code")),
		CheckIn:         argString(args, "check_in"),
		CheckOut:        argString(args, "check_out"),
		Rooms:           normalize.Rooms(args["rooms"]),
		Filters: models.HotelFilters{
			MaxHotels:  argInt(args, "limit"),
			MinRate:    argFloat(args, "min_rate"),
			MaxRate:    argFloat(args, "max_rate"),
			Keywords:   argStrings(args, "keywords"),
			Categories: argStrings(args, "categories"),
		},
	}
	if err := checkStay(req.CheckIn, req.CheckOut); err != nil {
		return result{}, err
	}

	hotels, err := a.deps.Hotels.Search(ctx, req)
	if err != nil {
		return result{}, err
	}
	searchID, err := a.deps.Cache.SaveHotelSearch(ctx, s.ID, hotels, req)
	if err != nil {
		return result{}, fmt.Errorf("failed to cache hotel search: %w", err)
	}
	if len(hotels) == 0 {
		return result{}, &models.NoResultsFailure{Stage: "hotel", Criteria: map[string]any{
			"destination_code": req.DestinationCode,
			"check_in":         req.CheckIn,
			"check_out":        req.CheckOut,
			"min_rate":         req.Filters.MinRate,
			"max_rate":         req.Filters.MaxRate,
			"hint":             "Use a Hotelbeds destination code available in the TEST environment (e.g., PMI, BCN, LON).",
		}}
	}

	views := lo.Map(hotels, func(h models.Hotel, i int) hotelView { return newHotelView(i+1, h) })
	return result{
		payload: map[string]any{"search_id": searchID, "hotels": views},
		summary: hotelSummary(req, views),
	}, nil
}

func checkStay(checkIn, checkOut string) error {
	in, inErr := time.Parse(dateLayout, checkIn)
	out, outErr := time.Parse(dateLayout, checkOut)
	var bad []string
	if inErr != nil {
		bad = append(bad, "check_in")
	}
	if outErr != nil || (inErr == nil && !out.After(in)) {
		bad = append(bad, "check_out")
	}
	if len(bad) > 0 {
		return &models.ValidationFailure{
			Message:       "invalid hotel stay",
			MissingFields: bad,
			Hint:          "Dates use YYYY-MM-DD and check-out must be after check-in.",
		}
	}
	return nil
}

// hotelChoice is a rate picked for booking together with the rooms it was
// priced for.
type hotelChoice struct {
	rateKey string
	rooms   []models.Occupancy
}

// resolveRate finds the rate to book: an explicit rate key, an option
// number from the latest hotel search, or the session's trip plan.
func (a *Agent) resolveRate(ctx context.Context, s *Session, args map[string]any) (hotelChoice, error) {
	if key := argString(args, "rate_key"); key != "" {
		choice := hotelChoice{rateKey: key}
		if _, req, err := a.deps.Cache.LoadLatestHotels(ctx, s.ID); err == nil && req != nil {
			choice.rooms = req.Rooms
		}
		return choice, nil
	}

	if index := argInt(args, "index"); index != 0 {
		hotels, req, err := a.deps.Cache.LoadLatestHotels(ctx, s.ID)
		if err != nil {
			return hotelChoice{}, fmt.Errorf("failed to load cached hotels: %w", err)
		}
		if index < 1 || index > len(hotels) {
			return hotelChoice{}, &models.SelectionOutOfRange{Index: index, Count: len(hotels)}
		}
		rate, ok := hotels[index-1].CheapestRate()
		if !ok {
			return hotelChoice{}, &models.ValidationFailure{
				Message: fmt.Sprintf("%s has no bookable rate; choose another option", hotels[index-1].Name),
			}
		}
		choice := hotelChoice{rateKey: rate.RateKey}
		if req != nil {
			choice.rooms = req.Rooms
		}
		return choice, nil
	}

	if s.tripPlan != nil && s.tripPlan.RateKey != "" {
		return hotelChoice{rateKey: s.tripPlan.RateKey, rooms: s.tripPlan.Rooms}, nil
	}
	return hotelChoice{}, &models.ValidationFailure{
		Message:       "No hotel rate selected",
		MissingFields: []string{"rate_key"},
		Hint:          "Search hotels and choose an option number, or pass a rate_key.",
	}
}

// resolveHolder takes the holder from the arguments, falling back to the
// registered account's name. It never borrows a flight passenger's name.
func (a *Agent) resolveHolder(ctx context.Context, s *Session, args map[string]any) (models.HotelHolder, error) {
	if h := argMap(args, "holder"); h != nil {
		holder := models.HotelHolder{
			Name:    lo.CoalesceOrEmpty(str(h["name"]), str(h["given_name"])),
			Surname: lo.CoalesceOrEmpty(str(h["surname"]), str(h["family_name"])),
		}
		if holder.Name != "" && holder.Surname != "" {
			return holder, nil
		}
	}

	if email := a.email(s, args); email != "" && a.deps.Users != nil {
		user, err := a.deps.Users.GetUserByEmail(ctx, email)
		if err == nil && user != nil {
			if first, last, ok := strings.Cut(strings.TrimSpace(user.Name), " "); ok {
				return models.HotelHolder{Name: first, Surname: strings.TrimSpace(last)}, nil
			}
		}
	}

	return models.HotelHolder{}, &models.ValidationFailure{
		Message:       "The hotel booking needs a lead guest",
		MissingFields: []string{"holder.name", "holder.surname"},
		Hint:          "Give the first name and surname of the guest the rooms are booked under.",
	}
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func (a *Agent) bookHotel(ctx context.Context, s *Session, args map[string]any) (result, error) {
	choice, err := a.resolveRate(ctx, s, args)
	if err != nil {
		return result{}, err
	}
	holder, err := a.resolveHolder(ctx, s, args)
	if err != nil {
		return result{}, err
	}
	booking, err := a.placeHotel(ctx, s, args, choice, holder)
	if err != nil {
		return result{}, err
	}
	return result{payload: booking, confirmation: hotelConfirmation(booking)}, nil
}

func (a *Agent) placeHotel(ctx context.Context, s *Session, args map[string]any, choice hotelChoice, holder models.HotelHolder) (models.HotelBooking, error) {
	rooms := choice.rooms
	if raw, ok := args["rooms"]; ok && raw != nil {
		rooms = normalize.Rooms(raw)
	}
	if len(rooms) == 0 {
		rooms = normalize.Rooms(nil)
	}
	clientRef := argString(args, "client_reference")
	if clientRef == "" {
		clientRef = "NOMADA-" + strings.ToUpper(uuid.NewString()[:8])
	}

	booking, err := a.deps.Hotels.Book(ctx, models.HotelBookingRequest{
		Holder:          holder,
		Rooms:           normalize.BookingRooms(choice.rateKey, rooms, holder),
		ClientReference: clientRef,
		Remark:          argString(args, "remark"),
	})
	if err != nil {
		return models.HotelBooking{}, err
	}
	if booking.HolderName == "" {
		booking.HolderName = holder.Name + " " + holder.Surname
	}

	email := a.email(s, args)
	title := hotelTitle(booking)
	a.recordBooking(ctx, email, models.BookingTypeHotel, booking.Reference, title, booking)
	a.notify(ctx, models.BookingConfirmation{
		Type:        models.BookingTypeHotel,
		UserEmail:   email,
		Reference:   booking.Reference,
		Title:       title,
		TotalAmount: booking.TotalNet,
		Currency:    booking.Currency,
		HotelName:   booking.HotelName,
		CheckIn:     booking.CheckIn,
		CheckOut:    booking.CheckOut,
		CreatedAt:   time.Now().UTC(),
	})
	return booking, nil
}

func (a *Agent) getHotelBooking(ctx context.Context, args map[string]any) (result, error) {
	booking, err := a.deps.Hotels.GetBooking(ctx, argString(args, "reference"))
	if err != nil {
		return result{}, err
	}
	return result{payload: booking}, nil
}

func (a *Agent) cancelHotelBooking(ctx context.Context, s *Session, args map[string]any) (result, error) {
	reference := argString(args, "reference")
	cancellation, err := a.deps.Hotels.CancelBooking(ctx, reference)
	if err != nil {
		return result{}, err
	}
	if strings.EqualFold(cancellation.Status, "CANCELLED") {
		a.markCancelled(ctx, a.email(s, args), models.BookingTypeHotel, reference)
	}
	return result{payload: cancellation}, nil
}

func (a *Agent) planTrip(ctx context.Context, s *Session, args map[string]any) (result, error) {
	constraints, err := planner.ParseConstraints(args)
	if err != nil {
		return result{}, err
	}
	plan, tripCtx, err := a.planner.Plan(ctx, constraints)
	if err != nil {
		return result{}, err
	}
	s.tripPlan = &tripCtx
	return result{payload: plan}, nil
}

// tripBooking reports both halves of a trip booking. The flight is booked
// first; a hotel failure after that leaves the flight in place.
type tripBooking struct {
	Flight     models.OrderDetail   `json:"flight"`
	Hotel      *models.HotelBooking `json:"hotel,omitempty"`
	HotelError string               `json:"hotel_error,omitempty"`
}

func (a *Agent) bookTrip(ctx context.Context, s *Session, args map[string]any) (result, error) {
	plan := s.tripPlan
	if plan == nil {
		return result{}, &models.ValidationFailure{
			Message:       "There is no trip plan in this conversation yet",
			MissingFields: []string{"trip_plan"},
			Hint:          "Plan a trip first, then book it.",
		}
	}
	if plan.RateKey == "" {
		return result{}, &models.ValidationFailure{Message: "The planned hotel has no bookable rate; plan the trip again"}
	}
	holder, err := a.resolveHolder(ctx, s, args)
	if err != nil {
		return result{}, err
	}

	order, passengers, err := a.placeOrder(ctx, s, plan.OfferID, args)
	if err != nil {
		return result{}, err
	}

	out := tripBooking{Flight: order}
	hotel, err := a.placeHotel(ctx, s, args, hotelChoice{rateKey: plan.RateKey, rooms: plan.Rooms}, holder)
	if err != nil {
		out.HotelError = hotelFailureText(err)
		text := orderConfirmation(order, passengers) +
			"\n\nThe hotel could not be booked: " + out.HotelError +
			"\nYour flight stays booked. You can retry the hotel with book_hotel."
		return result{payload: out, confirmation: text, partial: true}, nil
	}
	out.Hotel = &hotel
	return result{payload: out, confirmation: orderConfirmation(order, passengers) + "\n\n" + hotelConfirmation(hotel)}, nil
}

func hotelFailureText(err error) string {
	var pf *models.ProviderFailure
	if errors.As(err, &pf) {
		return pf.Message
	}
	return err.Error()
}

func (a *Agent) listBookings(ctx context.Context, s *Session, args map[string]any) (result, error) {
	email := a.email(s, args)
	if email == "" {
		return result{}, &models.ValidationFailure{
			Message:       "I need your account email to look up bookings",
			MissingFields: []string{"email"},
		}
	}
	records, err := a.deps.Bookings.ListBookings(ctx, email)
	if err != nil {
		return result{}, err
	}
	return result{payload: map[string]any{"email": email, "bookings": records}}, nil
}
