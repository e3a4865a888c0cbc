package agent

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/Nour-MZ/Nomada/internal/models"
)

const timeLayout = "2006-01-02 15:04"

type legView struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DepartingAt string `json:"departing_at,omitempty"`
	ArrivingAt  string `json:"arriving_at,omitempty"`
	Stops       int    `json:"stops"`
	Carriers    string `json:"carriers,omitempty"`
}

type offerView struct {
	Index        int       `json:"index,omitempty"`
	OfferID      string    `json:"offer_id"`
	TotalAmount  float64   `json:"total_amount"`
	Currency     string    `json:"currency"`
	Owner        string    `json:"owner,omitempty"`
	ExpiresAt    string    `json:"expires_at,omitempty"`
	Passengers   int       `json:"passengers"`
	PassengerIDs []string  `json:"passenger_ids,omitempty"`
	Legs         []legView `json:"legs"`
}

func newLegs(slices []models.Slice) []legView {
	return lo.Map(slices, func(sl models.Slice, _ int) legView {
		leg := legView{Origin: sl.Origin, Destination: sl.Destination, Stops: max(0, len(sl.Segments)-1)}
		if n := len(sl.Segments); n > 0 {
			leg.DepartingAt = formatTime(sl.Segments[0].DepartingAt.Format(timeLayout), sl.Segments[0].DepartingAt.IsZero())
			leg.ArrivingAt = formatTime(sl.Segments[n-1].ArrivingAt.Format(timeLayout), sl.Segments[n-1].ArrivingAt.IsZero())
			leg.Carriers = strings.Join(lo.Uniq(lo.FilterMap(sl.Segments, func(seg models.Segment, _ int) (string, bool) {
				code := strings.TrimSpace(seg.MarketingCode + seg.FlightNumber)
				return code, code != ""
			})), ", ")
		}
		return leg
	})
}

func formatTime(s string, zero bool) string {
	if zero {
		return ""
	}
	return s
}

func newOfferView(index int, o models.FlightOffer) offerView {
	return offerView{
		Index:        index,
		OfferID:      o.ID,
		TotalAmount:  o.TotalAmount,
		Currency:     o.TotalCurrency,
		Owner:        o.Owner,
		ExpiresAt:    o.ExpiresAt,
		Passengers:   len(o.PassengerIDs),
		PassengerIDs: o.PassengerIDs,
		Legs:         newLegs(o.Slices),
	}
}

// offerSummary is the index-keyed digest kept in the conversation so the
// oracle can map "option 2" back to a position.
func offerSummary(meta models.SearchMeta, views []offerView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flight options %s to %s on %s", meta.Origin, meta.Destination, meta.DepartureDate)
	if meta.ReturnDate != "" {
		fmt.Fprintf(&b, " returning %s", meta.ReturnDate)
	}
	b.WriteString(":\n")
	for _, v := range views {
		fmt.Fprintf(&b, "%d. %s %.2f %s", v.Index, lo.CoalesceOrEmpty(v.Owner, "offer"), v.TotalAmount, v.Currency)
		if len(v.Legs) > 0 && v.Legs[0].DepartingAt != "" {
			fmt.Fprintf(&b, ", departs %s, %d stop(s)", v.Legs[0].DepartingAt, v.Legs[0].Stops)
		}
		fmt.Fprintf(&b, " (offer_id %s)\n", v.OfferID)
	}
	b.WriteString("To book, choose an option number.")
	return b.String()
}

type changeView struct {
	Index          int       `json:"index"`
	ChangeOfferID  string    `json:"change_offer_id"`
	ChangeAmount   float64   `json:"change_total_amount"`
	Currency       string    `json:"change_total_currency"`
	NewTotalAmount float64   `json:"new_total_amount"`
	PenaltyAmount  float64   `json:"penalty_total_amount"`
	ExpiresAt      string    `json:"expires_at,omitempty"`
	Legs           []legView `json:"legs,omitempty"`
}

func newChangeView(index int, o models.ChangeOffer) changeView {
	return changeView{
		Index:          index,
		ChangeOfferID:  o.ID,
		ChangeAmount:   o.ChangeTotalAmount,
		Currency:       o.ChangeTotalCurrency,
		NewTotalAmount: o.NewTotalAmount,
		PenaltyAmount:  o.PenaltyAmount,
		ExpiresAt:      o.ExpiresAt,
		Legs:           newLegs(o.Slices),
	}
}

func changeSummary(views []changeView) string {
	if len(views) == 0 {
		return "No change offers are available for this order."
	}
	var b strings.Builder
	b.WriteString("Change options:\n")
	for _, v := range views {
		fmt.Fprintf(&b, "%d. change cost %.2f %s, penalty %.2f (change_offer_id %s)\n",
			v.Index, v.ChangeAmount, v.Currency, v.PenaltyAmount, v.ChangeOfferID)
	}
	return strings.TrimRight(b.String(), "\n")
}

type hotelView struct {
	Index       int     `json:"index"`
	Code        int     `json:"code"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Zone        string  `json:"zone,omitempty"`
	Rate        float64 `json:"rate"`
	Currency    string  `json:"currency"`
	RateKey     string  `json:"rate_key,omitempty"`
	BoardName   string  `json:"board_name,omitempty"`
	Destination string  `json:"destination,omitempty"`
}

func newHotelView(index int, h models.Hotel) hotelView {
	v := hotelView{
		Index:       index,
		Code:        h.Code,
		Name:        h.Name,
		Category:    h.Category,
		Zone:        h.Zone,
		Rate:        h.Rate(),
		Currency:    h.Currency,
		Destination: h.Destination,
	}
	if rate, ok := h.CheapestRate(); ok {
		v.RateKey = rate.RateKey
		v.BoardName = rate.BoardName
	}
	return v
}

func hotelSummary(req models.HotelSearchRequest, views []hotelView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hotel options in %s from %s to %s:\n", req.DestinationCode, req.CheckIn, req.CheckOut)
	for _, v := range views {
		fmt.Fprintf(&b, "%d. %s", v.Index, v.Name)
		if v.Category != "" {
			fmt.Fprintf(&b, " (%s)", v.Category)
		}
		fmt.Fprintf(&b, " from %.2f %s\n", v.Rate, v.Currency)
	}
	b.WriteString("To book, choose an option number and give the lead guest's name.")
	return b.String()
}

func flightTitle(o models.OrderDetail) string {
	route := strings.Join(lo.Map(o.Itinerary, func(s models.Slice, _ int) string {
		return s.Origin + "-" + s.Destination
	}), ", ")
	if route == "" {
		route = o.OrderID
	}
	return "Flight " + route
}

func hotelTitle(b models.HotelBooking) string {
	title := "Hotel " + lo.CoalesceOrEmpty(b.HotelName, b.Reference)
	if b.CheckIn != "" && b.CheckOut != "" {
		title += fmt.Sprintf(" %s to %s", b.CheckIn, b.CheckOut)
	}
	return title
}

func passengerNames(passengers []models.PassengerSpec) string {
	names := lo.FilterMap(passengers, func(p models.PassengerSpec, _ int) (string, bool) {
		n := p.FullName()
		return n, n != ""
	})
	return strings.Join(names, ", ")
}

// orderConfirmation is the fixed reply for a created order.
func orderConfirmation(o models.OrderDetail, passengers []models.PassengerSpec) string {
	if len(o.Passengers) > 0 {
		passengers = o.Passengers
	}
	var b strings.Builder
	if o.OrderType == models.OrderTypeHold {
		b.WriteString("Your flight is on hold.\n")
	} else {
		b.WriteString("Your flight is booked.\n")
	}
	fmt.Fprintf(&b, "Booking reference: %s\n", lo.CoalesceOrEmpty(o.BookingReference, "pending"))
	fmt.Fprintf(&b, "Order ID: %s\n", o.OrderID)
	fmt.Fprintf(&b, "Total: %.2f %s\n", o.TotalAmount, o.TotalCurrency)
	fmt.Fprintf(&b, "Passengers: %s", passengerNames(passengers))
	if o.OrderType == models.OrderTypeHold {
		if o.PaymentRequiredBy != "" {
			fmt.Fprintf(&b, "\nPay by %s with create_payment to keep the booking.", o.PaymentRequiredBy)
		} else {
			b.WriteString("\nPay with create_payment to keep the booking.")
		}
	}
	return b.String()
}

// hotelConfirmation is the fixed reply for a hotel booking.
func hotelConfirmation(h models.HotelBooking) string {
	var b strings.Builder
	b.WriteString("Your hotel is booked.\n")
	fmt.Fprintf(&b, "Booking reference: %s\n", h.Reference)
	if h.HotelName != "" {
		fmt.Fprintf(&b, "Hotel: %s\n", h.HotelName)
	}
	if h.CheckIn != "" {
		fmt.Fprintf(&b, "Stay: %s to %s\n", h.CheckIn, h.CheckOut)
	}
	fmt.Fprintf(&b, "Total: %.2f %s\n", h.TotalNet, h.Currency)
	fmt.Fprintf(&b, "Lead guest: %s", h.HolderName)
	return b.String()
}
