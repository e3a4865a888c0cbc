package duffel

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Nour-MZ/Nomada/internal/models"
)

// Duffel reports local airport times without a zone.
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseOffer(r gjson.Result) models.FlightOffer {
	offer := models.FlightOffer{
		ID:            r.Get("id").String(),
		TotalAmount:   r.Get("total_amount").Float(),
		TotalCurrency: r.Get("total_currency").String(),
		Owner:         r.Get("owner.name").String(),
		ExpiresAt:     r.Get("expires_at").String(),
		Slices:        parseSlices(r.Get("slices")),
		Raw:           json.RawMessage(r.Raw),
	}
	for _, p := range r.Get("passengers").Array() {
		if id := p.Get("id").String(); id != "" {
			offer.PassengerIDs = append(offer.PassengerIDs, id)
		}
	}
	return offer
}

func parseSlices(r gjson.Result) []models.Slice {
	var out []models.Slice
	for _, s := range r.Array() {
		sl := models.Slice{
			Origin:      s.Get("origin.iata_code").String(),
			Destination: s.Get("destination.iata_code").String(),
			Duration:    s.Get("duration").String(),
		}
		for _, seg := range s.Get("segments").Array() {
			sl.Segments = append(sl.Segments, models.Segment{
				Origin:        seg.Get("origin.iata_code").String(),
				Destination:   seg.Get("destination.iata_code").String(),
				DepartingAt:   parseTime(seg.Get("departing_at").String()),
				ArrivingAt:    parseTime(seg.Get("arriving_at").String()),
				MarketingCode: seg.Get("marketing_carrier.iata_code").String(),
				FlightNumber:  seg.Get("marketing_carrier_flight_number").String(),
				Duration:      seg.Get("duration").String(),
			})
		}
		out = append(out, sl)
	}
	return out
}

func parseOrder(r gjson.Result) models.OrderDetail {
	order := models.OrderDetail{
		OrderID:           r.Get("id").String(),
		BookingReference:  r.Get("booking_reference").String(),
		TotalAmount:       r.Get("total_amount").Float(),
		TotalCurrency:     r.Get("total_currency").String(),
		OrderType:         models.OrderType(r.Get("type").String()),
		PaymentRequiredBy: r.Get("payment_status.payment_required_by").String(),
		Itinerary:         parseSlices(r.Get("slices")),
		CancelledAt:       r.Get("cancelled_at").String(),
	}
	order.Paid = r.Get("payment_status.paid_at").String() != "" ||
		len(r.Get("payments").Array()) > 0 ||
		r.Get("payment").IsObject()
	for _, p := range r.Get("passengers").Array() {
		order.Passengers = append(order.Passengers, models.PassengerSpec{
			ID:          p.Get("id").String(),
			Title:       p.Get("title").String(),
			Gender:      p.Get("gender").String(),
			GivenName:   p.Get("given_name").String(),
			FamilyName:  p.Get("family_name").String(),
			BornOn:      p.Get("born_on").String(),
			Email:       p.Get("email").String(),
			PhoneNumber: p.Get("phone_number").String(),
		})
	}
	return order
}

func parseChangeOffer(r gjson.Result) models.ChangeOffer {
	slices := r.Get("slices.add")
	if !slices.Exists() {
		slices = r.Get("slices")
	}
	return models.ChangeOffer{
		ID:                  r.Get("id").String(),
		ChangeTotalAmount:   r.Get("change_total_amount").Float(),
		ChangeTotalCurrency: r.Get("change_total_currency").String(),
		NewTotalAmount:      r.Get("new_total_amount").Float(),
		PenaltyAmount:       r.Get("penalty_total_amount").Float(),
		ExpiresAt:           r.Get("expires_at").String(),
		Slices:              parseSlices(slices),
	}
}
