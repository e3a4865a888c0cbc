// Package notify delivers booking confirmation emails, directly over SMTP
// or through a Temporal workflow.
package notify

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/Nour-MZ/Nomada/internal/models"
)

const timeLayout = "2006-01-02 15:04 MST"

// Subject is the email subject for a confirmation.
func Subject(c models.BookingConfirmation) string {
	ref := lo.CoalesceOrEmpty(c.Reference, c.OrderID)
	if c.Type == models.BookingTypeHotel {
		return "Your Nomada hotel booking " + ref
	}
	return "Your Nomada flight booking " + ref
}

// Body renders the plain-text email body.
func Body(c models.BookingConfirmation) string {
	var b strings.Builder
	b.WriteString("Thank you for booking with Nomada.\n\n")
	b.WriteString("Booking Summary\n")
	fmt.Fprintf(&b, " - Booking reference: %s\n", lo.CoalesceOrEmpty(c.Reference, c.OrderID))
	if c.OrderID != "" {
		fmt.Fprintf(&b, " - Order ID: %s\n", c.OrderID)
	}
	fmt.Fprintf(&b, " - Booking: %s\n", c.Title)
	fmt.Fprintf(&b, " - Total: %.2f %s\n", c.TotalAmount, c.Currency)

	if c.Type == models.BookingTypeHotel {
		fmt.Fprintf(&b, "\nHotel: %s\n", lo.CoalesceOrEmpty(c.HotelName, "N/A"))
		fmt.Fprintf(&b, "Check-in:  %s\n", orNA(c.CheckIn))
		fmt.Fprintf(&b, "Check-out: %s\n", orNA(c.CheckOut))
		return b.String()
	}

	if len(c.Passengers) > 0 {
		b.WriteString("\nPassenger(s):\n")
		for _, p := range c.Passengers {
			fmt.Fprintf(&b, " - %s %s (%s) DOB: %s Email: %s Phone: %s\n",
				titleCase(p.Title), p.FullName(), p.Gender, p.BornOn, p.Email, p.PhoneNumber)
		}
	}

	if len(c.Itinerary) > 0 {
		b.WriteString("\nItinerary:\n")
		for i, leg := range c.Itinerary {
			fmt.Fprintf(&b, "Leg %d: %s to %s\n", i+1, leg.Origin, leg.Destination)
			if len(leg.Segments) == 0 {
				continue
			}
			first, last := leg.Segments[0], leg.Segments[len(leg.Segments)-1]
			fmt.Fprintf(&b, "  Departure: %s\n", formatTime(first.DepartingAt.IsZero(), first.DepartingAt.Format(timeLayout)))
			fmt.Fprintf(&b, "  Arrival:   %s\n", formatTime(last.ArrivingAt.IsZero(), last.ArrivingAt.Format(timeLayout)))
			fmt.Fprintf(&b, "  Flight:    %s%s\n", first.MarketingCode, first.FlightNumber)
			if leg.Duration != "" {
				fmt.Fprintf(&b, "  Duration:  %s\n", leg.Duration)
			}
		}
	}
	return b.String()
}

func orNA(s string) string {
	return lo.CoalesceOrEmpty(s, "N/A")
}

func formatTime(zero bool, s string) string {
	if zero {
		return "N/A"
	}
	return s
}

func titleCase(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
