package models

import "time"

// BookingConfirmation is the payload handed to a NotificationSink after a
// successful order or hotel booking.
type BookingConfirmation struct {
	Type        BookingType     `json:"type"`
	UserEmail   string          `json:"userEmail"`
	Reference   string          `json:"reference"`
	OrderID     string          `json:"orderId,omitempty"`
	Title       string          `json:"title"`
	TotalAmount float64         `json:"totalAmount"`
	Currency    string          `json:"currency"`
	Passengers  []PassengerSpec `json:"passengers,omitempty"`
	Itinerary   []Slice         `json:"itinerary,omitempty"`
	HotelName   string          `json:"hotelName,omitempty"`
	CheckIn     string          `json:"checkIn,omitempty"`
	CheckOut    string          `json:"checkOut,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Recipients returns the account email followed by passenger emails,
// without blanks or duplicates.
func (c BookingConfirmation) Recipients() []string {
	seen := map[string]bool{}
	var out []string
	add := func(addr string) {
		if addr == "" || seen[addr] {
			return
		}
		seen[addr] = true
		out = append(out, addr)
	}
	add(c.UserEmail)
	for _, p := range c.Passengers {
		add(p.Email)
	}
	return out
}

// BookingConfirmationWorkflowInput starts the confirmation workflow.
type BookingConfirmationWorkflowInput struct {
	Confirmation BookingConfirmation `json:"confirmation"`
}

// BookingConfirmationWorkflowResult reports how delivery went.
type BookingConfirmationWorkflowResult struct {
	Delivered     bool     `json:"delivered"`
	Recipients    []string `json:"recipients"`
	FailureReason string   `json:"failureReason,omitempty"`
}

// Workflow and activity names registered on the worker.
const (
	WorkflowBookingConfirmation = "BookingConfirmationWorkflow"
	ActivitySendBookingEmail   = "SendBookingEmail"
)
