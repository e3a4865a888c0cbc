package models

import "encoding/json"

type PaxType string

const (
	PaxAdult PaxType = "AD"
	PaxChild PaxType = "CH"
)

const (
	DefaultAdultAge = 30
	DefaultChildAge = 8
)

// Pax is one occupant of a hotel room.
type Pax struct {
	RoomID  int     `json:"roomId"`
	Type    PaxType `json:"type"`
	Age     int     `json:"age"`
	Name    string  `json:"name,omitempty"`
	Surname string  `json:"surname,omitempty"`
}

// Occupancy is one requested room with its occupants.
type Occupancy struct {
	Rooms    int   `json:"rooms"`
	Adults   int   `json:"adults"`
	Children int   `json:"children"`
	Paxes    []Pax `json:"paxes"`
}

// HotelFilters narrows an availability search.
type HotelFilters struct {
	MaxHotels  int      `json:"max_hotels,omitempty"`
	MinRate    float64  `json:"min_rate,omitempty"`
	MaxRate    float64  `json:"max_rate,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
}

// HotelSearchRequest is the normalized input of HotelProvider.Search.
type HotelSearchRequest struct {
	DestinationCode string       `json:"destination_code"`
	CheckIn         string       `json:"check_in"`
	CheckOut        string       `json:"check_out"`
	Rooms           []Occupancy  `json:"rooms"`
	Filters         HotelFilters `json:"filters"`
}

// HotelRate is a bookable price quote. RateKey is opaque.
type HotelRate struct {
	RateKey   string  `json:"rate_key"`
	RateType  string  `json:"rate_type,omitempty"`
	Net       float64 `json:"net"`
	BoardName string  `json:"board_name,omitempty"`
	Adults    int     `json:"adults,omitempty"`
	Children  int     `json:"children,omitempty"`
}

// HotelRoom groups the rates offered for one room type.
type HotelRoom struct {
	Code  string      `json:"code"`
	Name  string      `json:"name"`
	Rates []HotelRate `json:"rates"`
}

// Hotel is one availability result. MinRate covers the whole stay.
type Hotel struct {
	Code        int             `json:"code"`
	Name        string          `json:"name"`
	Category    string          `json:"category,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Zone        string          `json:"zone,omitempty"`
	Currency    string          `json:"currency"`
	MinRate     float64         `json:"min_rate"`
	MaxRate     float64         `json:"max_rate"`
	Rooms       []HotelRoom     `json:"rooms,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

// Rate returns the price used when comparing hotels.
func (h Hotel) Rate() float64 {
	if h.MinRate > 0 {
		return h.MinRate
	}
	return h.MaxRate
}

// CheapestRate returns the lowest-priced rate over all rooms.
func (h Hotel) CheapestRate() (HotelRate, bool) {
	var best HotelRate
	found := false
	for _, room := range h.Rooms {
		for _, rate := range room.Rates {
			if rate.RateKey == "" {
				continue
			}
			if !found || rate.Net < best.Net {
				best = rate
				found = true
			}
		}
	}
	return best, found
}

// HotelHolder is the lead guest a hotel booking is made under.
type HotelHolder struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

// BookRoom is one room of a booking request.
type BookRoom struct {
	RateKey string `json:"rateKey"`
	Paxes   []Pax  `json:"paxes"`
}

// HotelBookingRequest is the provider-ready booking input.
type HotelBookingRequest struct {
	Holder          HotelHolder `json:"holder"`
	Rooms           []BookRoom  `json:"rooms"`
	ClientReference string      `json:"clientReference"`
	Remark          string      `json:"remark,omitempty"`
}

// HotelBooking is the normalized view of a hotel booking.
type HotelBooking struct {
	Reference       string  `json:"booking_reference"`
	ClientReference string  `json:"client_reference,omitempty"`
	Status          string  `json:"status"`
	CreationDate    string  `json:"creation_date,omitempty"`
	TotalNet        float64 `json:"total_net"`
	Currency        string  `json:"currency"`
	HolderName      string  `json:"holder_name,omitempty"`
	HotelName       string  `json:"hotel_name,omitempty"`
	CheckIn         string  `json:"check_in,omitempty"`
	CheckOut        string  `json:"check_out,omitempty"`
}

// HotelCancellation is the result of cancelling a hotel booking.
type HotelCancellation struct {
	Reference             string `json:"booking_reference"`
	Status                string `json:"status"`
	CancellationReference string `json:"cancellation_reference,omitempty"`
}
