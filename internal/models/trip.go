package models

// TripConstraints are the loose inputs of trip planning.
type TripConstraints struct {
	Origin        string      `json:"origin"`
	Destination   string      `json:"destination"`
	DepartureDate string      `json:"departure_date"`
	ReturnDate    string      `json:"return_date,omitempty"`
	Budget        *float64    `json:"budget,omitempty"`
	Passengers    int         `json:"passengers,omitempty"`
	CabinClass    CabinClass  `json:"cabin_class,omitempty"`
	HotelCode     string      `json:"hotel_destination_code,omitempty"`
	Rooms         []Occupancy `json:"rooms,omitempty"`
	HotelMinRate  float64     `json:"hotel_min_rate,omitempty"`
	HotelMaxRate  float64     `json:"hotel_max_rate,omitempty"`
	HotelKeywords []string    `json:"hotel_keywords,omitempty"`
	HotelCategory []string    `json:"hotel_categories,omitempty"`
	Interests     []string    `json:"interests,omitempty"`
}

// Activity is a suggestion from the static rule table.
type Activity struct {
	Interest    string `json:"interest"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CostEstimate is the flight total plus the hotel stay rate. HotelCurrency
// is set only when it differs from the flight currency.
type CostEstimate struct {
	Total         float64 `json:"total_estimated"`
	Currency      string  `json:"currency"`
	FlightTotal   float64 `json:"flight_total"`
	HotelTotal    float64 `json:"hotel_total"`
	HotelCurrency string  `json:"hotel_currency,omitempty"`
	WithinBudget  bool    `json:"within_budget"`
}

// TripPlan is the result of one planning call.
type TripPlan struct {
	Origin        string       `json:"origin"`
	Destination   string       `json:"destination"`
	DepartureDate string       `json:"departure_date"`
	ReturnDate    string       `json:"return_date,omitempty"`
	CheckIn       string       `json:"check_in"`
	CheckOut      string       `json:"check_out"`
	Nights        int          `json:"nights"`
	Budget        float64      `json:"budget"`
	BestFlight    FlightOffer  `json:"best_flight"`
	BestHotel     Hotel        `json:"best_hotel"`
	Activities    []Activity   `json:"activities"`
	CostEstimate  CostEstimate `json:"cost_estimate"`
}

// TripPlanContext is what a session remembers of its latest plan so a later
// booking step can refer to the chosen flight and hotel.
type TripPlanContext struct {
	OfferID      string      `json:"offer_id"`
	PassengerIDs []string    `json:"passenger_ids"`
	HotelCode    int         `json:"hotel_code"`
	HotelName    string      `json:"hotel_name"`
	RateKey      string      `json:"rate_key,omitempty"`
	CheckIn      string      `json:"check_in"`
	CheckOut     string      `json:"check_out"`
	Rooms        []Occupancy `json:"rooms,omitempty"`
}
