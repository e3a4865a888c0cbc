package catalog

// Tool names.
const (
	SearchFlights      = "search_flights"
	SelectOffer        = "select_offer"
	GetOffer           = "get_offer"
	CreateOrder        = "create_order"
	CreatePayment      = "create_payment"
	GetOrder           = "get_order"
	CancelOrder        = "cancel_order"
	RequestOrderChange = "request_order_change"
	ConfirmOrderChange = "confirm_order_change"
	SearchHotels       = "search_hotels"
	BookHotel          = "book_hotel"
	GetHotelBooking    = "get_hotel_booking"
	CancelHotelBooking = "cancel_hotel_booking"
	PlanTrip           = "plan_trip"
	BookTrip           = "book_trip"
	ListBookings       = "list_bookings"
)

// Default returns the catalog of every operation the assistant supports.
func Default() *Catalog {
	return New(
		Tool{
			Name:        SearchFlights,
			Description: "Search for flight offers between two airports on a date. Results are numbered so the user can pick one.",
			Output:      OutputJSON,
			Fields: []Field{
				{Name: "origin", Type: TypeString, Required: true, Description: "IATA code of the origin airport, e.g. JFK"},
				{Name: "destination", Type: TypeString, Required: true, Description: "IATA code of the destination airport, e.g. LHR"},
				{Name: "departure_date", Type: TypeString, Required: true, Description: "YYYY-MM-DD"},
				{Name: "return_date", Type: TypeString, Description: "YYYY-MM-DD for a round trip"},
				{Name: "passengers", Type: TypeAny, Default: 1, Description: "number of adults or a list of {type|age}"},
				{Name: "cabin_class", Type: TypeString, Default: "economy", Description: "economy, premium_economy, business or first"},
				{Name: "max_offers", Type: TypeInteger, Default: 5, Description: "1 to 20"},
			},
		},
		Tool{
			Name:        SelectOffer,
			Description: "Pick an offer from the latest flight search by its number and get the passenger template to fill in.",
			Output:      OutputJSON,
			Fields: []Field{
				{Name: "index", Type: TypeInteger, Required: true, Description: "1-based option number"},
			},
		},
		Tool{
			Name:        GetOffer,
			Description: "Fetch the latest price and details of a flight offer.",
			Fields: []Field{
				{Name: "offer_id", Type: TypeString, Required: true},
			},
		},
		Tool{
			Name:        CreateOrder,
			Description: "Book a flight offer for fully described passengers.",
			Output:      OutputConfirmation,
			Fields: []Field{
				{Name: "offer_id", Type: TypeString, Required: true},
				{Name: "passengers", Type: TypeArray, Required: true, Description: "list of {id,title,gender,given_name,family_name,born_on,email,phone_number}"},
				{Name: "payment_type", Type: TypeString, Default: "balance", Description: "balance or card"},
				{Name: "payment_source", Type: TypeObject, Description: "{card_id} or card details"},
				{Name: "mode", Type: TypeString, Default: "instant", Description: "instant or hold"},
				{Name: "create_hold", Type: TypeBoolean, Default: false},
				{Name: "email", Type: TypeString, Description: "account email the booking belongs to"},
			},
		},
		Tool{
			Name:        CreatePayment,
			Description: "Pay for a hold order.",
			Fields: []Field{
				{Name: "order_id", Type: TypeString, Required: true},
				{Name: "amount", Type: TypeNumber},
				{Name: "currency", Type: TypeString},
				{Name: "payment_type", Type: TypeString, Default: "balance"},
				{Name: "payment_source", Type: TypeObject},
			},
		},
		Tool{
			Name:        GetOrder,
			Description: "Retrieve a flight order by id.",
			Fields: []Field{
				{Name: "order_id", Type: TypeString, Required: true, Description: "e.g. ord_00009hthhsUZ8W4LxQgkjo"},
			},
		},
		Tool{
			Name:        CancelOrder,
			Description: "Cancel a flight order. The cancellation is confirmed automatically unless auto_confirm is false.",
			Fields: []Field{
				{Name: "order_id", Type: TypeString, Required: true},
				{Name: "auto_confirm", Type: TypeBoolean, Default: true},
			},
		},
		Tool{
			Name:        RequestOrderChange,
			Description: "Request change offers for an existing order, optionally with new slices.",
			Output:      OutputJSON,
			Fields: []Field{
				{Name: "order_id", Type: TypeString, Required: true},
				{Name: "slices", Type: TypeArray, Description: "list of {origin,destination,departure_date}"},
				{Name: "max_offers", Type: TypeInteger, Default: 5, Description: "1 to 10"},
			},
		},
		Tool{
			Name:        ConfirmOrderChange,
			Description: "Confirm a change offer. Price is taken from the change offer when omitted.",
			Fields: []Field{
				{Name: "change_offer_id", Type: TypeString, Required: true},
				{Name: "payment_type", Type: TypeString, Default: "balance"},
				{Name: "amount", Type: TypeNumber},
				{Name: "currency", Type: TypeString},
				{Name: "payment_source", Type: TypeObject},
			},
		},
		Tool{
			Name:        SearchHotels,
			Description: "Search hotel availability in a destination for a date range.",
			Output:      OutputJSON,
			Fields: []Field{
				{Name: "destination_code", Type: TypeString, Required: true, Description: "hotel destination code, e.g. PMI, BCN, LON"},
				{Name: "check_in", Type: TypeString, Required: true, Description: "YYYY-MM-DD"},
				{Name: "check_out", Type: TypeString, Required: true, Description: "YYYY-MM-DD"},
				{Name: "rooms", Type: TypeAny, Description: "list of rooms: a number of adults, or {adults,children,paxes}"},
				{Name: "limit", Type: TypeInteger, Default: 5, Description: "1 to 50"},
				{Name: "min_rate", Type: TypeNumber},
				{Name: "max_rate", Type: TypeNumber},
				{Name: "keywords", Type: TypeArray},
				{Name: "categories", Type: TypeArray},
			},
		},
		Tool{
			Name:        BookHotel,
			Description: "Book a hotel from the latest hotel search (by index) or by rate key.",
			Output:      OutputConfirmation,
			Fields: []Field{
				{Name: "index", Type: TypeInteger, Description: "1-based hotel number from the latest search"},
				{Name: "rate_key", Type: TypeString},
				{Name: "holder", Type: TypeObject, Description: "{name, surname} of the lead guest"},
				{Name: "rooms", Type: TypeAny},
				{Name: "client_reference", Type: TypeString},
				{Name: "remark", Type: TypeString},
				{Name: "email", Type: TypeString},
			},
		},
		Tool{
			Name:        GetHotelBooking,
			Description: "Retrieve a hotel booking by reference.",
			Fields: []Field{
				{Name: "reference", Type: TypeString, Required: true},
			},
		},
		Tool{
			Name:        CancelHotelBooking,
			Description: "Cancel a hotel booking by reference.",
			Fields: []Field{
				{Name: "reference", Type: TypeString, Required: true},
			},
		},
		Tool{
			Name:        PlanTrip,
			Description: "Plan a trip: cheapest flight, cheapest hotel from the arrival date, activity ideas and a cost estimate.",
			Fields: []Field{
				{Name: "origin", Type: TypeString},
				{Name: "destination", Type: TypeString},
				{Name: "departure_date", Type: TypeString},
				{Name: "return_date", Type: TypeString},
				{Name: "budget", Type: TypeAny},
				{Name: "passengers", Type: TypeInteger, Default: 1},
				{Name: "cabin_class", Type: TypeString, Default: "economy"},
				{Name: "hotel_destination_code", Type: TypeString, Description: "defaults to the destination"},
				{Name: "rooms", Type: TypeAny},
				{Name: "hotel_min_rate", Type: TypeNumber},
				{Name: "hotel_max_rate", Type: TypeNumber},
				{Name: "hotel_keywords", Type: TypeArray},
				{Name: "hotel_categories", Type: TypeArray},
				{Name: "interests", Type: TypeArray},
			},
		},
		Tool{
			Name:        BookTrip,
			Description: "Book the flight and hotel of the latest trip plan.",
			Output:      OutputConfirmation,
			Fields: []Field{
				{Name: "passengers", Type: TypeArray, Required: true},
				{Name: "holder", Type: TypeObject, Description: "{name, surname} of the hotel lead guest"},
				{Name: "payment_type", Type: TypeString, Default: "balance"},
				{Name: "payment_source", Type: TypeObject},
				{Name: "email", Type: TypeString},
			},
		},
		Tool{
			Name:        ListBookings,
			Description: "List the user's saved bookings.",
			Fields: []Field{
				{Name: "email", Type: TypeString},
			},
		},
	)
}
