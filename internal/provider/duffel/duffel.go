// Package duffel implements the flight provider and card tokenizer on top
// of the Duffel API.
package duffel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/Nour-MZ/Nomada/internal/models"
	"github.com/Nour-MZ/Nomada/internal/normalize"
	"github.com/Nour-MZ/Nomada/internal/provider"
)

const (
	Name           = "duffel"
	DefaultBaseURL = "https://api.duffel.com"
	APIVersion     = "v2"

	maxSearchOffers = 20
	maxChangeOffers = 10
)

// Client is a FlightProvider backed by Duffel.
type Client struct {
	token string
	api   *provider.Client
}

// New creates a Duffel client. Calls fail fast when token is empty.
func New(token, baseURL string, opts ...provider.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	opts = append([]provider.Option{provider.WithRequestDecorator(authorize(token))}, opts...)
	return &Client{
		token: token,
		api:   provider.New(Name, baseURL, opts...),
	}
}

func authorize(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
		r.Header.Set("Duffel-Version", APIVersion)
	}
}

func (c *Client) do(ctx context.Context, call provider.Call) (gjson.Result, error) {
	if c.token == "" {
		return gjson.Result{}, &models.ProviderFailure{Provider: Name, Operation: call.Operation, Message: "Missing Duffel API token"}
	}
	body, err := c.api.Do(ctx, call)
	if err != nil {
		return gjson.Result{}, err
	}
	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return gjson.Result{}, provider.Incomplete(Name, call.Operation, "data", body)
	}
	return data, nil
}

// Search creates an offer request and lists its offers, cheapest first.
func (c *Client) Search(ctx context.Context, req models.FlightSearchRequest) ([]models.FlightOffer, error) {
	if len(req.Slices) == 0 {
		return nil, &models.ValidationFailure{Message: "at least one slice is required", MissingFields: []string{"slices"}}
	}
	passengers := req.Passengers
	if len(passengers) == 0 {
		passengers = []models.SearchPassenger{{Type: "adult"}}
	}
	cabin := req.CabinClass
	if cabin == "" {
		cabin = models.CabinEconomy
	}
	limit := normalize.Clamp(req.MaxOffers, 5, 1, maxSearchOffers)

	created, err := c.do(ctx, provider.Call{
		Operation: "search_flights",
		Method:    http.MethodPost,
		Path:      "/air/offer_requests",
		Query:     url.Values{"return_offers": {"false"}},
		Body: map[string]any{"data": map[string]any{
			"slices":      req.Slices,
			"passengers":  passengers,
			"cabin_class": cabin,
		}},
		Timeout: provider.SearchTimeout,
	})
	if err != nil {
		return nil, err
	}
	requestID := created.Get("id").String()
	if requestID == "" {
		return nil, provider.Incomplete(Name, "search_flights", "offer request id", []byte(created.Raw))
	}

	listed, err := c.do(ctx, provider.Call{
		Operation: "list_offers",
		Method:    http.MethodGet,
		Path:      "/air/offers",
		Query: url.Values{
			"offer_request_id": {requestID},
			"limit":            {strconv.Itoa(limit)},
			"sort":             {"total_amount"},
		},
		Timeout: provider.SearchTimeout,
	})
	if err != nil {
		return nil, err
	}

	var offers []models.FlightOffer
	for _, r := range listed.Array() {
		if len(offers) == limit {
			break
		}
		if o := parseOffer(r); o.ID != "" {
			offers = append(offers, o)
		}
	}
	return offers, nil
}

// GetOffer fetches the current price and itinerary of an offer.
func (c *Client) GetOffer(ctx context.Context, offerID string) (models.FlightOffer, error) {
	data, err := c.do(ctx, provider.Call{
		Operation: "get_offer",
		Method:    http.MethodGet,
		Path:      "/air/offers/" + url.PathEscape(offerID),
		Timeout:   provider.ReadTimeout,
	})
	if err != nil {
		return models.FlightOffer{}, err
	}
	offer := parseOffer(data)
	if offer.ID == "" {
		return models.FlightOffer{}, provider.Incomplete(Name, "get_offer", "offer id", []byte(data.Raw))
	}
	return offer, nil
}

// CreateOrder books an offer. Instant orders are paid at creation with the
// offer's current total; hold orders carry no payment.
func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.OrderDetail, error) {
	orderType := req.OrderType
	if orderType == "" {
		orderType = models.OrderTypeInstant
	}

	body := map[string]any{
		"selected_offers": []string{req.OfferID},
		"passengers":      passengerPayload(req.Passengers),
		"type":            orderType,
	}
	if orderType == models.OrderTypeInstant {
		offer, err := c.GetOffer(ctx, req.OfferID)
		if err != nil {
			return models.OrderDetail{}, err
		}
		body["payments"] = []map[string]any{
			payment(req.PaymentType, req.CardID, offer.TotalAmount, offer.TotalCurrency),
		}
	}

	data, err := c.do(ctx, provider.Call{
		Operation: "create_order",
		Method:    http.MethodPost,
		Path:      "/air/orders",
		Body:      map[string]any{"data": body},
		Timeout:   provider.WriteTimeout,
	})
	if err != nil {
		return models.OrderDetail{}, err
	}
	order := parseOrder(data)
	if order.OrderID == "" {
		return models.OrderDetail{}, provider.Incomplete(Name, "create_order", "order id", []byte(data.Raw))
	}
	return order, nil
}

// GetOrder retrieves an order.
func (c *Client) GetOrder(ctx context.Context, orderID string) (models.OrderDetail, error) {
	data, err := c.do(ctx, provider.Call{
		Operation: "get_order",
		Method:    http.MethodGet,
		Path:      "/air/orders/" + url.PathEscape(orderID),
		Timeout:   provider.ReadTimeout,
	})
	if err != nil {
		return models.OrderDetail{}, err
	}
	order := parseOrder(data)
	if order.OrderID == "" {
		return models.OrderDetail{}, provider.Incomplete(Name, "get_order", "order id", []byte(data.Raw))
	}
	return order, nil
}

// CreatePayment pays a hold order. Missing amount or currency are taken
// from the order; an instant order that is already paid is rejected.
func (c *Client) CreatePayment(ctx context.Context, req models.CreatePaymentRequest) (models.PaymentDetail, error) {
	order, err := c.GetOrder(ctx, req.OrderID)
	if err != nil {
		return models.PaymentDetail{}, err
	}
	if order.OrderType == models.OrderTypeInstant && order.Paid {
		return models.PaymentDetail{}, &models.ValidationFailure{
			Message: "Order is instant and already includes payment; cannot create a separate payment",
			Hint:    "Create the order as a hold (mode=hold or create_hold=true) if you want to pay later.",
		}
	}

	amount, currency := req.Amount, req.Currency
	if amount <= 0 {
		amount = order.TotalAmount
	}
	if currency == "" {
		currency = order.TotalCurrency
	}
	if amount <= 0 || currency == "" {
		return models.PaymentDetail{}, &models.ValidationFailure{
			Message:       "Payment amount or currency is missing and could not be resolved",
			MissingFields: []string{"amount", "currency"},
		}
	}

	data, err := c.do(ctx, provider.Call{
		Operation: "create_payment",
		Method:    http.MethodPost,
		Path:      "/air/payments",
		Body: map[string]any{"data": map[string]any{
			"order_id": req.OrderID,
			"payment":  payment(req.PaymentType, req.CardID, amount, currency),
		}},
		Timeout: provider.WriteTimeout,
	})
	if err != nil {
		return models.PaymentDetail{}, err
	}

	id := data.Get("id").String()
	if id == "" {
		return models.PaymentDetail{}, provider.Incomplete(Name, "create_payment", "payment id", []byte(data.Raw))
	}
	detail := models.PaymentDetail{
		PaymentID: id,
		OrderID:   firstNonEmpty(data.Get("order_id").String(), req.OrderID),
		Amount:    data.Get("amount").Float(),
		Currency:  data.Get("currency").String(),
		Type:      data.Get("type").String(),
		Status:    firstNonEmpty(data.Get("status").String(), "succeeded"),
		CreatedAt: data.Get("created_at").String(),
	}
	if detail.Amount == 0 {
		detail.Amount = amount
	}
	if detail.Currency == "" {
		detail.Currency = currency
	}
	return detail, nil
}

// CancelOrder requests a cancellation and, when autoConfirm is set,
// confirms it. A failed confirmation is reported in ConfirmationError with
// the pending cancellation still returned.
func (c *Client) CancelOrder(ctx context.Context, orderID string, autoConfirm bool) (models.CancellationDetail, error) {
	data, err := c.do(ctx, provider.Call{
		Operation: "cancel_order",
		Method:    http.MethodPost,
		Path:      "/air/order_cancellations",
		Body:      map[string]any{"data": map[string]any{"order_id": orderID}},
		Timeout:   provider.WriteTimeout,
	})
	if err != nil {
		return models.CancellationDetail{}, err
	}
	id := data.Get("id").String()
	if id == "" {
		return models.CancellationDetail{}, provider.Incomplete(Name, "cancel_order", "cancellation id", []byte(data.Raw))
	}

	detail := models.CancellationDetail{
		CancellationID: id,
		OrderID:        orderID,
		RefundAmount:   data.Get("refund_amount").Float(),
		RefundCurrency: data.Get("refund_currency").String(),
		RefundTo:       data.Get("refund_to").String(),
	}
	if !autoConfirm {
		return detail, nil
	}

	confirmed, err := c.do(ctx, provider.Call{
		Operation: "confirm_cancellation",
		Method:    http.MethodPost,
		Path:      "/air/order_cancellations/" + url.PathEscape(id) + "/actions/confirm",
		Body:      map[string]any{"data": map[string]any{}},
		Timeout:   provider.WriteTimeout,
	})
	if err != nil {
		detail.ConfirmationError = err.Error()
		return detail, nil
	}
	detail.Confirmed = true
	detail.ConfirmedAt = confirmed.Get("confirmed_at").String()
	if v := confirmed.Get("refund_amount"); v.Exists() {
		detail.RefundAmount = v.Float()
	}
	if v := confirmed.Get("refund_currency").String(); v != "" {
		detail.RefundCurrency = v
	}
	return detail, nil
}

// RequestChangeOffers creates a change request for an order and lists up
// to maxOffers of its change offers.
func (c *Client) RequestChangeOffers(ctx context.Context, orderID string, slices []models.SearchSlice, maxOffers int) ([]models.ChangeOffer, error) {
	limit := normalize.Clamp(maxOffers, 5, 1, maxChangeOffers)

	body := map[string]any{"order_id": orderID}
	if len(slices) > 0 {
		body["slices"] = slices
	}
	created, err := c.do(ctx, provider.Call{
		Operation: "request_order_change",
		Method:    http.MethodPost,
		Path:      "/air/order_change_requests",
		Body:      map[string]any{"data": body},
		Timeout:   provider.SearchTimeout,
	})
	if err != nil {
		return nil, err
	}
	requestID := created.Get("id").String()
	if requestID == "" {
		return nil, provider.Incomplete(Name, "request_order_change", "change request id", []byte(created.Raw))
	}

	listed, err := c.do(ctx, provider.Call{
		Operation: "list_change_offers",
		Method:    http.MethodGet,
		Path:      "/air/order_change_offers",
		Query: url.Values{
			"order_change_request_id": {requestID},
			"limit":                   {strconv.Itoa(limit)},
		},
		Timeout: provider.SearchTimeout,
	})
	if err != nil {
		return nil, err
	}

	var offers []models.ChangeOffer
	for _, r := range listed.Array() {
		if len(offers) == limit {
			break
		}
		offers = append(offers, parseChangeOffer(r))
	}
	return offers, nil
}

// ConfirmChange applies a change offer, resolving the price from the offer
// when the request leaves it out.
func (c *Client) ConfirmChange(ctx context.Context, req models.ConfirmChangeRequest) (models.ChangeConfirmation, error) {
	amount, currency := req.Amount, req.Currency
	if amount <= 0 || currency == "" {
		offer, err := c.do(ctx, provider.Call{
			Operation: "get_change_offer",
			Method:    http.MethodGet,
			Path:      "/air/order_change_offers/" + url.PathEscape(req.ChangeOfferID),
			Timeout:   provider.ReadTimeout,
		})
		if err != nil {
			return models.ChangeConfirmation{}, err
		}
		if amount <= 0 {
			amount = offer.Get("change_total_amount").Float()
		}
		if currency == "" {
			currency = offer.Get("change_total_currency").String()
		}
	}

	body := map[string]any{"order_change_offer_id": req.ChangeOfferID}
	if currency != "" {
		body["payment"] = payment(req.PaymentType, req.CardID, amount, currency)
	}
	data, err := c.do(ctx, provider.Call{
		Operation: "confirm_order_change",
		Method:    http.MethodPost,
		Path:      "/air/order_changes",
		Body:      map[string]any{"data": body},
		Timeout:   provider.WriteTimeout,
	})
	if err != nil {
		return models.ChangeConfirmation{}, err
	}
	id := data.Get("id").String()
	if id == "" {
		return models.ChangeConfirmation{}, provider.Incomplete(Name, "confirm_order_change", "order change id", []byte(data.Raw))
	}
	return models.ChangeConfirmation{
		ChangeID:    id,
		OrderID:     data.Get("order_id").String(),
		Amount:      amount,
		Currency:    currency,
		ConfirmedAt: data.Get("confirmed_at").String(),
	}, nil
}

func payment(paymentType, cardID string, amount float64, currency string) map[string]any {
	if paymentType == "" {
		paymentType = string(models.PaymentBalance)
	}
	p := map[string]any{
		"type":     paymentType,
		"amount":   formatAmount(amount),
		"currency": currency,
	}
	if cardID != "" {
		p["card_id"] = cardID
	}
	return p
}

func passengerPayload(passengers []models.PassengerSpec) []map[string]string {
	out := make([]map[string]string, 0, len(passengers))
	for _, p := range passengers {
		entry := map[string]string{}
		for _, f := range models.RequiredPassengerFields {
			if v := p.Field(f); v != "" {
				entry[f] = v
			}
		}
		out = append(out, entry)
	}
	return out
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
