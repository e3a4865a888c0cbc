// Package hotelbeds implements the hotel provider on top of the Hotelbeds
// booking API.
package hotelbeds

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/Nour-MZ/Nomada/internal/models"
	"github.com/Nour-MZ/Nomada/internal/normalize"
	"github.com/Nour-MZ/Nomada/internal/provider"
)

const (
	Name           = "hotelbeds"
	DefaultBaseURL = "https://api.test.hotelbeds.com"

	defaultLimit = 5
	maxLimit     = 50
)

// Client is a HotelProvider backed by Hotelbeds.
type Client struct {
	apiKey string
	secret string
	api    *provider.Client
	now    func() time.Time
}

// New creates a Hotelbeds client. Calls fail fast when credentials are
// missing.
func New(apiKey, secret, baseURL string, opts ...provider.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{apiKey: apiKey, secret: secret, now: time.Now}
	opts = append([]provider.Option{
		provider.WithRequestDecorator(c.sign),
		provider.WithErrorPaths("error.message", "error.code", "message"),
	}, opts...)
	c.api = provider.New(Name, baseURL, opts...)
	return c
}

// Signature is the hex SHA-256 of key, secret and the unix time in seconds.
func Signature(apiKey, secret string, at time.Time) string {
	sum := sha256.Sum256([]byte(apiKey + secret + strconv.FormatInt(at.Unix(), 10)))
	return hex.EncodeToString(sum[:])
}

func (c *Client) sign(r *http.Request) {
	r.Header.Set("Api-key", c.apiKey)
	r.Header.Set("X-Signature", Signature(c.apiKey, c.secret, c.now()))
}

func (c *Client) do(ctx context.Context, call provider.Call) ([]byte, error) {
	if c.apiKey == "" || c.secret == "" {
		return nil, &models.ProviderFailure{Provider: Name, Operation: call.Operation, Message: "Missing HOTELBEDS_API_KEY or HOTELBEDS_SECRET"}
	}
	return c.api.Do(ctx, call)
}

// Search returns available hotels for the stay, at most Filters.MaxHotels.
func (c *Client) Search(ctx context.Context, req models.HotelSearchRequest) ([]models.Hotel, error) {
	limit := normalize.Clamp(req.Filters.MaxHotels, defaultLimit, 1, maxLimit)
	rooms := req.Rooms
	if len(rooms) == 0 {
		rooms = normalize.Rooms(nil)
	}

	filter := map[string]any{"maxHotels": limit}
	if req.Filters.MinRate > 0 {
		filter["minRate"] = req.Filters.MinRate
	}
	if req.Filters.MaxRate > 0 {
		filter["maxRate"] = req.Filters.MaxRate
	}
	if len(req.Filters.Categories) > 0 {
		filter["hotelCategory"] = req.Filters.Categories
	}
	body := map[string]any{
		"stay":        map[string]string{"checkIn": req.CheckIn, "checkOut": req.CheckOut},
		"occupancies": rooms,
		"destination": map[string]string{"code": strings.ToUpper(strings.TrimSpace(req.DestinationCode))},
		"filter":      filter,
	}
	if kws := lo.Compact(req.Filters.Keywords); len(kws) > 0 {
		body["keywords"] = map[string]any{
			"keyword": lo.Map(kws, func(k string, _ int) map[string]string { return map[string]string{"code": k} }),
		}
	}

	raw, err := c.do(ctx, provider.Call{
		Operation: "search_hotels",
		Method:    http.MethodPost,
		Path:      "/hotel-api/1.0/hotels",
		Body:      body,
		Timeout:   provider.SearchTimeout,
	})
	if err != nil {
		return nil, err
	}

	var hotels []models.Hotel
	for _, h := range gjson.GetBytes(raw, "hotels.hotels").Array() {
		if len(hotels) == limit {
			break
		}
		hotels = append(hotels, parseHotel(h))
	}
	return hotels, nil
}

// Book confirms the rooms of one or more rate keys for the holder.
func (c *Client) Book(ctx context.Context, req models.HotelBookingRequest) (models.HotelBooking, error) {
	raw, err := c.do(ctx, provider.Call{
		Operation: "book_hotel",
		Method:    http.MethodPost,
		Path:      "/hotel-api/1.0/bookings",
		Body:      req,
		Timeout:   provider.WriteTimeout,
	})
	if err != nil {
		return models.HotelBooking{}, err
	}
	booking := parseBooking(gjson.GetBytes(raw, "booking"))
	if booking.Reference == "" {
		return models.HotelBooking{}, provider.Incomplete(Name, "book_hotel", "booking reference", raw)
	}
	return booking, nil
}

// GetBooking retrieves a booking by reference.
func (c *Client) GetBooking(ctx context.Context, reference string) (models.HotelBooking, error) {
	raw, err := c.do(ctx, provider.Call{
		Operation: "get_hotel_booking",
		Method:    http.MethodGet,
		Path:      "/hotel-api/1.0/bookings/" + url.PathEscape(reference),
		Timeout:   provider.ReadTimeout,
	})
	if err != nil {
		return models.HotelBooking{}, err
	}
	booking := parseBooking(gjson.GetBytes(raw, "booking"))
	if booking.Reference == "" {
		return models.HotelBooking{}, provider.Incomplete(Name, "get_hotel_booking", "booking reference", raw)
	}
	return booking, nil
}

// CancelBooking cancels a booking by reference.
func (c *Client) CancelBooking(ctx context.Context, reference string) (models.HotelCancellation, error) {
	raw, err := c.do(ctx, provider.Call{
		Operation: "cancel_hotel_booking",
		Method:    http.MethodDelete,
		Path:      "/hotel-api/1.0/bookings/" + url.PathEscape(reference),
		Query:     url.Values{"cancellationFlag": {"CANCELLATION"}},
		Timeout:   provider.WriteTimeout,
	})
	if err != nil {
		return models.HotelCancellation{}, err
	}
	b := gjson.GetBytes(raw, "booking")
	out := models.HotelCancellation{
		Reference:             b.Get("reference").String(),
		Status:                b.Get("status").String(),
		CancellationReference: b.Get("cancellationReference").String(),
	}
	if out.Reference == "" {
		return models.HotelCancellation{}, provider.Incomplete(Name, "cancel_hotel_booking", "booking reference", raw)
	}
	return out, nil
}

// content reads fields Hotelbeds returns either as a string or as
// {"content": "..."}.
func content(r gjson.Result) string {
	if r.IsObject() {
		return r.Get("content").String()
	}
	return r.String()
}

func parseHotel(h gjson.Result) models.Hotel {
	hotel := models.Hotel{
		Code:        int(h.Get("code").Int()),
		Name:        content(h.Get("name")),
		Category:    content(h.Get("categoryName")),
		Destination: content(h.Get("destinationName")),
		Zone:        content(h.Get("zoneName")),
		Currency:    h.Get("currency").String(),
		MinRate:     h.Get("minRate").Float(),
		MaxRate:     h.Get("maxRate").Float(),
		Raw:         json.RawMessage(h.Raw),
	}
	for _, room := range h.Get("rooms").Array() {
		hr := models.HotelRoom{Code: room.Get("code").String(), Name: room.Get("name").String()}
		for _, rate := range room.Get("rates").Array() {
			hr.Rates = append(hr.Rates, models.HotelRate{
				RateKey:   rate.Get("rateKey").String(),
				RateType:  rate.Get("rateType").String(),
				Net:       rate.Get("net").Float(),
				BoardName: rate.Get("boardName").String(),
				Adults:    int(rate.Get("adults").Int()),
				Children:  int(rate.Get("children").Int()),
			})
		}
		hotel.Rooms = append(hotel.Rooms, hr)
	}
	return hotel
}

func parseBooking(b gjson.Result) models.HotelBooking {
	return models.HotelBooking{
		Reference:       b.Get("reference").String(),
		ClientReference: b.Get("clientReference").String(),
		Status:          b.Get("status").String(),
		CreationDate:    b.Get("creationDate").String(),
		TotalNet:        b.Get("totalNet").Float(),
		Currency:        b.Get("currency").String(),
		HolderName:      strings.TrimSpace(b.Get("holder.name").String() + " " + b.Get("holder.surname").String()),
		HotelName:       b.Get("hotel.name").String(),
		CheckIn:         b.Get("hotel.checkIn").String(),
		CheckOut:        b.Get("hotel.checkOut").String(),
	}
}
