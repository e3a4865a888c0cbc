package duffel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nour-MZ/Nomada/internal/models"
)

const offerJSON = `{
	"id": "off_1",
	"total_amount": "245.10",
	"total_currency": "GBP",
	"owner": {"name": "British Airways"},
	"passengers": [{"id": "pas_1", "type": "adult"}],
	"slices": [{
		"origin": {"iata_code": "LHR"},
		"destination": {"iata_code": "JFK"},
		"duration": "PT16H",
		"segments": [
			{"origin": {"iata_code": "LHR"}, "destination": {"iata_code": "KEF"},
			 "departing_at": "2025-12-25T21:00:00", "arriving_at": "2025-12-25T23:55:00",
			 "marketing_carrier": {"iata_code": "FI"}, "marketing_carrier_flight_number": "451"},
			{"origin": {"iata_code": "KEF"}, "destination": {"iata_code": "JFK"},
			 "departing_at": "2025-12-26T10:00:00", "arriving_at": "2025-12-26T11:40:00",
			 "marketing_carrier": {"iata_code": "FI"}, "marketing_carrier_flight_number": "615"}
		]
	}]
}`

type fakeDuffel struct {
	router   *mux.Router
	bodies   map[string]map[string]any
	calls    map[string]int
	order    string
	failPath string
}

func newFakeDuffel(t *testing.T) (*fakeDuffel, *httptest.Server) {
	t.Helper()
	f := &fakeDuffel{
		router: mux.NewRouter(),
		bodies: map[string]map[string]any{},
		calls:  map[string]int{},
		order:  `{"id":"ord_1","booking_reference":"RZPVYG","total_amount":"245.10","total_currency":"GBP","type":"hold","payment_status":{"paid_at":null,"payment_required_by":"2025-12-20T10:00:00Z"},"passengers":[{"id":"pas_1","given_name":"Amelia","family_name":"Earhart","email":"amelia@example.com"}]}`,
	}

	handle := func(method, path string, respond func(w http.ResponseWriter, r *http.Request)) {
		f.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			assert.Equal(t, "v2", r.Header.Get("Duffel-Version"))
			key := method + " " + path
			f.calls[key]++
			if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
				var body map[string]any
				_ = json.Unmarshal(raw, &body)
				f.bodies[key] = body
			}
			if f.failPath == key {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"errors":[{"message":"nope"}]}`))
				return
			}
			respond(w, r)
		}).Methods(method)
	}
	data := func(w http.ResponseWriter, payload string) {
		w.Write([]byte(`{"data":` + payload + `}`))
	}

	handle(http.MethodPost, "/air/offer_requests", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("return_offers"))
		data(w, `{"id":"orq_1"}`)
	})
	handle(http.MethodGet, "/air/offers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "orq_1", r.URL.Query().Get("offer_request_id"))
		data(w, `[`+offerJSON+`,{"id":"off_2","total_amount":"300.00","total_currency":"GBP","passengers":[{"id":"pas_2"}]}]`)
	})
	handle(http.MethodGet, "/air/offers/{id}", func(w http.ResponseWriter, r *http.Request) {
		data(w, offerJSON)
	})
	handle(http.MethodPost, "/air/orders", func(w http.ResponseWriter, r *http.Request) {
		data(w, f.order)
	})
	handle(http.MethodGet, "/air/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		data(w, f.order)
	})
	handle(http.MethodPost, "/air/payments", func(w http.ResponseWriter, r *http.Request) {
		data(w, `{"id":"pay_1","amount":"245.10","currency":"GBP","type":"balance","created_at":"2025-12-01T00:00:00Z"}`)
	})
	handle(http.MethodPost, "/air/order_cancellations", func(w http.ResponseWriter, r *http.Request) {
		data(w, `{"id":"ore_1","refund_amount":"200.00","refund_currency":"GBP","refund_to":"balance"}`)
	})
	handle(http.MethodPost, "/air/order_cancellations/{id}/actions/confirm", func(w http.ResponseWriter, r *http.Request) {
		data(w, `{"id":"ore_1","confirmed_at":"2025-12-02T00:00:00Z","refund_amount":"210.00","refund_currency":"GBP"}`)
	})
	handle(http.MethodPost, "/air/order_change_requests", func(w http.ResponseWriter, r *http.Request) {
		data(w, `{"id":"ocr_1"}`)
	})
	handle(http.MethodGet, "/air/order_change_offers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ocr_1", r.URL.Query().Get("order_change_request_id"))
		data(w, `[{"id":"oco_1","change_total_amount":"30.00","change_total_currency":"GBP","new_total_amount":"275.10","penalty_total_amount":"10.00"}]`)
	})
	handle(http.MethodGet, "/air/order_change_offers/{id}", func(w http.ResponseWriter, r *http.Request) {
		data(w, `{"id":"oco_1","change_total_amount":"30.00","change_total_currency":"GBP"}`)
	})
	handle(http.MethodPost, "/air/order_changes", func(w http.ResponseWriter, r *http.Request) {
		data(w, `{"id":"oce_1","order_id":"ord_1","confirmed_at":"2025-12-03T00:00:00Z"}`)
	})

	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)
	return f, srv
}

func completePassenger() models.PassengerSpec {
	return models.PassengerSpec{
		ID: "pas_1", Title: "ms", Gender: "f", GivenName: "Amelia", FamilyName: "Earhart",
		BornOn: "1987-07-24", Email: "amelia@example.com", PhoneNumber: "+442080160508",
	}
}

func TestSearch(t *testing.T) {
	f, srv := newFakeDuffel(t)
	c := New("test-token", srv.URL)

	offers, err := c.Search(context.Background(), models.FlightSearchRequest{
		Slices:    []models.SearchSlice{{Origin: "LHR", Destination: "JFK", DepartureDate: "2025-12-25"}},
		MaxOffers: 1,
	})
	require.NoError(t, err)
	require.Len(t, offers, 1)

	o := offers[0]
	assert.Equal(t, "off_1", o.ID)
	assert.Equal(t, 245.10, o.TotalAmount)
	assert.Equal(t, []string{"pas_1"}, o.PassengerIDs)
	assert.NotEmpty(t, o.Raw)

	arrival, ok := o.LastArrival()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 12, 26, 11, 40, 0, 0, time.UTC), arrival)

	sent := f.bodies["POST /air/offer_requests"]["data"].(map[string]any)
	assert.Equal(t, "economy", sent["cabin_class"])
	assert.Equal(t, []any{map[string]any{"type": "adult"}}, sent["passengers"])
}

func TestCreateOrder_InstantIncludesPaymentFromOffer(t *testing.T) {
	f, srv := newFakeDuffel(t)
	c := New("test-token", srv.URL)

	order, err := c.CreateOrder(context.Background(), models.CreateOrderRequest{
		OfferID:     "off_1",
		Passengers:  []models.PassengerSpec{completePassenger()},
		PaymentType: "card",
		CardID:      "tcd_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ord_1", order.OrderID)
	assert.Equal(t, "RZPVYG", order.BookingReference)

	sent := f.bodies["POST /air/orders"]["data"].(map[string]any)
	assert.Equal(t, "instant", sent["type"])
	assert.Equal(t, []any{"off_1"}, sent["selected_offers"])
	assert.Equal(t, []any{map[string]any{
		"type": "card", "amount": "245.10", "currency": "GBP", "card_id": "tcd_1",
	}}, sent["payments"])
}

func TestCreateOrder_HoldHasNoPayment(t *testing.T) {
	f, srv := newFakeDuffel(t)
	c := New("test-token", srv.URL)

	_, err := c.CreateOrder(context.Background(), models.CreateOrderRequest{
		OfferID:    "off_1",
		Passengers: []models.PassengerSpec{completePassenger()},
		OrderType:  models.OrderTypeHold,
	})
	require.NoError(t, err)

	sent := f.bodies["POST /air/orders"]["data"].(map[string]any)
	assert.Equal(t, "hold", sent["type"])
	assert.NotContains(t, sent, "payments")
	assert.Zero(t, f.calls["GET /air/offers/{id}"])
}

func TestCreateOrder_MissingIDIsFailure(t *testing.T) {
	f, srv := newFakeDuffel(t)
	f.order = `{"booking_reference":"RZPVYG"}`
	c := New("test-token", srv.URL)

	_, err := c.CreateOrder(context.Background(), models.CreateOrderRequest{OfferID: "off_1", OrderType: models.OrderTypeHold})
	var pf *models.ProviderFailure
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, http.StatusOK, pf.Status)
}

func TestCreateOrder_ProviderErrorKeepsPayload(t *testing.T) {
	f, srv := newFakeDuffel(t)
	f.failPath = "POST /air/orders"
	c := New("test-token", srv.URL)

	_, err := c.CreateOrder(context.Background(), models.CreateOrderRequest{OfferID: "off_1", OrderType: models.OrderTypeHold})
	var pf *models.ProviderFailure
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, 422, pf.Status)
	assert.Equal(t, "nope", pf.Message)
	assert.Contains(t, string(pf.PayloadSent), "off_1")
}

func TestCreatePayment_ResolvesAmountFromOrder(t *testing.T) {
	f, srv := newFakeDuffel(t)
	c := New("test-token", srv.URL)

	p, err := c.CreatePayment(context.Background(), models.CreatePaymentRequest{OrderID: "ord_1", PaymentType: "balance"})
	require.NoError(t, err)
	assert.Equal(t, "pay_1", p.PaymentID)
	assert.Equal(t, "ord_1", p.OrderID)
	assert.Equal(t, "succeeded", p.Status)

	sent := f.bodies["POST /air/payments"]["data"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "balance", "amount": "245.10", "currency": "GBP"}, sent["payment"])
}

func TestCreatePayment_RejectsPaidInstantOrder(t *testing.T) {
	f, srv := newFakeDuffel(t)
	f.order = `{"id":"ord_1","type":"instant","total_amount":"10.00","total_currency":"GBP","payment_status":{"paid_at":"2025-12-01T00:00:00Z"}}`
	c := New("test-token", srv.URL)

	_, err := c.CreatePayment(context.Background(), models.CreatePaymentRequest{OrderID: "ord_1"})
	var vf *models.ValidationFailure
	require.True(t, errors.As(err, &vf))
	assert.Zero(t, f.calls["POST /air/payments"])
}

func TestCancelOrder(t *testing.T) {
	t.Run("auto confirm", func(t *testing.T) {
		f, srv := newFakeDuffel(t)
		c := New("test-token", srv.URL)

		d, err := c.CancelOrder(context.Background(), "ord_1", true)
		require.NoError(t, err)
		assert.True(t, d.Confirmed)
		assert.Equal(t, 210.0, d.RefundAmount)
		assert.Equal(t, 1, f.calls["POST /air/order_cancellations/{id}/actions/confirm"])
	})

	t.Run("no confirm", func(t *testing.T) {
		f, srv := newFakeDuffel(t)
		c := New("test-token", srv.URL)

		d, err := c.CancelOrder(context.Background(), "ord_1", false)
		require.NoError(t, err)
		assert.False(t, d.Confirmed)
		assert.Equal(t, 200.0, d.RefundAmount)
		assert.Zero(t, f.calls["POST /air/order_cancellations/{id}/actions/confirm"])
	})

	t.Run("confirmation error kept", func(t *testing.T) {
		f, srv := newFakeDuffel(t)
		f.failPath = "POST /air/order_cancellations/{id}/actions/confirm"
		c := New("test-token", srv.URL)

		d, err := c.CancelOrder(context.Background(), "ord_1", true)
		require.NoError(t, err)
		assert.False(t, d.Confirmed)
		assert.Contains(t, d.ConfirmationError, "nope")
	})
}

func TestChangeFlow(t *testing.T) {
	f, srv := newFakeDuffel(t)
	c := New("test-token", srv.URL)

	offers, err := c.RequestChangeOffers(context.Background(), "ord_1",
		[]models.SearchSlice{{Origin: "LHR", Destination: "JFK", DepartureDate: "2025-12-28"}}, 50)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "oco_1", offers[0].ID)
	assert.Equal(t, 30.0, offers[0].ChangeTotalAmount)

	conf, err := c.ConfirmChange(context.Background(), models.ConfirmChangeRequest{ChangeOfferID: "oco_1"})
	require.NoError(t, err)
	assert.Equal(t, "oce_1", conf.ChangeID)
	assert.Equal(t, 30.0, conf.Amount)
	assert.Equal(t, "GBP", conf.Currency)

	sent := f.bodies["POST /air/order_changes"]["data"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "balance", "amount": "30.00", "currency": "GBP"}, sent["payment"])
	assert.Equal(t, 1, f.calls["GET /air/order_change_offers/{id}"])
}

func TestMissingToken(t *testing.T) {
	_, err := New("", "http://127.0.0.1:1").GetOrder(context.Background(), "ord_1")
	var pf *models.ProviderFailure
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, "Missing Duffel API token", pf.Message)
}

func TestTokenizer(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/cards", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&received)
		if received["data"].(map[string]any)["number"] == "4000000000000002" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"errors":[{"message":"card declined"}]}`))
			return
		}
		w.Write([]byte(`{"data":{"id":"tcd_abc","brand":"visa","last_4_digits":"4242"}}`))
	}))
	defer srv.Close()

	tok := NewTokenizer("test-token", srv.URL)
	card := models.RawCardDetails{Number: "4242424242424242", ExpMonth: "12", ExpYear: "30", CVC: "123", HolderName: "A E"}

	got, err := tok.Tokenize(context.Background(), card)
	require.NoError(t, err)
	assert.Equal(t, models.CardToken{CardID: "tcd_abc", Brand: "visa", Last4: "4242"}, got)

	card.Number = "4000000000000002"
	_, err = tok.Tokenize(context.Background(), card)
	var tf *models.TokenizationFailure
	require.True(t, errors.As(err, &tf))
	assert.Equal(t, "card declined", tf.Message)
	assert.Equal(t, 422, tf.Status)
}
