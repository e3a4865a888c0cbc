package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/Nour-MZ/Nomada/internal/models"
	"github.com/Nour-MZ/Nomada/internal/normalize"
)

func (a *Agent) searchFlights(ctx context.Context, s *Session, args map[string]any) (result, error) {
	slices, err := normalize.SearchSlices(argString(args, "origin"), argString(args, "destination"),
		argString(args, "departure_date"), argString(args, "return_date"))
	if err != nil {
		return result{}, err
	}
	cabin, err := normalize.CabinClass(argString(args, "cabin_class"))
	if err != nil {
		return result{}, err
	}

	offers, err := a.deps.Flights.Search(ctx, models.FlightSearchRequest{
		Slices:     slices,
		Passengers: normalize.SearchPassengers(args["passengers"]),
		CabinClass: cabin,
		MaxOffers:  argInt(args, "max_offers"),
	})
	if err != nil {
		return result{}, err
	}

	meta := models.SearchMeta{
		Origin:        slices[0].Origin,
		Destination:   slices[0].Destination,
		DepartureDate: slices[0].DepartureDate,
		CabinClass:    string(cabin),
	}
	if len(slices) > 1 {
		meta.ReturnDate = slices[1].DepartureDate
	}
	searchID, err := a.deps.Cache.SaveSearch(ctx, s.ID, offers, meta)
	if err != nil {
		return result{}, fmt.Errorf("failed to cache flight search: %w", err)
	}
	s.stage = StageSearching
	s.selectedOffer = ""

	if len(offers) == 0 {
		return result{}, &models.NoResultsFailure{Stage: "flight", Criteria: map[string]any{
			"origin":         meta.Origin,
			"destination":    meta.Destination,
			"departure_date": meta.DepartureDate,
			"return_date":    meta.ReturnDate,
			"cabin_class":    meta.CabinClass,
		}}
	}

	views := lo.Map(offers, func(o models.FlightOffer, i int) offerView { return newOfferView(i+1, o) })
	return result{
		payload: map[string]any{"search_id": searchID, "offers": views},
		summary: offerSummary(meta, views),
	}, nil
}

func (a *Agent) selectOffer(ctx context.Context, s *Session, args map[string]any) (result, error) {
	index := argInt(args, "index")
	records, err := a.deps.Cache.LoadLatest(ctx, s.ID)
	if err != nil {
		return result{}, fmt.Errorf("failed to load cached offers: %w", err)
	}
	if index < 1 || index > len(records) {
		return result{}, &models.SelectionOutOfRange{Index: index, Count: len(records)}
	}

	rec := records[index-1]
	s.selectedOffer = rec.OfferID
	s.stage = StageOfferSelected

	template := normalize.PassengerTemplate(rec.PassengerIDs)
	s.stage = StagePassengerTemplateIssued
	return result{
		payload: map[string]any{
			"offer_id":        rec.OfferID,
			"passengers":      template,
			"required_fields": models.RequiredPassengerFields,
			"instructions":    "Fill in every field for each passenger and send them back with create_order. Keep the id values unchanged.",
		},
		summary: fmt.Sprintf("Selected option %d: offer %s. Passenger template issued for %d passenger(s) with ids %s.",
			index, rec.OfferID, len(rec.PassengerIDs), strings.Join(rec.PassengerIDs, ", ")),
	}, nil
}

func (a *Agent) getOffer(ctx context.Context, args map[string]any) (result, error) {
	offer, err := a.deps.Flights.GetOffer(ctx, argString(args, "offer_id"))
	if err != nil {
		return result{}, err
	}
	return result{payload: newOfferView(0, offer)}, nil
}

func (a *Agent) createOrder(ctx context.Context, s *Session, args map[string]any) (result, error) {
	order, passengers, err := a.placeOrder(ctx, s, argString(args, "offer_id"), args)
	if err != nil {
		return result{}, err
	}
	return result{payload: order, confirmation: orderConfirmation(order, passengers)}, nil
}

// placeOrder runs the full order path: passenger repair and completeness,
// payment resolution, the dedup guard and the provider call. Persistence
// and notification happen only after the provider reports an order id.
func (a *Agent) placeOrder(ctx context.Context, s *Session, offerID string, args map[string]any) (models.OrderDetail, []models.PassengerSpec, error) {
	passengers, err := normalize.DecodePassengers(args["passengers"])
	if err != nil {
		return models.OrderDetail{}, nil, err
	}
	passengers = normalize.BackfillPassengerIDs(passengers, a.cachedPassengerIDs(ctx, s, offerID))
	if vf := normalize.CheckPassengers(passengers); vf != nil {
		return models.OrderDetail{}, nil, vf
	}
	s.stage = StagePassengersComplete

	if _, seen := a.guard.SubmittedAt(offerID); seen {
		return models.OrderDetail{}, nil, &models.DuplicateSubmission{OfferID: offerID}
	}

	req := models.CreateOrderRequest{
		OfferID:     offerID,
		Passengers:  passengers,
		OrderType:   models.OrderTypeInstant,
		PaymentType: string(models.PaymentBalance),
	}
	if argBool(args, "create_hold") || strings.EqualFold(argString(args, "mode"), string(models.OrderTypeHold)) {
		req.OrderType = models.OrderTypeHold
	} else {
		src, err := a.paymentSource(ctx, args)
		if err != nil {
			return models.OrderDetail{}, nil, err
		}
		req.PaymentType = src.ProviderType()
		req.CardID = src.CardID()
	}

	var order models.OrderDetail
	err = a.guard.Submit(offerID, func() error {
		var err error
		order, err = a.deps.Flights.CreateOrder(ctx, req)
		return err
	})
	if err != nil {
		return models.OrderDetail{}, nil, err
	}
	if len(order.Passengers) == 0 {
		order.Passengers = passengers
	}
	if order.OrderType == "" {
		order.OrderType = req.OrderType
	}

	s.stage = StageOrderCreated
	s.orderID = order.OrderID

	email := a.email(s, args)
	title := flightTitle(order)
	a.recordBooking(ctx, email, models.BookingTypeFlight, order.OrderID, title, order)
	a.notify(ctx, models.BookingConfirmation{
		Type:        models.BookingTypeFlight,
		UserEmail:   email,
		Reference:   order.BookingReference,
		OrderID:     order.OrderID,
		Title:       title,
		TotalAmount: order.TotalAmount,
		Currency:    order.TotalCurrency,
		Passengers:  order.Passengers,
		Itinerary:   order.Itinerary,
		CreatedAt:   time.Now().UTC(),
	})
	return order, passengers, nil
}

// cachedPassengerIDs looks the offer up in the latest search, then in the
// session's trip plan.
func (a *Agent) cachedPassengerIDs(ctx context.Context, s *Session, offerID string) []string {
	records, err := a.deps.Cache.LoadLatest(ctx, s.ID)
	if err != nil {
		a.logger.Printf("offer cache unavailable session=%s err=%v", s.ID, err)
	}
	if rec, ok := lo.Find(records, func(r models.OfferRecord) bool { return r.OfferID == offerID }); ok {
		return rec.PassengerIDs
	}
	if s.tripPlan != nil && s.tripPlan.OfferID == offerID {
		return s.tripPlan.PassengerIDs
	}
	return nil
}

func (a *Agent) paymentSource(ctx context.Context, args map[string]any) (models.PaymentSource, error) {
	src, err := normalize.ParsePaymentSource(argString(args, "payment_type"), argMap(args, "payment_source"))
	if err != nil {
		return models.PaymentSource{}, err
	}
	return normalize.ResolvePayment(ctx, a.deps.Tokenizer, src)
}

func (a *Agent) createPayment(ctx context.Context, s *Session, args map[string]any) (result, error) {
	orderID := argString(args, "order_id")
	src, err := a.paymentSource(ctx, args)
	if err != nil {
		return result{}, err
	}

	payment, err := a.deps.Flights.CreatePayment(ctx, models.CreatePaymentRequest{
		OrderID:     orderID,
		Amount:      argFloat(args, "amount"),
		Currency:    argString(args, "currency"),
		PaymentType: src.ProviderType(),
		CardID:      src.CardID(),
	})
	if err != nil {
		return result{}, err
	}
	s.stage = StagePaymentCreated

	if a.deps.Payments != nil && payment.PaymentID != "" {
		rec := models.PaymentRecord{
			PaymentID:     payment.PaymentID,
			OfferID:       s.selectedOffer,
			OrderID:       lo.CoalesceOrEmpty(payment.OrderID, orderID),
			Amount:        payment.Amount,
			Currency:      payment.Currency,
			Status:        payment.Status,
			CustomerEmail: a.email(s, args),
		}
		if src.Card != nil {
			rec.CardBrand = src.Card.Brand
			rec.CardLast4 = src.Card.Last4
		}
		rec.Metadata, _ = json.Marshal(map[string]string{"type": payment.Type, "created_at": payment.CreatedAt})
		if err := a.deps.Payments.UpsertPayment(ctx, rec); err != nil {
			a.logger.Printf("payment record not saved payment=%s err=%v", payment.PaymentID, err)
		}
	}
	return result{payload: payment}, nil
}

func (a *Agent) getOrder(ctx context.Context, args map[string]any) (result, error) {
	order, err := a.deps.Flights.GetOrder(ctx, argString(args, "order_id"))
	if err != nil {
		return result{}, err
	}
	return result{payload: order}, nil
}

func (a *Agent) cancelOrder(ctx context.Context, s *Session, args map[string]any) (result, error) {
	orderID := argString(args, "order_id")
	autoConfirm := true
	if v, ok := args["auto_confirm"].(bool); ok {
		autoConfirm = v
	}

	detail, err := a.deps.Flights.CancelOrder(ctx, orderID, autoConfirm)
	if err != nil {
		return result{}, err
	}
	s.stage = StageCancellationRequested
	if detail.Confirmed {
		s.stage = StageCancellationConfirmed
		a.markCancelled(ctx, a.email(s, args), models.BookingTypeFlight, orderID)
	}
	return result{payload: detail}, nil
}

func (a *Agent) requestOrderChange(ctx context.Context, s *Session, args map[string]any) (result, error) {
	raw := argList(args, "slices")
	if len(raw) == 0 {
		return result{}, &models.ValidationFailure{
			Message:       "An order change needs at least one new slice",
			MissingFields: []string{"slices"},
			Hint:          `Pass slices as [{"origin":"LHR","destination":"JFK","departure_date":"2025-12-30"}].`,
		}
	}
	slices, err := normalize.ChangeSlices(raw)
	if err != nil {
		return result{}, err
	}

	offers, err := a.deps.Flights.RequestChangeOffers(ctx, argString(args, "order_id"), slices, argInt(args, "max_offers"))
	if err != nil {
		return result{}, err
	}
	s.stage = StageChangeRequested

	views := lo.Map(offers, func(o models.ChangeOffer, i int) changeView { return newChangeView(i+1, o) })
	return result{
		payload: map[string]any{"order_id": argString(args, "order_id"), "change_offers": views},
		summary: changeSummary(views),
	}, nil
}

func (a *Agent) confirmOrderChange(ctx context.Context, s *Session, args map[string]any) (result, error) {
	src, err := a.paymentSource(ctx, args)
	if err != nil {
		return result{}, err
	}
	change, err := a.deps.Flights.ConfirmChange(ctx, models.ConfirmChangeRequest{
		ChangeOfferID: argString(args, "change_offer_id"),
		PaymentType:   src.ProviderType(),
		Amount:        argFloat(args, "amount"),
		Currency:      argString(args, "currency"),
		CardID:        src.CardID(),
	})
	if err != nil {
		return result{}, err
	}
	s.stage = StageChangeConfirmed
	return result{payload: change}, nil
}

func (a *Agent) email(s *Session, args map[string]any) string {
	return strings.ToLower(lo.CoalesceOrEmpty(argString(args, "email"), s.email))
}

// recordBooking persists a confirmed booking. The provider booking already
// exists, so storage problems are logged and never fail the turn.
func (a *Agent) recordBooking(ctx context.Context, email string, bookingType models.BookingType, reference, title string, detail any) {
	if email == "" {
		a.logger.Printf("booking not recorded: no account email type=%s reference=%s", bookingType, reference)
		return
	}
	id, err := a.deps.Bookings.SaveBooking(ctx, email, bookingType, reference, title, detail)
	if err != nil {
		a.logger.Printf("booking not recorded type=%s reference=%s err=%v", bookingType, reference, err)
		return
	}
	if a.deps.Events != nil {
		raw, _ := json.Marshal(detail)
		a.deps.Events.PublishBooking(models.BookingRecord{
			ID:        id,
			UserEmail: email,
			Type:      bookingType,
			Reference: reference,
			Title:     title,
			Detail:    raw,
			Status:    models.BookingStatusActive,
			CreatedAt: time.Now().UTC(),
		})
	}
}

func (a *Agent) markCancelled(ctx context.Context, email string, bookingType models.BookingType, reference string) {
	if err := a.deps.Bookings.CancelBooking(ctx, email, reference); err != nil {
		a.logger.Printf("booking status not updated reference=%s err=%v", reference, err)
		return
	}
	if a.deps.Events != nil {
		a.deps.Events.PublishBooking(models.BookingRecord{
			UserEmail: email,
			Type:      bookingType,
			Reference: reference,
			Status:    models.BookingStatusCancelled,
		})
	}
}

// notify hands the confirmation to the sink without letting a delivery
// problem reach the user.
func (a *Agent) notify(ctx context.Context, c models.BookingConfirmation) {
	if a.deps.Notifier == nil || len(c.Recipients()) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := a.deps.Notifier.SendBookingConfirmation(ctx, c); err != nil {
		a.logger.Printf("booking email not sent reference=%s err=%v", c.Reference, err)
	}
}
