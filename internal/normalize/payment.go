package normalize

import (
	"context"
	"errors"
	"strings"

	"github.com/Nour-MZ/Nomada/internal/models"
)

// Tokenizer vaults raw card details and returns a provider card token.
type Tokenizer interface {
	Tokenize(ctx context.Context, card models.RawCardDetails) (models.CardToken, error)
}

// SensitiveCardKeys are the argument keys that may carry a PAN, CVC or
// expiry. They are never forwarded to a provider or written anywhere.
var SensitiveCardKeys = []string{
	"number", "card_number", "pan", "cvc", "cvv", "cvc2", "security_code",
	"exp_month", "exp_year", "expiry_month", "expiry_year", "expiry",
}

var sensitive = func() map[string]bool {
	m := make(map[string]bool, len(SensitiveCardKeys))
	for _, k := range SensitiveCardKeys {
		m[k] = true
	}
	return m
}()

// StripCardData returns a deep copy of v with every sensitive card key
// removed from nested objects.
func StripCardData(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			if sensitive[strings.ToLower(k)] {
				continue
			}
			out[k] = StripCardData(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = StripCardData(val)
		}
		return out
	}
	return v
}

// ParsePaymentSource classifies the payment arguments of a tool call. A
// source carrying a card token wins over any raw card fields attached to
// it; those fields are dropped.
func ParsePaymentSource(paymentType string, raw map[string]any) (models.PaymentSource, error) {
	paymentType = strings.ToLower(strings.TrimSpace(paymentType))

	if cardID := firstString(raw, "card_id", "token"); cardID != "" {
		return models.PaymentSource{
			Kind: models.PaymentCardToken,
			Card: &models.CardToken{
				CardID: cardID,
				Brand:  firstString(raw, "brand"),
				Last4:  firstString(raw, "last4", "last_4"),
			},
		}, nil
	}

	if number := firstString(raw, "number", "card_number", "pan"); number != "" {
		card := models.RawCardDetails{
			Number:     strings.ReplaceAll(strings.ReplaceAll(number, " ", ""), "-", ""),
			ExpMonth:   firstString(raw, "exp_month", "expiry_month"),
			ExpYear:    firstString(raw, "exp_year", "expiry_year"),
			CVC:        firstString(raw, "cvc", "cvv", "cvc2", "security_code"),
			HolderName: firstString(raw, "holder_name", "name", "cardholder_name"),
		}
		var missing []string
		if card.ExpMonth == "" {
			missing = append(missing, "payment_source.exp_month")
		}
		if card.ExpYear == "" {
			missing = append(missing, "payment_source.exp_year")
		}
		if card.CVC == "" {
			missing = append(missing, "payment_source.cvc")
		}
		if len(missing) > 0 {
			return models.PaymentSource{}, &models.ValidationFailure{
				Message:       "Incomplete card details",
				MissingFields: missing,
			}
		}
		return models.PaymentSource{Kind: models.PaymentRawCard, RawCard: &card}, nil
	}

	if paymentType == string(models.PaymentCardToken) {
		return models.PaymentSource{}, &models.ValidationFailure{
			Message:       "Card payments need a card token or card details",
			MissingFields: []string{"payment_source"},
		}
	}
	return models.PaymentSource{Kind: models.PaymentBalance}, nil
}

// ResolvePayment returns a source that is safe to hand to a provider. Raw
// card details are exchanged for a token; a tokenization error is returned
// unchanged and no token is invented.
func ResolvePayment(ctx context.Context, tok Tokenizer, src models.PaymentSource) (models.PaymentSource, error) {
	if src.Kind != models.PaymentRawCard {
		src.RawCard = nil
		return src, nil
	}
	if src.RawCard == nil {
		return models.PaymentSource{}, &models.TokenizationFailure{Message: "card details are empty"}
	}
	if tok == nil {
		return models.PaymentSource{}, &models.TokenizationFailure{Message: "card tokenization is not configured"}
	}

	token, err := tok.Tokenize(ctx, *src.RawCard)
	if err != nil {
		var tf *models.TokenizationFailure
		if errors.As(err, &tf) {
			return models.PaymentSource{}, tf
		}
		return models.PaymentSource{}, &models.TokenizationFailure{Message: err.Error()}
	}
	if token.CardID == "" {
		return models.PaymentSource{}, &models.TokenizationFailure{Message: "card vault returned no token"}
	}
	if token.Last4 == "" {
		token.Last4 = src.RawCard.Last4()
	}
	if token.Brand == "" {
		token.Brand = src.RawCard.Brand()
	}
	return models.PaymentSource{Kind: models.PaymentCardToken, Card: &token}, nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := str(m[k]); s != "" {
			return s
		}
	}
	return ""
}
