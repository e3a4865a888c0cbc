package duffel

import (
	"context"
	"errors"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/Nour-MZ/Nomada/internal/models"
	"github.com/Nour-MZ/Nomada/internal/provider"
)

const DefaultCardsURL = "https://api.duffel.cards"

// Tokenizer vaults raw card details with Duffel's card service and returns
// a tcd_ token usable in payments.
type Tokenizer struct {
	token string
	api   *provider.Client
}

func NewTokenizer(token, cardsURL string, opts ...provider.Option) *Tokenizer {
	if cardsURL == "" {
		cardsURL = DefaultCardsURL
	}
	opts = append([]provider.Option{provider.WithRequestDecorator(authorize(token))}, opts...)
	return &Tokenizer{
		token: token,
		api:   provider.New(Name+"-cards", cardsURL, opts...),
	}
}

// Tokenize returns a *models.TokenizationFailure on any error.
func (t *Tokenizer) Tokenize(ctx context.Context, card models.RawCardDetails) (models.CardToken, error) {
	if t.token == "" {
		return models.CardToken{}, &models.TokenizationFailure{Message: "Missing Duffel API token"}
	}
	body, err := t.api.Do(ctx, provider.Call{
		Operation: "tokenize_card",
		Method:    http.MethodPost,
		Path:      "/payments/cards",
		Body: map[string]any{"data": map[string]any{
			"number":       card.Number,
			"expiry_month": card.ExpMonth,
			"expiry_year":  card.ExpYear,
			"cvc":          card.CVC,
			"name":         card.HolderName,
			"multi_use":    false,
		}},
		Timeout: provider.ReadTimeout,
	})
	if err != nil {
		var pf *models.ProviderFailure
		if errors.As(err, &pf) {
			return models.CardToken{}, &models.TokenizationFailure{Message: pf.Message, Status: pf.Status, Detail: pf.Response}
		}
		return models.CardToken{}, &models.TokenizationFailure{Message: err.Error()}
	}

	id := gjson.GetBytes(body, "data.id").String()
	if id == "" {
		return models.CardToken{}, &models.TokenizationFailure{Message: "card vault returned no token", Status: http.StatusOK}
	}
	return models.CardToken{
		CardID: id,
		Brand:  gjson.GetBytes(body, "data.brand").String(),
		Last4:  gjson.GetBytes(body, "data.last_4_digits").String(),
	}, nil
}
