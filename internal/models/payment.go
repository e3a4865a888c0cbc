package models

import "fmt"

type PaymentSourceKind string

const (
	PaymentBalance   PaymentSourceKind = "balance"
	PaymentCardToken PaymentSourceKind = "card"
	PaymentRawCard   PaymentSourceKind = "raw_card"
)

// RawCardDetails holds unvaulted card data. It is only ever handed to a
// Tokenizer and has no JSON encoding.
type RawCardDetails struct {
	Number     string `json:"-"`
	ExpMonth   string `json:"-"`
	ExpYear    string `json:"-"`
	CVC        string `json:"-"`
	HolderName string `json:"-"`
}

// Last4 returns the last four digits of the card number.
func (c RawCardDetails) Last4() string {
	if len(c.Number) < 4 {
		return ""
	}
	return c.Number[len(c.Number)-4:]
}

// Brand guesses the card network from the leading digits.
func (c RawCardDetails) Brand() string {
	switch {
	case len(c.Number) == 0:
		return ""
	case c.Number[0] == '4':
		return "visa"
	case c.Number[0] == '5' || c.Number[0] == '2':
		return "mastercard"
	case len(c.Number) > 1 && c.Number[0] == '3' && (c.Number[1] == '4' || c.Number[1] == '7'):
		return "amex"
	}
	return "unknown"
}

func (c RawCardDetails) String() string {
	return fmt.Sprintf("card(****%s)", c.Last4())
}

// CardToken is a vaulted card reference issued by the provider.
type CardToken struct {
	CardID string `json:"card_id"`
	Brand  string `json:"brand,omitempty"`
	Last4  string `json:"last4,omitempty"`
}

// PaymentSource is how an order or payment is funded. Exactly one of
// Card or RawCard is set for card kinds.
type PaymentSource struct {
	Kind    PaymentSourceKind `json:"type"`
	Card    *CardToken        `json:"card,omitempty"`
	RawCard *RawCardDetails   `json:"-"`
}

// ProviderType maps the source onto the flight provider's payment type.
func (p PaymentSource) ProviderType() string {
	if p.Kind == PaymentBalance || p.Kind == "" {
		return string(PaymentBalance)
	}
	return string(PaymentCardToken)
}

// CardID returns the token id for card payments.
func (p PaymentSource) CardID() string {
	if p.Card == nil {
		return ""
	}
	return p.Card.CardID
}
