package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MissingPassengerFields lists the required fields absent for one passenger.
type MissingPassengerFields struct {
	PassengerIndex int      `json:"passenger_index"`
	MissingFields  []string `json:"missing_fields"`
}

// ValidationFailure reports caller-supplied input that is missing or invalid.
type ValidationFailure struct {
	Message        string                   `json:"error"`
	MissingFields  []string                 `json:"missing_fields,omitempty"`
	OptionalFields []string                 `json:"optional_fields,omitempty"`
	Passengers     []MissingPassengerFields `json:"missing,omitempty"`
	RequiredFields []string                 `json:"required_fields,omitempty"`
	Hint           string                   `json:"hint,omitempty"`
}

func (e *ValidationFailure) Error() string {
	if len(e.MissingFields) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.MissingFields, ", "))
	}
	return e.Message
}

// ProviderFailure is a non-2xx response or transport error from a provider.
// PayloadSent never contains raw card data.
type ProviderFailure struct {
	Provider    string          `json:"provider,omitempty"`
	Operation   string          `json:"operation,omitempty"`
	Message     string          `json:"error"`
	Status      int             `json:"status,omitempty"`
	Response    json.RawMessage `json:"response,omitempty"`
	PayloadSent json.RawMessage `json:"payload_sent,omitempty"`
}

func (e *ProviderFailure) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s failed (status %d): %s", e.Provider, e.Operation, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Provider, e.Operation, e.Message)
}

// DuplicateSubmission is returned when an offer was already submitted
// within the dedup window.
type DuplicateSubmission struct {
	OfferID string `json:"offer_id"`
}

func (e *DuplicateSubmission) Error() string {
	return fmt.Sprintf("an order for offer %s was already submitted recently; please search again for a fresh offer", e.OfferID)
}

// TokenizationFailure means raw card details could not be vaulted.
type TokenizationFailure struct {
	Message string          `json:"error"`
	Status  int             `json:"status,omitempty"`
	Detail  json.RawMessage `json:"response,omitempty"`
}

func (e *TokenizationFailure) Error() string {
	return "card tokenization failed: " + e.Message
}

// NoResultsFailure reports an empty provider search together with the
// criteria that were tried.
type NoResultsFailure struct {
	Stage    string         `json:"stage"`
	Criteria map[string]any `json:"criteria"`
}

func (e *NoResultsFailure) Error() string {
	return fmt.Sprintf("no %s results for the requested criteria", e.Stage)
}

// SelectionOutOfRange is returned for a positional pick outside 1..Count.
type SelectionOutOfRange struct {
	Index int `json:"index"`
	Count int `json:"count"`
}

func (e *SelectionOutOfRange) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("option %d is out of range: there are no cached search results (0 cached results); please search first", e.Index)
	}
	return fmt.Sprintf("option %d is out of range; choose a number between 1 and %d", e.Index, e.Count)
}

// UnknownToolError is returned when a decision names an operation that is
// not in the catalog.
type UnknownToolError struct {
	Name string `json:"tool"`
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}
