// Package normalize repairs loosely specified tool arguments into the
// provider-ready shapes the adapters accept, or reports exactly what is
// missing.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/Nour-MZ/Nomada/internal/models"
)

// DecodePassengers converts a raw passenger list into PassengerSpecs.
// Non-object entries become empty specs so completeness reporting keeps
// their index.
func DecodePassengers(raw any) ([]models.PassengerSpec, error) {
	var items []any
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	case []map[string]any:
		items = lo.Map(v, func(m map[string]any, _ int) any { return m })
	case []models.PassengerSpec:
		return append([]models.PassengerSpec(nil), v...), nil
	default:
		return nil, &models.ValidationFailure{
			Message:       fmt.Sprintf("passengers must be a list, got %T", raw),
			MissingFields: []string{"passengers"},
		}
	}

	out := make([]models.PassengerSpec, 0, len(items))
	for _, item := range items {
		m, _ := item.(map[string]any)
		out = append(out, models.PassengerSpec{
			ID:          str(m["id"]),
			Title:       strings.ToLower(str(m["title"])),
			Gender:      strings.ToLower(str(m["gender"])),
			GivenName:   str(m["given_name"]),
			FamilyName:  str(m["family_name"]),
			BornOn:      str(m["born_on"]),
			Email:       str(m["email"]),
			PhoneNumber: str(m["phone_number"]),
		})
	}
	return out, nil
}

// BackfillPassengerIDs assigns provider-issued ids from the cached offer to
// passengers that lack one, by position. When the passenger count differs
// from the cached id count nothing is assigned and invalid ids are cleared,
// so the completeness check reports them.
func BackfillPassengerIDs(passengers []models.PassengerSpec, cachedIDs []string) []models.PassengerSpec {
	out := append([]models.PassengerSpec(nil), passengers...)
	positional := len(cachedIDs) == len(out)
	for i := range out {
		if models.IsProviderPassengerID(out[i].ID) {
			out[i].ID = strings.TrimSpace(out[i].ID)
			continue
		}
		out[i].ID = ""
		if positional && models.IsProviderPassengerID(cachedIDs[i]) {
			out[i].ID = cachedIDs[i]
		}
	}
	return out
}

// CheckPassengers returns a ValidationFailure naming every missing field of
// every incomplete passenger, or nil when all passengers are complete.
func CheckPassengers(passengers []models.PassengerSpec) *models.ValidationFailure {
	if len(passengers) == 0 {
		return &models.ValidationFailure{
			Message:        "No passenger data available to create the order",
			MissingFields:  []string{"passengers"},
			RequiredFields: models.RequiredPassengerFields,
		}
	}

	var missing []models.MissingPassengerFields
	for i, p := range passengers {
		fields := lo.Filter(models.RequiredPassengerFields, func(name string, _ int) bool {
			return strings.TrimSpace(p.Field(name)) == ""
		})
		if len(fields) > 0 {
			missing = append(missing, models.MissingPassengerFields{PassengerIndex: i, MissingFields: fields})
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &models.ValidationFailure{
		Message:        "Missing required passenger details",
		RequiredFields: models.RequiredPassengerFields,
		Passengers:     missing,
		Hint:           "Provide passengers with all required fields or share the missing details so I can retry.",
	}
}

// PassengerTemplate is the form handed to the caller after an offer is
// selected. Only the provider ids are filled in.
func PassengerTemplate(passengerIDs []string) []map[string]string {
	return lo.Map(passengerIDs, func(id string, _ int) map[string]string {
		tmpl := make(map[string]string, len(models.RequiredPassengerFields))
		for _, f := range models.RequiredPassengerFields {
			tmpl[f] = ""
		}
		tmpl["id"] = id
		return tmpl
	})
}

// SearchPassengers turns a count or a list of {type|age} into search
// passengers. Anything unusable yields a single adult.
func SearchPassengers(raw any) []models.SearchPassenger {
	adults := func(n int) []models.SearchPassenger {
		return lo.Times(n, func(int) models.SearchPassenger { return models.SearchPassenger{Type: "adult"} })
	}

	if n, ok := toInt(raw); ok {
		if n < 1 {
			n = 1
		}
		return adults(n)
	}

	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return adults(1)
	}
	out := lo.FilterMap(items, func(item any, _ int) (models.SearchPassenger, bool) {
		m, ok := item.(map[string]any)
		if !ok {
			return models.SearchPassenger{Type: "adult"}, true
		}
		if age, ok := toInt(m["age"]); ok && age >= 0 {
			return models.SearchPassenger{Age: age}, true
		}
		t := strings.ToLower(str(m["type"]))
		if t == "" {
			t = "adult"
		}
		return models.SearchPassenger{Type: t}, true
	})
	return out
}

func str(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	}
	return 0, false
}
