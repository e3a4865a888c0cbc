package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/Nour-MZ/Nomada/internal/models"
)

const dateLayout = "2006-01-02"

var iataCode = regexp.MustCompile(`^[A-Z]{3}$`)

// CabinClass validates a cabin class string, accepting common spellings
// such as "Premium Economy". An empty value means economy.
func CabinClass(raw string) (models.CabinClass, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	if s == "" {
		return models.CabinEconomy, nil
	}
	if s == "premium" {
		s = string(models.CabinPremiumEconomy)
	}
	c := models.CabinClass(s)
	if !lo.Contains(models.ValidCabinClasses, c) {
		return "", &models.ValidationFailure{
			Message: fmt.Sprintf("unsupported cabin class %q", raw),
			Hint: "Use one of: " + strings.Join(lo.Map(models.ValidCabinClasses, func(c models.CabinClass, _ int) string {
				return string(c)
			}), ", "),
		}
	}
	return c, nil
}

// SearchSlices builds the outbound slice and, when returnDate is set, the
// inbound one.
func SearchSlices(origin, destination, departureDate, returnDate string) ([]models.SearchSlice, error) {
	origin = strings.ToUpper(strings.TrimSpace(origin))
	destination = strings.ToUpper(strings.TrimSpace(destination))

	var bad []string
	if !iataCode.MatchString(origin) {
		bad = append(bad, "origin")
	}
	if !iataCode.MatchString(destination) {
		bad = append(bad, "destination")
	}
	dep, err := time.Parse(dateLayout, strings.TrimSpace(departureDate))
	if err != nil {
		bad = append(bad, "departure_date")
	}
	var ret time.Time
	if strings.TrimSpace(returnDate) != "" {
		ret, err = time.Parse(dateLayout, strings.TrimSpace(returnDate))
		if err != nil || (!dep.IsZero() && ret.Before(dep)) {
			bad = append(bad, "return_date")
		}
	}
	if len(bad) > 0 {
		return nil, &models.ValidationFailure{
			Message:       "invalid flight search",
			MissingFields: bad,
			Hint:          "Airports are 3-letter IATA codes and dates use YYYY-MM-DD; the return date cannot precede departure.",
		}
	}
	if origin == destination {
		return nil, &models.ValidationFailure{Message: "origin and destination must differ"}
	}

	slices := []models.SearchSlice{{Origin: origin, Destination: destination, DepartureDate: dep.Format(dateLayout)}}
	if !ret.IsZero() {
		slices = append(slices, models.SearchSlice{Origin: destination, Destination: origin, DepartureDate: ret.Format(dateLayout)})
	}
	return slices, nil
}

// ChangeSlices validates the new slices of an order change request.
func ChangeSlices(raw []any) ([]models.SearchSlice, error) {
	out := make([]models.SearchSlice, 0, len(raw))
	for i, item := range raw {
		m, _ := item.(map[string]any)
		s, err := SearchSlices(str(m["origin"]), str(m["destination"]), str(m["departure_date"]), "")
		if err != nil {
			if vf, ok := err.(*models.ValidationFailure); ok {
				vf.Message = fmt.Sprintf("invalid slice %d", i)
			}
			return nil, err
		}
		out = append(out, s[0])
	}
	return out, nil
}

// Clamp bounds n to [low, high], using def when n is not positive.
func Clamp(n, def, low, high int) int {
	if n <= 0 {
		n = def
	}
	return min(max(n, low), high)
}
