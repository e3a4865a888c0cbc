package normalize

import (
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/Nour-MZ/Nomada/internal/models"
)

// Rooms expands loosely typed room requests into occupancies. Each entry
// may be a number of adults, a string such as "2 adults", or an object with
// adults, children and paxes. Every resulting room holds at least one adult.
func Rooms(raw any) []models.Occupancy {
	var items []any
	switch v := raw.(type) {
	case nil:
	case []any:
		items = v
	case []models.Occupancy:
		items = lo.Map(v, func(o models.Occupancy, _ int) any { return o })
	default:
		items = []any{v}
	}
	if len(items) == 0 {
		items = []any{map[string]any{"adults": 2, "children": 0}}
	}

	out := make([]models.Occupancy, 0, len(items))
	for i, item := range items {
		out = append(out, room(i+1, item))
	}
	return out
}

func room(roomID int, item any) models.Occupancy {
	var adults, children int
	var paxes []models.Pax

	switch v := item.(type) {
	case int, int64, float64:
		adults, _ = toInt(v)
	case string:
		adults = 2
		if fields := strings.Fields(v); len(fields) > 0 {
			if n, err := strconv.Atoi(fields[0]); err == nil {
				adults = n
			}
		}
	case models.Occupancy:
		adults, children, paxes = v.Adults, v.Children, v.Paxes
	case map[string]any:
		adults, _ = toInt(v["adults"])
		children, _ = toInt(v["children"])
		paxes = decodePaxes(v["paxes"])
	default:
		adults = 2
	}

	if len(paxes) == 0 {
		for i := 0; i < max(0, adults); i++ {
			paxes = append(paxes, models.Pax{Type: models.PaxAdult, Age: models.DefaultAdultAge})
		}
		for i := 0; i < max(0, children); i++ {
			paxes = append(paxes, models.Pax{Type: models.PaxChild, Age: models.DefaultChildAge})
		}
	}

	paxes = EnsureAdult(fillPaxes(roomID, paxes), roomID)

	// Counts follow the occupants actually sent.
	adults = lo.CountBy(paxes, func(p models.Pax) bool { return p.Type == models.PaxAdult })
	return models.Occupancy{Rooms: 1, Adults: adults, Children: len(paxes) - adults, Paxes: paxes}
}

// EnsureAdult guarantees the room has an adult occupant. The first occupant
// is promoted when none is an adult; an empty room gets one default adult.
func EnsureAdult(paxes []models.Pax, roomID int) []models.Pax {
	if lo.ContainsBy(paxes, func(p models.Pax) bool { return p.Type == models.PaxAdult }) {
		return paxes
	}
	if len(paxes) == 0 {
		return []models.Pax{{RoomID: roomID, Type: models.PaxAdult, Age: models.DefaultAdultAge}}
	}
	out := append([]models.Pax(nil), paxes...)
	out[0].Type = models.PaxAdult
	if out[0].Age < 18 {
		out[0].Age = models.DefaultAdultAge
	}
	return out
}

func fillPaxes(roomID int, paxes []models.Pax) []models.Pax {
	out := make([]models.Pax, len(paxes))
	for i, p := range paxes {
		p.RoomID = roomID
		p.Type = models.PaxType(strings.ToUpper(string(p.Type)))
		if p.Type == "" && p.Age > 0 && p.Age < 18 {
			p.Type = models.PaxChild
		}
		if p.Type != models.PaxChild {
			p.Type = models.PaxAdult
		}
		if p.Age <= 0 {
			if p.Type == models.PaxChild {
				p.Age = models.DefaultChildAge
			} else {
				p.Age = models.DefaultAdultAge
			}
		}
		out[i] = p
	}
	return out
}

func decodePaxes(raw any) []models.Pax {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	return lo.FilterMap(items, func(item any, _ int) (models.Pax, bool) {
		m, ok := item.(map[string]any)
		if !ok {
			return models.Pax{}, false
		}
		age, _ := toInt(m["age"])
		return models.Pax{
			Type:    models.PaxType(str(m["type"])),
			Age:     age,
			Name:    str(m["name"]),
			Surname: str(m["surname"]),
		}, true
	})
}

// BookingRooms builds the rooms of a booking request for one rate key,
// naming each adult after the holder when no name was given.
func BookingRooms(rateKey string, occupancies []models.Occupancy, holder models.HotelHolder) []models.BookRoom {
	return lo.Map(occupancies, func(o models.Occupancy, i int) models.BookRoom {
		paxes := EnsureAdult(fillPaxes(i+1, o.Paxes), i+1)
		for j := range paxes {
			if paxes[j].Name == "" {
				paxes[j].Name = holder.Name
			}
			if paxes[j].Surname == "" {
				paxes[j].Surname = holder.Surname
			}
		}
		return models.BookRoom{RateKey: rateKey, Paxes: paxes}
	})
}
