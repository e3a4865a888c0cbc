package planner

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/Nour-MZ/Nomada/internal/models"
)

type activityRule struct {
	interest string
	aliases  []string
	title    string
	detail   string
}

var activityRules = []activityRule{
	{"culture", []string{"museum", "museums", "history", "historic"}, "Old town and museums", "Walk the historic centre of %s and visit its main museum."},
	{"food", []string{"cuisine", "restaurants", "gastronomy", "eating"}, "Food tour", "Try the local market and a tasting menu in %s."},
	{"beach", []string{"beaches", "sea", "swimming"}, "Beach day", "Spend a day at the best-rated beach near %s."},
	{"nature", []string{"hiking", "outdoors", "parks", "mountains"}, "Day hike", "Take a guided hike or park visit around %s."},
	{"nightlife", []string{"bars", "clubs", "music"}, "Evening out", "Catch live music or a rooftop bar in %s."},
	{"shopping", []string{"markets", "fashion"}, "Shopping streets", "Browse the main shopping district of %s."},
	{"art", []string{"galleries", "design"}, "Gallery afternoon", "Visit contemporary galleries in %s."},
	{"family", []string{"kids", "children"}, "Family outing", "Visit the zoo, aquarium or theme park near %s."},
}

var defaultInterests = []string{"culture", "food"}

// Activities returns suggestions for the destination from the static rule
// table, filtered by interests. No interests yields the default pair.
func Activities(destination string, interests []string) []models.Activity {
	wanted := lo.Uniq(lo.FilterMap(interests, func(s string, _ int) (string, bool) {
		s = strings.ToLower(strings.TrimSpace(s))
		return s, s != ""
	}))
	if len(wanted) == 0 {
		wanted = defaultInterests
	}

	matched := lo.Filter(activityRules, func(r activityRule, _ int) bool {
		return lo.Contains(wanted, r.interest) || lo.Some(wanted, r.aliases)
	})
	return lo.Map(matched, func(r activityRule, _ int) models.Activity {
		return models.Activity{Interest: r.interest, Title: r.title, Description: fmt.Sprintf(r.detail, destination)}
	})
}
