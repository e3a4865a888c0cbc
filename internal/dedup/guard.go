// Package dedup rejects repeated order submissions for the same offer
// within a time window.
package dedup

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Nour-MZ/Nomada/internal/models"
)

// DefaultWindow is how long a submitted offer stays blocked.
const DefaultWindow = 120 * time.Second

// Guard remembers recently submitted offer ids. An entry is reserved before
// the provider is called and expires on its own; it is removed early only
// when the provider definitely rejected the submission.
type Guard struct {
	window  time.Duration
	entries *cache.Cache

	// KeepOnError decides whether a failed submission still blocks the
	// offer, e.g. when the provider may have created the order anyway.
	KeepOnError func(error) bool
}

// New creates a guard with the given window, or DefaultWindow if zero.
func New(window time.Duration) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Guard{
		window:  window,
		entries: cache.New(window, 2*window),
	}
}

// Window returns the dedup window.
func (g *Guard) Window() time.Duration {
	return g.window
}

// Submit runs submit unless offerID was submitted within the window, in
// which case it returns a *models.DuplicateSubmission without calling it.
// The offer is reserved atomically before submit runs, so concurrent
// submissions of the same offer reach submit at most once while different
// offers never wait on each other.
func (g *Guard) Submit(offerID string, submit func() error) error {
	if err := g.entries.Add(offerID, time.Now(), cache.DefaultExpiration); err != nil {
		return &models.DuplicateSubmission{OfferID: offerID}
	}

	err := submit()
	if err != nil && (g.KeepOnError == nil || !g.KeepOnError(err)) {
		g.entries.Delete(offerID)
	}
	return err
}

// SubmittedAt reports when offerID was last submitted, if still inside
// the window. A submission still in flight counts as submitted.
func (g *Guard) SubmittedAt(offerID string) (time.Time, bool) {
	v, found := g.entries.Get(offerID)
	if !found {
		return time.Time{}, false
	}
	return v.(time.Time), true
}

