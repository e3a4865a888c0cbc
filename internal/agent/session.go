package agent

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Nour-MZ/Nomada/internal/models"
)

// Stage is the position of a session in the flight booking flow.
type Stage string

const (
	StageIdle                    Stage = "idle"
	StageSearching               Stage = "searching"
	StageOfferSelected           Stage = "offer_selected"
	StagePassengerTemplateIssued Stage = "passenger_template_issued"
	StagePassengersComplete      Stage = "passengers_complete"
	StageOrderCreated            Stage = "order_created"
	StagePaymentCreated          Stage = "payment_created"
	StageChangeRequested         Stage = "change_requested"
	StageChangeConfirmed         Stage = "change_confirmed"
	StageCancellationRequested   Stage = "cancellation_requested"
	StageCancellationConfirmed   Stage = "cancellation_confirmed"
)

// Session is the per-conversation state. Turns of one session are handled
// one at a time under mu.
type Session struct {
	ID string

	mu            sync.Mutex
	history       []models.Turn
	stage         Stage
	email         string
	selectedOffer string
	orderID       string
	tripPlan      *models.TripPlanContext
	lastActive    time.Time
}

func (s *Session) append(role models.Role, text string) {
	s.history = append(s.history, models.Turn{Role: role, Text: text})
}

// tail returns at most n of the most recent turns.
func (s *Session) tail(n int) []models.Turn {
	if n <= 0 || len(s.history) <= n {
		return append([]models.Turn(nil), s.history...)
	}
	return append([]models.Turn(nil), s.history[len(s.history)-n:]...)
}

// Snapshot is a read-only copy of a session for callers outside a turn.
type Snapshot struct {
	ID       string                  `json:"session_id"`
	Stage    Stage                   `json:"stage"`
	Email    string                  `json:"email,omitempty"`
	OrderID  string                  `json:"order_id,omitempty"`
	Turns    int                     `json:"turns"`
	TripPlan *models.TripPlanContext `json:"trip_plan,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{ID: s.ID, Stage: s.stage, Email: s.email, OrderID: s.orderID, Turns: len(s.history)}
	if s.tripPlan != nil {
		plan := *s.tripPlan
		snap.TripPlan = &plan
	}
	return snap
}

// Registry maps session ids to sessions. Sessions share nothing else.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session), now: time.Now}
}

// Get returns the session for id, creating it when absent. An empty id
// starts a new session with a generated id.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	}
	s, ok := r.sessions[id]
	if !ok {
		s = &Session{ID: id, stage: StageIdle}
		r.sessions[id] = s
	}
	s.lastActive = r.now()
	return s
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Prune drops sessions idle for longer than idle and returns how many were
// removed.
func (r *Registry) Prune(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-idle)
	removed := 0
	for id, s := range r.sessions {
		if s.lastActive.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
