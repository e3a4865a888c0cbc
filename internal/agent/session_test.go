package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nour-MZ/Nomada/internal/models"
)

func TestRegistry_GetCreatesAndReuses(t *testing.T) {
	r := NewRegistry()

	s := r.Get("abc")
	again := r.Get("abc")

	assert.Same(t, s, again)
	assert.Equal(t, StageIdle, s.Snapshot().Stage)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_EmptyIDStartsNewSession(t *testing.T) {
	r := NewRegistry()

	a := r.Get("")
	b := r.Get("")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_LookupAndDelete(t *testing.T) {
	r := NewRegistry()
	r.Get("abc")

	_, ok := r.Lookup("missing")
	assert.False(t, ok)

	assert.True(t, r.Delete("abc"))
	assert.False(t, r.Delete("abc"))
	_, ok = r.Lookup("abc")
	assert.False(t, ok)
}

func TestRegistry_PruneIdle(t *testing.T) {
	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry()
	r.now = func() time.Time { return now }

	r.Get("old")
	now = now.Add(45 * time.Minute)
	r.Get("fresh")
	now = now.Add(20 * time.Minute)

	removed := r.Prune(time.Hour)

	assert.Equal(t, 1, removed)
	_, ok := r.Lookup("fresh")
	assert.True(t, ok)
	_, ok = r.Lookup("old")
	assert.False(t, ok)
}

func TestSession_Tail(t *testing.T) {
	s := &Session{ID: "s"}
	for i := 0; i < 5; i++ {
		s.append(models.RoleUser, string(rune('a'+i)))
	}

	tail := s.tail(3)
	require.Len(t, tail, 3)
	assert.Equal(t, "c", tail[0].Text)
	assert.Equal(t, "e", tail[2].Text)
	assert.Len(t, s.tail(0), 5)

	tail[0].Text = "changed"
	assert.Equal(t, "c", s.history[2].Text)
}

func TestSession_SnapshotCopiesTripPlan(t *testing.T) {
	s := &Session{ID: "s", tripPlan: &models.TripPlanContext{OfferID: "off_1"}}

	snap := s.Snapshot()
	snap.TripPlan.OfferID = "changed"

	assert.Equal(t, "off_1", s.tripPlan.OfferID)
}
