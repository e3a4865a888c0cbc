package oracle

import (
	"context"
	"fmt"
	"sync"

	"github.com/Nour-MZ/Nomada/internal/models"
)

// MockOracle is a scripted oracle for tests and offline runs.
type MockOracle struct {
	// DecideFunc is called when Decide is invoked.
	// If nil, the latest user turn is echoed as a direct answer.
	DecideFunc func(ctx context.Context, history []models.Turn) (models.Decision, error)

	// NarrateFunc is called when Narrate is invoked.
	// If nil, a short summary naming the tool is returned.
	NarrateFunc func(ctx context.Context, n Narration) (string, error)

	mu           sync.Mutex
	DecideCalls  int
	NarrateCalls int
	LastHistory  []models.Turn
	LastNarrated *Narration
}

// Decisions returns a DecideFunc that replays the given decisions in order
// and answers "done" once they run out.
func Decisions(decisions ...models.Decision) func(context.Context, []models.Turn) (models.Decision, error) {
	var mu sync.Mutex
	next := 0
	return func(context.Context, []models.Turn) (models.Decision, error) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(decisions) {
			return models.DirectAnswer("done"), nil
		}
		d := decisions[next]
		next++
		return d, nil
	}
}

func (m *MockOracle) Decide(ctx context.Context, history []models.Turn, _ string) (models.Decision, error) {
	m.mu.Lock()
	m.DecideCalls++
	m.LastHistory = append([]models.Turn(nil), history...)
	m.mu.Unlock()

	if m.DecideFunc != nil {
		return m.DecideFunc(ctx, history)
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleUser {
			return models.DirectAnswer("You said: " + history[i].Text), nil
		}
	}
	return models.DirectAnswer("How can I help with your trip?"), nil
}

func (m *MockOracle) Narrate(ctx context.Context, n Narration) (string, error) {
	m.mu.Lock()
	m.NarrateCalls++
	copied := n
	m.LastNarrated = &copied
	m.mu.Unlock()

	if m.NarrateFunc != nil {
		return m.NarrateFunc(ctx, n)
	}
	return fmt.Sprintf("Here is the result of %s.", n.Tool), nil
}
