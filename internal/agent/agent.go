// Package agent runs the conversational booking loop: it keeps per-session
// state, asks the oracle what to do with each message, normalizes tool
// arguments and drives the flight and hotel providers.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/Nour-MZ/Nomada/internal/catalog"
	"github.com/Nour-MZ/Nomada/internal/dedup"
	"github.com/Nour-MZ/Nomada/internal/models"
	"github.com/Nour-MZ/Nomada/internal/normalize"
	"github.com/Nour-MZ/Nomada/internal/oracle"
	"github.com/Nour-MZ/Nomada/internal/planner"
	"github.com/Nour-MZ/Nomada/internal/provider"
)

const (
	DefaultHistoryTurns = 25
	notifyTimeout       = 20 * time.Second
)

// Deps are the agent's collaborators. Payments, Users, Notifier, Events,
// Tokenizer and Metrics may be nil.
type Deps struct {
	Flights   FlightProvider
	Hotels    HotelProvider
	Oracle    Oracle
	Bookings  BookingStore
	Cache     SearchCache
	Payments  PaymentStore
	Users     UserDirectory
	Notifier  NotificationSink
	Events    EventPublisher
	Tokenizer normalize.Tokenizer
	Metrics   Metrics
}

// Agent handles conversation turns. It is safe for concurrent use across
// sessions; turns within one session are serialized.
type Agent struct {
	deps         Deps
	catalog      *catalog.Catalog
	planner      *planner.Planner
	guard        *dedup.Guard
	sessions     *Registry
	historyTurns int
	logger       *log.Logger
}

type Option func(*Agent)

func WithLogger(logger *log.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithHistoryTurns(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.historyTurns = n
		}
	}
}

func WithDedupGuard(g *dedup.Guard) Option {
	return func(a *Agent) {
		if g != nil {
			a.guard = g
		}
	}
}

func WithRegistry(r *Registry) Option {
	return func(a *Agent) {
		if r != nil {
			a.sessions = r
		}
	}
}

func New(deps Deps, opts ...Option) *Agent {
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	a := &Agent{
		deps:         deps,
		catalog:      catalog.Default(),
		planner:      planner.New(deps.Flights, deps.Hotels),
		guard:        dedup.New(dedup.DefaultWindow),
		sessions:     NewRegistry(),
		historyTurns: DefaultHistoryTurns,
		logger:       log.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.guard.KeepOnError == nil {
		a.guard.KeepOnError = provider.IsAmbiguous
	}
	return a
}

func (a *Agent) Sessions() *Registry {
	return a.sessions
}

func (a *Agent) Catalog() *catalog.Catalog {
	return a.catalog
}

// HandleTurn processes one user message and returns the session id used
// together with the reply. Every failure becomes a user-visible reply.
func (a *Agent) HandleTurn(ctx context.Context, sessionID, email, message string) (string, models.OutboundMessage) {
	s := a.sessions.Get(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if email = strings.TrimSpace(email); email != "" {
		s.email = strings.ToLower(email)
	}

	out := a.turn(ctx, s, strings.TrimSpace(message))
	a.deps.Metrics.TurnHandled(ctx, string(out.Kind))
	return s.ID, out
}

func (a *Agent) turn(ctx context.Context, s *Session, message string) models.OutboundMessage {
	if message == "" {
		return models.OutboundMessage{Kind: models.OutboundText, Text: "Tell me where and when you would like to travel."}
	}

	if tool, args, ok := fastPath(message); ok {
		scrubbed, _ := json.Marshal(normalize.StripCardData(args))
		display := fmt.Sprintf("[%s] %s", tool, scrubbed)
		s.append(models.RoleUser, display)
		return a.runTool(ctx, s, display, tool, args)
	}

	s.append(models.RoleUser, message)
	decision, err := a.deps.Oracle.Decide(ctx, s.tail(a.historyTurns), a.catalog.Prompt())
	if err != nil {
		a.logger.Printf("oracle decide failed session=%s err=%v", s.ID, err)
		text := "Sorry, I could not process that right now. Please try again in a moment."
		s.append(models.RoleAssistant, text)
		return models.OutboundMessage{Kind: models.OutboundError, Text: text}
	}

	if decision.Kind != models.DecisionToolCall {
		s.append(models.RoleAssistant, decision.Text)
		return models.OutboundMessage{Kind: models.OutboundText, Text: decision.Text}
	}
	return a.runTool(ctx, s, message, decision.Operation, decision.Arguments)
}

// fastPath recognizes structured JSON messages that bypass the oracle.
func fastPath(message string) (string, map[string]any, bool) {
	if !strings.HasPrefix(message, "{") {
		return "", nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(message), &obj); err != nil {
		return "", nil, false
	}

	if tool, ok := obj["tool"].(string); ok && tool != "" {
		args, _ := obj["args"].(map[string]any)
		if args == nil {
			args = map[string]any{}
		}
		return tool, args, true
	}
	if offerID, ok := obj["offer_id"].(string); ok && offerID != "" {
		if _, ok := obj["passengers"]; ok {
			return catalog.CreateOrder, obj, true
		}
	}
	if orderID, ok := obj["order_id"].(string); ok && orderID != "" && obj["cancel_booking"] == true {
		args := map[string]any{"order_id": orderID}
		if v, ok := obj["auto_confirm"]; ok {
			args["auto_confirm"] = v
		}
		return catalog.CancelOrder, args, true
	}
	return "", nil, false
}

// result is what a tool handler produces on success.
type result struct {
	// payload is rendered as JSON or handed to the oracle for narration.
	payload any
	// summary replaces the payload in the conversation history.
	summary string
	// confirmation is the deterministic reply for booking tools.
	confirmation string
	partial      bool
}

func (a *Agent) runTool(ctx context.Context, s *Session, userMessage, name string, args map[string]any) models.OutboundMessage {
	tool, ok := a.catalog.Lookup(name)
	if !ok {
		a.deps.Metrics.ToolCalled(ctx, name, "unknown")
		text := fmt.Sprintf("I tried to call an unknown tool '%s'. Please refine your request.", name)
		s.append(models.RoleAssistant, text)
		return models.OutboundMessage{Kind: models.OutboundError, Text: text, Tool: name}
	}

	// Provider side effects must complete even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	validated, err := a.catalog.Validate(name, args)
	var res result
	if err == nil {
		res, err = a.dispatch(ctx, s, name, validated)
	} else {
		validated = args
	}
	if err != nil {
		return a.failure(ctx, s, userMessage, tool, validated, err)
	}

	outcome := "ok"
	if res.partial {
		outcome = "partial"
	}
	a.deps.Metrics.ToolCalled(ctx, name, outcome)

	switch tool.Output {
	case catalog.OutputJSON:
		body, _ := json.MarshalIndent(res.payload, "", "  ")
		s.append(models.RoleAssistant, lo.CoalesceOrEmpty(res.summary, string(body)))
		return models.OutboundMessage{Kind: models.OutboundJSON, Text: string(body), Tool: name}
	case catalog.OutputConfirmation:
		s.append(models.RoleAssistant, res.confirmation)
		return models.OutboundMessage{Kind: models.OutboundConfirmation, Text: res.confirmation, Tool: name}
	}

	text := a.narrate(ctx, userMessage, tool, validated, res.payload)
	s.append(models.RoleAssistant, text)
	return models.OutboundMessage{Kind: models.OutboundText, Text: text, Tool: name}
}

func (a *Agent) dispatch(ctx context.Context, s *Session, name string, args map[string]any) (result, error) {
	switch name {
	case catalog.SearchFlights:
		return a.searchFlights(ctx, s, args)
	case catalog.SelectOffer:
		return a.selectOffer(ctx, s, args)
	case catalog.GetOffer:
		return a.getOffer(ctx, args)
	case catalog.CreateOrder:
		return a.createOrder(ctx, s, args)
	case catalog.CreatePayment:
		return a.createPayment(ctx, s, args)
	case catalog.GetOrder:
		return a.getOrder(ctx, args)
	case catalog.CancelOrder:
		return a.cancelOrder(ctx, s, args)
	case catalog.RequestOrderChange:
		return a.requestOrderChange(ctx, s, args)
	case catalog.ConfirmOrderChange:
		return a.confirmOrderChange(ctx, s, args)
	case catalog.SearchHotels:
		return a.searchHotels(ctx, s, args)
	case catalog.BookHotel:
		return a.bookHotel(ctx, s, args)
	case catalog.GetHotelBooking:
		return a.getHotelBooking(ctx, args)
	case catalog.CancelHotelBooking:
		return a.cancelHotelBooking(ctx, s, args)
	case catalog.PlanTrip:
		return a.planTrip(ctx, s, args)
	case catalog.BookTrip:
		return a.bookTrip(ctx, s, args)
	case catalog.ListBookings:
		return a.listBookings(ctx, s, args)
	}
	return result{}, &models.UnknownToolError{Name: name}
}

// failure turns a handler error into the turn's reply. Rejections that
// need no explanation are answered directly; everything else is narrated.
func (a *Agent) failure(ctx context.Context, s *Session, userMessage string, tool catalog.Tool, args map[string]any, err error) models.OutboundMessage {
	var (
		dup      *models.DuplicateSubmission
		rng      *models.SelectionOutOfRange
		unknown  *models.UnknownToolError
		vf       *models.ValidationFailure
		pf       *models.ProviderFailure
		tf       *models.TokenizationFailure
		nr       *models.NoResultsFailure
		payload  any
		category string
	)
	switch {
	case errors.As(err, &dup):
		a.deps.Metrics.DuplicateRejected(ctx)
		category = "duplicate"
	case errors.As(err, &rng):
		category = "out_of_range"
	case errors.As(err, &unknown):
		category = "unknown"
	case errors.As(err, &vf):
		category, payload = "validation", vf
	case errors.As(err, &pf):
		category, payload = "provider", pf
	case errors.As(err, &tf):
		category, payload = "tokenization", tf
	case errors.As(err, &nr):
		category, payload = "no_results", nr
	default:
		category, payload = "error", map[string]string{"error": err.Error()}
	}
	a.deps.Metrics.ToolCalled(ctx, tool.Name, category)
	a.logger.Printf("tool failed session=%s tool=%s category=%s err=%v", s.ID, tool.Name, category, err)

	text := err.Error()
	if payload != nil {
		text = a.narrateFailure(ctx, userMessage, tool, args, payload, err)
	}
	s.append(models.RoleAssistant, text)
	return models.OutboundMessage{Kind: models.OutboundError, Text: text, Tool: tool.Name}
}

func (a *Agent) narrate(ctx context.Context, userMessage string, tool catalog.Tool, args map[string]any, payload any) string {
	text, err := a.deps.Oracle.Narrate(ctx, oracle.Narration{
		UserMessage: userMessage,
		Tool:        tool.Name,
		Description: tool.Description,
		Args:        scrubArgs(args),
		Result:      payload,
	})
	if err != nil || strings.TrimSpace(text) == "" {
		a.logger.Printf("narration failed tool=%s err=%v", tool.Name, err)
		body, _ := json.MarshalIndent(payload, "", "  ")
		return fmt.Sprintf("Here is the result of %s:\n%s", tool.Name, body)
	}
	return text
}

func (a *Agent) narrateFailure(ctx context.Context, userMessage string, tool catalog.Tool, args map[string]any, payload any, cause error) string {
	text, err := a.deps.Oracle.Narrate(ctx, oracle.Narration{
		UserMessage: userMessage,
		Tool:        tool.Name,
		Description: tool.Description,
		Args:        scrubArgs(args),
		Result:      payload,
	})
	if err != nil || strings.TrimSpace(text) == "" {
		return cause.Error()
	}
	return text
}

func scrubArgs(args map[string]any) map[string]any {
	scrubbed, _ := normalize.StripCardData(args).(map[string]any)
	return scrubbed
}
