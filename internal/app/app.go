// Package app wires configuration into the running assistant. The server
// and the chat REPL share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/Nour-MZ/Nomada/internal/agent"
	"github.com/Nour-MZ/Nomada/internal/config"
	"github.com/Nour-MZ/Nomada/internal/database"
	"github.com/Nour-MZ/Nomada/internal/dedup"
	"github.com/Nour-MZ/Nomada/internal/metrics"
	"github.com/Nour-MZ/Nomada/internal/notify"
	"github.com/Nour-MZ/Nomada/internal/oracle"
	"github.com/Nour-MZ/Nomada/internal/provider"
	"github.com/Nour-MZ/Nomada/internal/provider/duffel"
	"github.com/Nour-MZ/Nomada/internal/provider/hotelbeds"
	"github.com/Nour-MZ/Nomada/internal/websocket"
)

const pruneInterval = time.Minute

// App holds the long-lived collaborators of one process.
type App struct {
	Config  *config.Config
	Repo    *database.Repository
	Metrics *metrics.Manager
	Flights *duffel.Client
	Hotels  *hotelbeds.Client
	Hub     *websocket.Hub
	Agent   *agent.Agent

	temporal client.Client
	stop     chan struct{}
	logger   *log.Logger
}

// New opens the database, builds the provider adapters and the oracle,
// selects the notification sink and starts the booking event hub.
func New(cfg *config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}

	repo, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	m, err := metrics.New()
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	a := &App{
		Config:  cfg,
		Repo:    repo,
		Metrics: m,
		Hub:     websocket.NewHub(),
		stop:    make(chan struct{}),
		logger:  logger,
	}

	providerOpts := []provider.Option{
		provider.WithLogger(logger),
		provider.WithObserver(m),
		provider.WithRateLimit(cfg.ProviderRPS),
	}
	a.Flights = duffel.New(cfg.DuffelToken, cfg.DuffelBaseURL, providerOpts...)
	a.Hotels = hotelbeds.New(cfg.HotelbedsAPIKey, cfg.HotelbedsSecret, cfg.HotelbedsBaseURL, providerOpts...)
	tokenizer := duffel.NewTokenizer(cfg.DuffelToken, cfg.CardsBaseURL, providerOpts...)

	sink, err := a.notifier()
	if err != nil {
		a.Close(context.Background())
		return nil, err
	}

	a.Agent = agent.New(agent.Deps{
		Flights:   a.Flights,
		Hotels:    a.Hotels,
		Oracle:    oracle.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, oracle.WithLogger(logger)),
		Bookings:  repo,
		Cache:     repo,
		Payments:  repo,
		Users:     repo,
		Notifier:  sink,
		Events:    a.Hub,
		Tokenizer: tokenizer,
		Metrics:   m,
	},
		agent.WithLogger(logger),
		agent.WithHistoryTurns(cfg.HistoryTurns),
		agent.WithDedupGuard(dedup.New(cfg.DedupWindow)),
	)

	go a.Hub.Run(a.stop)
	go a.pruneSessions()
	return a, nil
}

func (a *App) notifier() (agent.NotificationSink, error) {
	cfg := a.Config
	switch cfg.NotificationMode {
	case "temporal":
		c, err := client.Dial(client.Options{HostPort: cfg.TemporalHost})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to temporal: %w", err)
		}
		a.temporal = c
		a.logger.Printf("notifications via temporal host=%s queue=%s", cfg.TemporalHost, cfg.TaskQueue)
		return notify.NewTemporalSink(c, cfg.TaskQueue, a.logger), nil
	case "smtp":
		a.logger.Printf("notifications via smtp host=%s", cfg.SMTPHost)
		return notify.NewSMTPSink(SMTPConfig(cfg), a.logger), nil
	default:
		return notify.NewLogSink(a.logger), nil
	}
}

// SMTPConfig extracts the mail settings from cfg.
func SMTPConfig(cfg *config.Config) notify.SMTPConfig {
	return notify.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	}
}

func (a *App) pruneSessions() {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			if n := a.Agent.Sessions().Prune(a.Config.SessionIdleLimit); n > 0 {
				a.logger.Printf("sessions pruned count=%d remaining=%d", n, a.Agent.Sessions().Len())
			}
		}
	}
}

// Close stops background work and releases connections.
func (a *App) Close(ctx context.Context) {
	select {
	case <-a.stop:
		return
	default:
		close(a.stop)
	}
	if a.temporal != nil {
		a.temporal.Close()
	}
	if err := a.Metrics.Shutdown(ctx); err != nil {
		a.logger.Printf("metrics shutdown failed err=%v", err)
	}
	if err := a.Repo.Close(); err != nil {
		a.logger.Printf("database close failed err=%v", err)
	}
}
