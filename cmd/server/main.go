package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nour-MZ/Nomada/internal/app"
	"github.com/Nour-MZ/Nomada/internal/config"
	"github.com/Nour-MZ/Nomada/internal/handlers"
	"github.com/Nour-MZ/Nomada/internal/router"
	"github.com/Nour-MZ/Nomada/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := log.New(os.Stderr, "nomada ", log.LstdFlags)
	a, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	// Initialize services
	svc := service.NewService(service.Deps{
		Conversation: a.Agent,
		Sessions:     a.Agent.Sessions(),
		Store:        a.Repo,
		Flights:      a.Flights,
		Events:       a.Hub,
	})

	// Initialize handlers
	h := handlers.NewHandler(svc)

	// Create router
	r := router.SetupRouter(h, router.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        a.Metrics.Handler(),
		BookingEvents:  a.Hub.HandleWebSocket,
	})

	// Create HTTP server. Booking turns wait on provider orders, so the
	// write timeout is longer than the slowest provider call.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("API Server starting on port %s", cfg.Port)
		log.Printf("Database driver %s, notifications via %s", cfg.DBDriver, cfg.NotificationMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	a.Close(ctx)

	log.Println("Server stopped")
}
