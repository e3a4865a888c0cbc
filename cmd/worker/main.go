package main

import (
	"log"
	"os"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Nour-MZ/Nomada/internal/activities"
	"github.com/Nour-MZ/Nomada/internal/app"
	"github.com/Nour-MZ/Nomada/internal/config"
	"github.com/Nour-MZ/Nomada/internal/models"
	"github.com/Nour-MZ/Nomada/internal/notify"
	"github.com/Nour-MZ/Nomada/internal/workflows"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	smtp := app.SMTPConfig(cfg)
	if !smtp.Configured() {
		log.Println("SMTP is not fully configured; confirmation emails will be logged and skipped")
	}

	// Connect to Temporal
	log.Printf("Connecting to Temporal at %s...", cfg.TemporalHost)
	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalHost,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Temporal: %v", err)
	}
	defer c.Close()
	log.Println("Connected to Temporal")

	// Create worker
	w := worker.New(c, cfg.TaskQueue, worker.Options{})

	// Register workflows
	w.RegisterWorkflowWithOptions(workflows.BookingConfirmationWorkflow, workflow.RegisterOptions{
		Name: models.WorkflowBookingConfirmation,
	})

	// Create and register activities
	acts := activities.New(notify.NewSMTPSink(smtp, log.New(os.Stderr, "nomada-worker ", log.LstdFlags)))
	w.RegisterActivityWithOptions(acts.SendBookingEmail, activity.RegisterOptions{Name: models.ActivitySendBookingEmail})

	// Start worker
	log.Printf("Starting Temporal worker on queue %s...", cfg.TaskQueue)
	err = w.Run(worker.InterruptCh())
	if err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}
