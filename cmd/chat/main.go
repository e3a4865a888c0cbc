package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Nour-MZ/Nomada/internal/app"
	"github.com/Nour-MZ/Nomada/internal/config"
	"github.com/Nour-MZ/Nomada/internal/models"
)

type turnFunc func(ctx context.Context, sessionID, email, message string) (string, models.OutboundMessage)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var email, sessionID string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "nomada-chat",
		Short: "Talk to the Nomada travel assistant from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := log.New(io.Discard, "", 0)
			if verbose {
				logger = log.New(cmd.ErrOrStderr(), "nomada ", log.LstdFlags)
			}
			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			return repl(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), sessionID, email, a.Agent.HandleTurn)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email used for bookings and confirmations")
	cmd.Flags().StringVar(&sessionID, "session", "", "resume a session id (default: a new one)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log provider and booking activity to stderr")
	return cmd
}

// repl reads one message per line until EOF, "quit" or "exit".
func repl(ctx context.Context, in io.Reader, out io.Writer, sessionID, email string, turn turnFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	fmt.Fprintf(out, "Nomada travel assistant (session %s). Type quit to leave.\n", sessionID)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			fmt.Fprintln(out, "Goodbye.")
			return nil
		}

		var reply models.OutboundMessage
		sessionID, reply = turn(ctx, sessionID, email, line)
		fmt.Fprintf(out, "nomada> %s\n", reply.Text)
	}
}
