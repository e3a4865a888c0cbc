package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strconv"

	"github.com/domodwyer/mailyak/v3"

	"github.com/Nour-MZ/Nomada/internal/models"
)

var ErrNoRecipients = errors.New("confirmation has no recipients")

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Configured reports whether every setting needed to send is present.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Port > 0 && c.User != "" && c.Pass != "" && c.From != ""
}

// SMTPSink sends confirmations with STARTTLS and PLAIN auth.
type SMTPSink struct {
	cfg    SMTPConfig
	logger *log.Logger
	send   func(*mailyak.MailYak) error
}

func NewSMTPSink(cfg SMTPConfig, logger *log.Logger) *SMTPSink {
	if logger == nil {
		logger = log.Default()
	}
	return &SMTPSink{
		cfg:    cfg,
		logger: logger,
		send:   func(m *mailyak.MailYak) error { return m.Send() },
	}
}

func (s *SMTPSink) message(c models.BookingConfirmation) *mailyak.MailYak {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	m := mailyak.New(addr, smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host))
	m.From(s.cfg.From)
	m.FromName("Nomada")
	m.To(c.Recipients()...)
	m.Subject(Subject(c))
	m.Plain().Set(Body(c))
	return m
}

func (s *SMTPSink) SendBookingConfirmation(ctx context.Context, c models.BookingConfirmation) error {
	if !s.cfg.Configured() {
		s.logger.Printf("email not sent: smtp not configured reference=%s", c.Reference)
		return nil
	}
	recipients := c.Recipients()
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	m := s.message(c)
	done := make(chan error, 1)
	go func() { done <- s.send(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send booking email: %w", err)
		}
		s.logger.Printf("booking email sent reference=%s recipients=%d", c.Reference, len(recipients))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to send booking email: %w", ctx.Err())
	}
}

// LogSink writes confirmations to the log instead of sending them.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) SendBookingConfirmation(_ context.Context, c models.BookingConfirmation) error {
	s.logger.Printf("booking confirmation type=%s reference=%s recipients=%v subject=%q",
		c.Type, c.Reference, c.Recipients(), Subject(c))
	return nil
}
