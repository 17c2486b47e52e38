// Package mail sends outbound email over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/validation"

	"gopkg.in/gomail.v2"
)

// ErrBadHeader is returned when a header value contains a line break.
var ErrBadHeader = errors.New("header values must not contain newlines")

// Message is a plain-text email.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Build converts msg to a gomail message, rejecting header injection.
func Build(msg Message) (*gomail.Message, error) {
	headers := append([]string{msg.From, msg.Subject}, msg.To...)
	for _, h := range headers {
		if validation.HasHeaderBreak(h) {
			return nil, ErrBadHeader
		}
	}
	if len(msg.To) == 0 {
		return nil, errors.New("message has no recipients")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return m, nil
}

// dialer is the part of *gomail.Dialer SMTPSender needs.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers through an SMTP relay.
type SMTPSender struct {
	dialer dialer
}

// NewSMTPSender returns a sender for host:port with optional credentials.
func NewSMTPSender(host string, port int, user, password string) *SMTPSender {
	return &SMTPSender{dialer: gomail.NewDialer(host, port, user, password)}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := Build(msg)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	middleware.Logger.InfoContext(ctx, "mail sent", slog.Int("recipients", len(msg.To)))
	return nil
}

// LogSender writes messages to the application log instead of sending them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	if _, err := Build(msg); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "mail not sent, SMTP disabled",
		slog.String("from", msg.From),
		slog.Any("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// NewSender returns an SMTP sender when SMTP_HOST is configured, otherwise a LogSender.
func NewSender(cfg *config.Config) Sender {
	if cfg == nil || cfg.SMTPHost == "" {
		return LogSender{}
	}
	return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
}
