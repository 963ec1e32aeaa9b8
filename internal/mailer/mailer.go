// Package mailer delivers rendered emails through the configured transport.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"norwegianopen/internal/config"
)

var ErrNoRecipients = errors.New("mailer: message has no recipients")

// Message is one outgoing email. Bcc recipients are hidden from each other.
type Message struct {
	To      []string
	Bcc     []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

func (m Message) HasRecipients() bool { return len(m.To) > 0 || len(m.Bcc) > 0 }
func (m Message) HasContent() bool    { return m.HTML != "" || m.Text != "" }

// Sender is any transport that can deliver a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the Sender selected by cfg.Provider.
func New(cfg config.MailConfig, logger *slog.Logger) (Sender, error) {
	from := mail.Address{Name: cfg.FromName, Address: cfg.FromAddress}

	switch cfg.Provider {
	case "smtp":
		return NewSMTPSender(cfg.Host, cfg.Port, cfg.Username, cfg.Password, from)
	case "sendgrid":
		if cfg.SendgridAPIKey == "" {
			return nil, errors.New("mailer: SENDGRID_API_KEY is required for the sendgrid provider")
		}
		return NewSendgridSender(cfg.SendgridAPIKey, from), nil
	case "console", "":
		return NewConsoleSender(logger, from), nil
	}
	return nil, fmt.Errorf("mailer: unknown provider %q", cfg.Provider)
}

// Batches splits recipients into chunks of at most size.
func Batches(recipients []string, size int) [][]string {
	if size <= 0 {
		size = len(recipients)
	}
	var batches [][]string
	for start := 0; start < len(recipients); start += size {
		end := min(start+size, len(recipients))
		batches = append(batches, recipients[start:end])
	}
	return batches
}

func validate(msg Message) error {
	if !msg.HasRecipients() {
		return ErrNoRecipients
	}
	if !msg.HasContent() {
		return errors.New("mailer: message has no content")
	}
	return nil
}
