package mailer

import (
	"context"
	"log/slog"
	"net/mail"
	"sync"
)

// ConsoleSender logs messages instead of delivering them and keeps a copy of
// each one, for development and tests.
type ConsoleSender struct {
	logger *slog.Logger
	from   mail.Address

	mu   sync.Mutex
	sent []Message
	// Fail, when set, is returned for every send after the message is validated.
	Fail error
}

var _ Sender = (*ConsoleSender)(nil)

func NewConsoleSender(logger *slog.Logger, from mail.Address) *ConsoleSender {
	return &ConsoleSender{logger: logger, from: from}
}

func (s *ConsoleSender) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	s.sent = append(s.sent, msg)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "Email sent to console",
			"from", s.from.String(),
			"to", msg.To,
			"bcc_count", len(msg.Bcc),
			"subject", msg.Subject)
	}
	return nil
}

// Sent returns a copy of every message sent so far.
func (s *ConsoleSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}

func (s *ConsoleSender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
	s.Fail = nil
}
