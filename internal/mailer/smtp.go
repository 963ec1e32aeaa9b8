package mailer

import (
	"context"
	"fmt"
	"net/mail"

	gomail "github.com/wneessen/go-mail"
)

type SMTPSender struct {
	client *gomail.Client
	from   mail.Address
}

var _ Sender = (*SMTPSender)(nil)

// NewSMTPSender authenticates against the relay with PLAIN auth over STARTTLS.
func NewSMTPSender(host string, port int, username, password string, from mail.Address) (*SMTPSender, error) {
	client, err := gomail.NewClient(host,
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(username),
		gomail.WithPassword(password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("mailer: failed to create smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: from}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	m := gomail.NewMsg()
	if err := m.FromFormat(s.from.Name, s.from.Address); err != nil {
		return fmt.Errorf("mailer: invalid from address: %w", err)
	}
	if len(msg.To) > 0 {
		if err := m.To(msg.To...); err != nil {
			return fmt.Errorf("mailer: invalid to address: %w", err)
		}
	}
	if len(msg.Bcc) > 0 {
		if err := m.Bcc(msg.Bcc...); err != nil {
			return fmt.Errorf("mailer: invalid bcc address: %w", err)
		}
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return fmt.Errorf("mailer: invalid reply-to address: %w", err)
		}
	}
	m.Subject(msg.Subject)

	switch {
	case msg.HTML != "" && msg.Text != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
		m.AddAlternativeString(gomail.TypeTextPlain, msg.Text)
	case msg.HTML != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	default:
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	}

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mailer: failed to send %q: %w", msg.Subject, err)
	}
	return nil
}
