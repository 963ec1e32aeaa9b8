package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"norwegianopen/internal/alert"
	"norwegianopen/internal/mailer"
	"norwegianopen/internal/notification"
	"norwegianopen/internal/pricing"
	"norwegianopen/internal/repository"
	"norwegianopen/internal/validator"
)

var (
	ErrRegistrationClosed = errors.New("registration is not open yet")
	ErrUserIDExhausted    = errors.New("could not generate a unique registration id")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAdmin           = errors.New("Access Denied. You are not an authorized administrator.")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrContactFailed      = errors.New("There was an issue sending your message. Please try again later.")
	ErrInvalidStatus      = errors.New("invalid status")
)

// Metrics counts domain events. monitoring.Telemetry satisfies it.
type Metrics interface {
	RecordRegistration(ctx context.Context, level string, success bool)
	RecordHotelBooking(ctx context.Context, option string, success bool)
	RecordEmail(ctx context.Context, kind string, success bool)
}

type nopMetrics struct{}

func (nopMetrics) RecordRegistration(context.Context, string, bool) {}
func (nopMetrics) RecordHotelBooking(context.Context, string, bool) {}
func (nopMetrics) RecordEmail(context.Context, string, bool)        {}

// Deps are the collaborators shared by the services.
type Deps struct {
	Repo      repository.Repository
	Table     *pricing.Table
	Validator *validator.Validator
	Renderer  *notification.Renderer
	Mailer    mailer.Sender
	Alerts    alert.Notifier
	Metrics   Metrics
	Logger    *slog.Logger
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Table == nil {
		d.Table = pricing.DefaultTable()
	}
	if d.Validator == nil {
		d.Validator = validator.New()
	}
	if d.Alerts == nil {
		d.Alerts = alert.Nop{}
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// notifier renders and sends transactional emails. Failures are logged and
// reported to the caller as false, never as errors.
type notifier struct {
	renderer *notification.Renderer
	mailer   mailer.Sender
	metrics  Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func newNotifier(d Deps) notifier {
	return notifier{renderer: d.Renderer, mailer: d.Mailer, metrics: d.Metrics, logger: d.Logger, now: d.Now}
}

func (n notifier) send(ctx context.Context, kind notification.Kind, record any, msg mailer.Message) bool {
	if n.renderer == nil || n.mailer == nil {
		n.logger.WarnContext(ctx, "Email not sent, mail is not configured", "kind", kind)
		return false
	}

	email, err := n.renderer.Render(kind, record, n.now())
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to render email", "kind", kind, "error", err)
		n.metrics.RecordEmail(ctx, string(kind), false)
		return false
	}
	msg.Subject = email.Subject
	msg.HTML = email.HTML
	msg.Text = email.Text

	if err := n.mailer.Send(ctx, msg); err != nil {
		n.logger.ErrorContext(ctx, "Failed to send email", "kind", kind, "to", msg.To, "error", err)
		n.metrics.RecordEmail(ctx, string(kind), false)
		return false
	}
	n.metrics.RecordEmail(ctx, string(kind), true)
	return true
}

func (n notifier) alert(ctx context.Context, alerts alert.Notifier, text string) {
	if err := alerts.Notify(ctx, text); err != nil {
		n.logger.ErrorContext(ctx, "Failed to send organiser alert", "error", err)
	}
}
