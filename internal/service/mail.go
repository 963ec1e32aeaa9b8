package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"slices"
	"strings"

	"norwegianopen/internal/mailer"
	"norwegianopen/internal/model"
	"norwegianopen/internal/notification"
	"norwegianopen/internal/pricing"
	"norwegianopen/internal/repository"
	"norwegianopen/internal/validator"
)

const defaultBatchSize = 50

type MailSettings struct {
	// Organiser receives contact form messages.
	Organiser string
	// TestRecipients receive mass mails sent without any selection.
	TestRecipients []string
	BatchSize      int
}

type MailService struct {
	deps     Deps
	settings MailSettings
	notifier notifier
}

func NewMailService(deps Deps, settings MailSettings) *MailService {
	deps = deps.withDefaults()
	if settings.BatchSize <= 0 {
		settings.BatchSize = defaultBatchSize
	}
	return &MailService{deps: deps, settings: settings, notifier: newNotifier(deps)}
}

// Audience is the data behind the mass mail form.
type Audience struct {
	Registrations []model.Registration       `json:"registrations"`
	Statuses      []model.RegistrationStatus `json:"statuses"`
	Levels        []pricing.Level            `json:"levels"`
	PassOptions   []pricing.PassOption       `json:"pass_options"`
	MailList      []model.MailListEntry      `json:"mail_list"`
}

// Audience lists the possible recipients together with the distinct values
// they can be filtered by.
func (s *MailService) Audience(ctx context.Context) (Audience, error) {
	registrations, err := s.deps.Repo.ListRegistrations(ctx, repository.ListRegistrationsParams{Order: repository.OrderByDESC})
	if err != nil {
		return Audience{}, fmt.Errorf("failed to list registrations: %w", err)
	}
	mailList, err := s.deps.Repo.ListMailList(ctx)
	if err != nil {
		return Audience{}, fmt.Errorf("failed to list mail list: %w", err)
	}

	audience := Audience{Registrations: registrations, MailList: mailList}
	for _, r := range registrations {
		if !slices.Contains(audience.Statuses, r.Status) {
			audience.Statuses = append(audience.Statuses, r.Status)
		}
		if !slices.Contains(audience.Levels, r.Level) {
			audience.Levels = append(audience.Levels, r.Level)
		}
		if !slices.Contains(audience.PassOptions, r.PassOption) {
			audience.PassOptions = append(audience.PassOptions, r.PassOption)
		}
	}
	slices.Sort(audience.Statuses)
	slices.Sort(audience.Levels)
	slices.Sort(audience.PassOptions)
	return audience, nil
}

// MassMail is an ad hoc email to a selection of registrants. Explicit Emails win
// over the Filter; with neither set the mail goes to the test recipients.
type MassMail struct {
	Subject string                    `json:"subject"`
	Body    string                    `json:"body"`
	Emails  []string                  `json:"emails"`
	Filter  *model.RegistrationFilter `json:"filter"`
}

// MassMailResult counts recipients, not batches.
type MassMailResult struct {
	Recipients int  `json:"recipients"`
	Sent       int  `json:"sent"`
	Failed     int  `json:"failed"`
	Batches    int  `json:"batches"`
	TestMode   bool `json:"test_mode"`
}

// SendMass delivers msg in BCC batches. A failing batch is logged and skipped.
func (s *MailService) SendMass(ctx context.Context, msg MassMail) (MassMailResult, error) {
	var rejections validator.Rejections
	if strings.TrimSpace(msg.Subject) == "" {
		rejections.Add("Subject", "Subject is required.")
	}
	if strings.TrimSpace(msg.Body) == "" {
		rejections.Add("Body", "Message is required.")
	}
	if len(rejections) > 0 {
		return MassMailResult{}, rejections
	}
	if s.deps.Mailer == nil {
		return MassMailResult{}, errors.New("mail is not configured")
	}

	candidates, testMode, err := s.recipients(ctx, msg)
	if err != nil {
		return MassMailResult{}, err
	}
	result := MassMailResult{Recipients: len(candidates), TestMode: testMode}

	// One unparsable address fails a whole batch at the transport, so it is dropped here.
	recipients := make([]string, 0, len(candidates))
	for _, email := range candidates {
		if !validator.IsEmail(email) {
			s.deps.Logger.WarnContext(ctx, "Skipping invalid mass mail recipient", "email", email)
			s.deps.Metrics.RecordEmail(ctx, "mass-mail", false)
			result.Failed++
			continue
		}
		recipients = append(recipients, email)
	}
	if len(recipients) == 0 {
		return result, nil
	}

	body := bodyHTML(msg.Body)
	for _, batch := range mailer.Batches(recipients, s.settings.BatchSize) {
		result.Batches++
		err := s.deps.Mailer.Send(ctx, mailer.Message{
			Bcc:     batch,
			ReplyTo: s.settings.Organiser,
			Subject: msg.Subject,
			HTML:    body,
			Text:    msg.Body,
		})
		if err != nil {
			s.deps.Logger.ErrorContext(ctx, "Failed to send mass mail batch", "batch", result.Batches, "size", len(batch), "error", err)
			s.deps.Metrics.RecordEmail(ctx, "mass-mail", false)
			result.Failed += len(batch)
			continue
		}
		s.deps.Metrics.RecordEmail(ctx, "mass-mail", true)
		result.Sent += len(batch)
	}

	s.deps.Logger.InfoContext(ctx, "Mass mail sent",
		"recipients", result.Recipients, "sent", result.Sent, "failed", result.Failed, "test_mode", testMode)
	return result, nil
}

func (s *MassMail) normalizedEmails() []string {
	var emails []string
	for _, e := range s.Emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !slices.Contains(emails, e) {
			emails = append(emails, e)
		}
	}
	return emails
}

func (s *MailService) recipients(ctx context.Context, msg MassMail) ([]string, bool, error) {
	if emails := msg.normalizedEmails(); len(emails) > 0 {
		return emails, false, nil
	}

	if msg.Filter != nil {
		registrations, err := s.deps.Repo.ListRegistrations(ctx, repository.ListRegistrationsParams{
			Filter: *msg.Filter,
			Order:  repository.OrderByASC,
		})
		if err != nil {
			return nil, false, fmt.Errorf("failed to list recipients: %w", err)
		}
		var emails []string
		for _, r := range registrations {
			e := strings.ToLower(strings.TrimSpace(r.Email))
			if e != "" && !slices.Contains(emails, e) {
				emails = append(emails, e)
			}
		}
		if len(emails) > 0 {
			return emails, false, nil
		}
	}

	return slices.Clone(s.settings.TestRecipients), true, nil
}

// bodyHTML turns a plain text body into paragraphs.
func bodyHTML(body string) string {
	var b strings.Builder
	for _, paragraph := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(paragraph), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

// ContactInput is the public contact form.
type ContactInput struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Subject string `json:"subject" form:"subject"`
	Message string `json:"message" form:"message"`
}

// Contact forwards a contact form message to the organiser with the sender as
// Reply-To.
func (s *MailService) Contact(ctx context.Context, in ContactInput) error {
	msg := model.ContactMessage{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}
	if msg.Name == "" || msg.Email == "" || msg.Subject == "" || msg.Message == "" {
		return validator.Rejections{{Field: "", Reason: "All fields are required."}}
	}
	if !validator.IsEmail(msg.Email) {
		return validator.Rejections{{Field: "Email", Reason: "Please enter a valid email address."}}
	}

	sent := s.notifier.send(ctx, notification.KindContactMessage, msg, mailer.Message{
		To:      []string{s.settings.Organiser},
		ReplyTo: msg.Email,
	})
	if !sent {
		return ErrContactFailed
	}
	return nil
}

// JoinMailList adds email to the mailing list. Joining twice is not an error;
// the boolean reports whether the address was new.
func (s *MailService) JoinMailList(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, validator.Rejections{{Field: "Email", Reason: "Email is required."}}
	}
	if !validator.IsEmail(email) {
		return false, validator.Rejections{{Field: "Email", Reason: "Please enter a valid email address."}}
	}

	_, created, err := s.deps.Repo.AddMailListEntry(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to join mail list: %w", err)
	}
	return created, nil
}
