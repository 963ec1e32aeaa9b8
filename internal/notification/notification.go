// Package notification renders the emails sent to registrants and organisers.
// Rendering is a pure function of the kind, the record and the passed clock.
package notification

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmltmpl "html/template"
	"strconv"
	"strings"
	texttmpl "text/template"
	"time"

	"norwegianopen/internal/model"
	"norwegianopen/internal/pricing"
)

//go:embed templates/*
var templateFS embed.FS

// NotAvailable replaces any value missing from the record.
const NotAvailable = "N/A"

var (
	ErrUnknownKind       = errors.New("notification: unknown kind")
	ErrUnsupportedRecord = errors.New("notification: record type does not match kind")
)

type Kind string

const (
	KindRegistrationReceived Kind = "registration-received"
	KindRegistrationApproved Kind = "registration-approved"
	KindPaymentReminder      Kind = "payment-reminder"
	KindHotelConfirmation    Kind = "hotel-confirmation"
	KindContactMessage       Kind = "contact-message"
)

var Kinds = []Kind{
	KindRegistrationReceived,
	KindRegistrationApproved,
	KindPaymentReminder,
	KindHotelConfirmation,
	KindContactMessage,
}

func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Email is a rendered notification.
type Email struct {
	Subject string
	HTML    string
	Text    string
}

type Settings struct {
	EventName string
	BaseURL   string
	Organiser string
	Location  *time.Location
}

type Renderer struct {
	settings Settings
	html     map[Kind]*htmltmpl.Template
	text     map[Kind]*texttmpl.Template
}

func NewRenderer(settings Settings) (*Renderer, error) {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.EventName == "" {
		settings.EventName = "Norwegian Open"
	}

	r := &Renderer{
		settings: settings,
		html:     make(map[Kind]*htmltmpl.Template, len(Kinds)),
		text:     make(map[Kind]*texttmpl.Template, len(Kinds)),
	}
	for _, kind := range Kinds {
		h, err := htmltmpl.ParseFS(templateFS, "templates/_base.gohtml", "templates/"+string(kind)+".gohtml")
		if err != nil {
			return nil, fmt.Errorf("notification: failed to parse %s html template: %w", kind, err)
		}
		t, err := texttmpl.ParseFS(templateFS, "templates/_base.txt", "templates/"+string(kind)+".txt")
		if err != nil {
			return nil, fmt.Errorf("notification: failed to parse %s text template: %w", kind, err)
		}
		r.html[kind] = h.Option("missingkey=error")
		r.text[kind] = t.Option("missingkey=error")
	}
	return r, nil
}

// Render produces the email of kind for record. Registration kinds take a
// model.Registration, the hotel confirmation a model.HotelBooking and the
// contact message a model.ContactMessage.
func (r *Renderer) Render(kind Kind, record any, now time.Time) (Email, error) {
	if _, ok := r.html[kind]; !ok {
		return Email{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var v view
	switch kind {
	case KindRegistrationReceived, KindRegistrationApproved, KindPaymentReminder:
		registration, ok := record.(model.Registration)
		if !ok {
			return Email{}, fmt.Errorf("%w: %s needs a registration, got %T", ErrUnsupportedRecord, kind, record)
		}
		v = r.registrationView(kind, registration, now)
	case KindHotelConfirmation:
		booking, ok := record.(model.HotelBooking)
		if !ok {
			return Email{}, fmt.Errorf("%w: %s needs a hotel booking, got %T", ErrUnsupportedRecord, kind, record)
		}
		v = r.hotelView(booking, now)
	case KindContactMessage:
		msg, ok := record.(model.ContactMessage)
		if !ok {
			return Email{}, fmt.Errorf("%w: %s needs a contact message, got %T", ErrUnsupportedRecord, kind, record)
		}
		v = r.contactView(msg, now)
	}

	var html, text bytes.Buffer
	if err := r.html[kind].ExecuteTemplate(&html, "base", v); err != nil {
		return Email{}, fmt.Errorf("notification: failed to render %s html: %w", kind, err)
	}
	if err := r.text[kind].ExecuteTemplate(&text, "base", v); err != nil {
		return Email{}, fmt.Errorf("notification: failed to render %s text: %w", kind, err)
	}

	return Email{Subject: v.Subject, HTML: html.String(), Text: text.String()}, nil
}

type view struct {
	Subject   string
	EventName string
	Organiser string
	Year      string

	Name            string
	Email           string
	UserID          string
	Level           string
	Role            string
	PassOption      string
	AddedIntensive  bool
	Tier            string
	AmountDue       string
	PaymentDeadline string
	DaysLeft        string
	PartnerName     string
	Status          string
	ParticipantURL  string

	Room            string
	CheckIn         string
	CheckOut        string
	Nights          string
	Roommates       string
	SpecialRequests string

	ContactSubject string
	Message        string
}

func (r *Renderer) base(subject string, now time.Time) view {
	return view{
		Subject:   subject,
		EventName: r.settings.EventName,
		Organiser: orNA(r.settings.Organiser),
		Year:      strconv.Itoa(now.In(r.settings.Location).Year()),
	}
}

func (r *Renderer) registrationView(kind Kind, reg model.Registration, now time.Time) view {
	var subject string
	switch kind {
	case KindRegistrationReceived:
		subject = fmt.Sprintf("%s: registration received", r.settings.EventName)
	case KindRegistrationApproved:
		subject = fmt.Sprintf("%s: your registration is approved", r.settings.EventName)
	case KindPaymentReminder:
		subject = fmt.Sprintf("%s: payment reminder", r.settings.EventName)
	}

	v := r.base(subject, now)
	v.Name = orNA(reg.FullName)
	v.Email = orNA(reg.Email)
	v.UserID = orNA(reg.UserID)
	v.Level = orNA(string(reg.Level))
	v.Role = orNA(string(reg.Role))
	v.PassOption = orNA(string(reg.PassOption))
	v.AddedIntensive = reg.AddedIntensive
	v.Tier = NotAvailable
	if reg.PriceTier != "" {
		v.Tier = reg.PriceTier.Label()
	}
	v.AmountDue = formatAmount(reg.AmountDue, reg.UserID != "")
	v.PaymentDeadline = r.formatDate(reg.PaymentDeadline)
	v.DaysLeft = r.daysLeft(reg.PaymentDeadline, now)
	v.PartnerName = orNA(reg.PartnerName)
	v.Status = orNA(string(reg.Status))
	v.ParticipantURL = NotAvailable
	if reg.UserID != "" && r.settings.BaseURL != "" {
		v.ParticipantURL = strings.TrimRight(r.settings.BaseURL, "/") + "/participants/" + reg.UserID
	}
	return v
}

func (r *Renderer) hotelView(booking model.HotelBooking, now time.Time) view {
	v := r.base(fmt.Sprintf("%s: hotel booking confirmed", r.settings.EventName), now)
	v.Name = orNA(booking.FullName)
	v.Email = orNA(booking.Email)
	v.Room = NotAvailable
	if booking.Option != "" {
		v.Room = booking.Option.RoomName()
	}
	v.CheckIn = NotAvailable
	if booking.CheckIn.IsSet {
		v.CheckIn = r.formatDate(booking.CheckIn.Val)
	}
	v.CheckOut = NotAvailable
	if booking.CheckOut.IsSet {
		v.CheckOut = r.formatDate(booking.CheckOut.Val)
	}
	v.Nights = strconv.Itoa(booking.Nights)
	v.Roommates = orNA(strings.Join(booking.Roommates, ", "))
	v.SpecialRequests = orNA(booking.SpecialRequests)
	v.AmountDue = formatAmount(booking.AmountDue, booking.Option.IsRoom())
	v.PaymentDeadline = r.formatDate(booking.PaymentDeadline)
	return v
}

func (r *Renderer) contactView(msg model.ContactMessage, now time.Time) view {
	v := r.base(fmt.Sprintf("Contact Form: %s (from %s)", orNA(msg.Subject), orNA(msg.Name)), now)
	v.Name = orNA(msg.Name)
	v.Email = orNA(msg.Email)
	v.ContactSubject = orNA(msg.Subject)
	v.Message = orNA(msg.Message)
	return v
}

func (r *Renderer) formatDate(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.In(r.settings.Location).Format("2 January 2006")
}

func (r *Renderer) daysLeft(deadline, now time.Time) string {
	if deadline.IsZero() {
		return ""
	}
	y, m, d := now.In(r.settings.Location).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = deadline.In(r.settings.Location).Date()
	due := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	switch days := pricing.NightsBetween(today, due); {
	case days < 0:
		return "overdue"
	case days == 0:
		return "due today"
	case days == 1:
		return "1 day left"
	default:
		return strconv.Itoa(days) + " days left"
	}
}

// formatAmount prints whole NOK. A zero amount on an incomplete record is N/A.
func formatAmount(amount int, known bool) string {
	if amount == 0 && !known {
		return NotAvailable
	}
	return strconv.Itoa(amount) + " NOK"
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}
