// Package testutil holds in-memory stand-ins and fixtures for tests and local
// development.
package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"norwegianopen/internal/model"
	"norwegianopen/internal/repository"

	"github.com/google/uuid"
)

// MemoryRepository is a repository.Repository kept in process memory. Records
// are ordered by insertion, which stands in for created_at.
type MemoryRepository struct {
	mu            sync.Mutex
	registrations []model.Registration
	bookings      []model.HotelBooking
	mailList      []model.MailListEntry
	admins        []model.AdminUser
	adminIDs      map[uuid.UUID]bool
	clock         time.Time

	// Err, when set, is returned by every call.
	Err error
}

var _ repository.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		adminIDs: make(map[uuid.UUID]bool),
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so ordering by creation is stable.
func (m *MemoryRepository) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *MemoryRepository) HealthCheck(ctx context.Context) error {
	return m.Err
}

func (m *MemoryRepository) CreateRegistration(ctx context.Context, params repository.CreateRegistrationParams) (model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.Registration{}, m.Err
	}

	for _, r := range m.registrations {
		if r.UserID == params.UserID {
			return model.Registration{}, repository.ErrDuplicateUserID
		}
	}

	now := m.tick()
	r := model.Registration{
		ID:              uuid.New(),
		UserID:          params.UserID,
		FullName:        params.FullName,
		Email:           params.Email,
		WSDCID:          params.WSDCID,
		Country:         params.Country,
		Region:          params.Region,
		Level:           params.Level,
		Role:            params.Role,
		Competing:       params.Competing,
		PassOption:      params.PassOption,
		AddedIntensive:  params.AddedIntensive,
		PromoCode:       params.PromoCode,
		HasPartner:      params.HasPartner,
		PartnerName:     params.PartnerName,
		PartnerEmail:    params.PartnerEmail,
		BasePrice:       params.BasePrice,
		AmountDue:       params.AmountDue,
		PriceTier:       params.PriceTier,
		PaymentDeadline: params.PaymentDeadline,
		Status:          params.Status,
		AcceptedRules:   params.AcceptedRules,
		AcceptedToC:     params.AcceptedToC,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.registrations = append(m.registrations, r)
	return r, nil
}

func (m *MemoryRepository) GetRegistration(ctx context.Context, params repository.GetRegistrationParams) (model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.Registration{}, m.Err
	}

	for _, r := range m.registrations {
		if params.ID.IsSet && r.ID != params.ID.Val {
			continue
		}
		if params.UserID.IsSet && r.UserID != params.UserID.Val {
			continue
		}
		if params.ID.IsSet || params.UserID.IsSet {
			return r, nil
		}
	}
	return model.Registration{}, repository.ErrRegistrationNotFound
}

func (m *MemoryRepository) ListRegistrations(ctx context.Context, params repository.ListRegistrationsParams) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var out []model.Registration
	for _, r := range m.registrations {
		if params.Filter.Match(r) {
			out = append(out, r)
		}
	}
	if params.Order == repository.OrderByDESC {
		slices.Reverse(out)
	}
	if params.Limit > 0 {
		start := min(params.Offset, len(out))
		end := min(start+params.Limit, len(out))
		out = out[start:end]
	}
	return out, nil
}

func (m *MemoryRepository) SearchRegistrations(ctx context.Context, query string, limit int) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	lower := strings.ToLower(query)
	var out []model.Registration
	for _, r := range m.registrations {
		if strings.Contains(strings.ToLower(r.FullName), lower) || r.UserID == strings.ToUpper(query) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b model.Registration) int { return strings.Compare(a.FullName, b.FullName) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) UserIDExists(ctx context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	for _, r := range m.registrations {
		if r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryRepository) ActiveEmailExists(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	for _, r := range m.registrations {
		if strings.EqualFold(r.Email, email) && r.Status != model.RegistrationStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryRepository) UpdateRegistration(ctx context.Context, id uuid.UUID, params repository.UpdateRegistrationParams) (model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.Registration{}, m.Err
	}

	i := slices.IndexFunc(m.registrations, func(r model.Registration) bool { return r.ID == id })
	if i < 0 {
		return model.Registration{}, repository.ErrRegistrationNotFound
	}
	r := &m.registrations[i]
	set(&r.FullName, params.FullName.IsSet, params.FullName.Val)
	set(&r.Email, params.Email.IsSet, params.Email.Val)
	set(&r.WSDCID, params.WSDCID.IsSet, params.WSDCID.Val)
	set(&r.Country, params.Country.IsSet, params.Country.Val)
	set(&r.Region, params.Region.IsSet, params.Region.Val)
	set(&r.Level, params.Level.IsSet, params.Level.Val)
	set(&r.Role, params.Role.IsSet, params.Role.Val)
	set(&r.Competing, params.Competing.IsSet, params.Competing.Val)
	set(&r.PassOption, params.PassOption.IsSet, params.PassOption.Val)
	set(&r.AddedIntensive, params.AddedIntensive.IsSet, params.AddedIntensive.Val)
	set(&r.PromoCode, params.PromoCode.IsSet, params.PromoCode.Val)
	set(&r.HasPartner, params.HasPartner.IsSet, params.HasPartner.Val)
	set(&r.PartnerName, params.PartnerName.IsSet, params.PartnerName.Val)
	set(&r.PartnerEmail, params.PartnerEmail.IsSet, params.PartnerEmail.Val)
	set(&r.BasePrice, params.BasePrice.IsSet, params.BasePrice.Val)
	set(&r.AmountDue, params.AmountDue.IsSet, params.AmountDue.Val)
	set(&r.PaymentDeadline, params.PaymentDeadline.IsSet, params.PaymentDeadline.Val)
	set(&r.Status, params.Status.IsSet, params.Status.Val)
	set(&r.ApprovalEmailSent, params.ApprovalEmailSent.IsSet, params.ApprovalEmailSent.Val)
	r.UpdatedAt = m.tick()
	return *r, nil
}

func set[T any](dst *T, ok bool, v T) {
	if ok {
		*dst = v
	}
}

func (m *MemoryRepository) DeleteRegistration(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	i := slices.IndexFunc(m.registrations, func(r model.Registration) bool { return r.ID == id })
	if i < 0 {
		return repository.ErrRegistrationNotFound
	}
	m.registrations = slices.Delete(m.registrations, i, i+1)
	return nil
}

// CreateHotelBooking checks the caps and inserts under one lock, like the
// advisory lock of the Postgres implementation.
func (m *MemoryRepository) CreateHotelBooking(ctx context.Context, params repository.CreateHotelBookingParams, limits repository.HotelLimits) (model.HotelBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.HotelBooking{}, m.Err
	}

	if err := repository.CheckHotelLimits(m.occupancy(), params.Option, limits); err != nil {
		return model.HotelBooking{}, err
	}

	now := m.tick()
	b := model.HotelBooking{
		ID:              uuid.New(),
		FullName:        params.FullName,
		Email:           params.Email,
		Option:          params.Option,
		CheckIn:         params.CheckIn,
		CheckOut:        params.CheckOut,
		Nights:          params.Nights,
		AmountDue:       params.AmountDue,
		Roommates:       slices.Clone(params.Roommates),
		SpecialRequests: params.SpecialRequests,
		PaymentDeadline: params.PaymentDeadline,
		Status:          model.HotelStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.bookings = append(m.bookings, b)
	return b, nil
}

func (m *MemoryRepository) occupancy() model.HotelOccupancy {
	var o model.HotelOccupancy
	for _, b := range m.bookings {
		if b.HasRoom() {
			o.Rooms++
		}
		if b.HasLargeRoom() {
			o.LargeRooms++
		}
	}
	return o
}

func (m *MemoryRepository) GetHotelBooking(ctx context.Context, id uuid.UUID) (model.HotelBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.HotelBooking{}, m.Err
	}
	for _, b := range m.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return model.HotelBooking{}, repository.ErrHotelBookingNotFound
}

func (m *MemoryRepository) GetHotelBookingByEmail(ctx context.Context, email string) (model.HotelBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.HotelBooking{}, m.Err
	}
	for i := len(m.bookings) - 1; i >= 0; i-- {
		b := m.bookings[i]
		if strings.EqualFold(b.Email, email) && b.Status != model.HotelStatusCancelled {
			return b, nil
		}
	}
	return model.HotelBooking{}, repository.ErrHotelBookingNotFound
}

func (m *MemoryRepository) ListHotelBookings(ctx context.Context, params repository.ListHotelBookingsParams) ([]model.HotelBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []model.HotelBooking
	for _, b := range m.bookings {
		if len(params.Statuses) == 0 || slices.Contains(params.Statuses, b.Status) {
			out = append(out, b)
		}
	}
	if params.Order == repository.OrderByDESC {
		slices.Reverse(out)
	}
	return out, nil
}

func (m *MemoryRepository) UpdateHotelBooking(ctx context.Context, id uuid.UUID, params repository.UpdateHotelBookingParams) (model.HotelBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.HotelBooking{}, m.Err
	}
	i := slices.IndexFunc(m.bookings, func(b model.HotelBooking) bool { return b.ID == id })
	if i < 0 {
		return model.HotelBooking{}, repository.ErrHotelBookingNotFound
	}
	b := &m.bookings[i]
	set(&b.Status, params.Status.IsSet, params.Status.Val)
	set(&b.ConfirmationEmailSent, params.ConfirmationEmailSent.IsSet, params.ConfirmationEmailSent.Val)
	set(&b.SpecialRequests, params.SpecialRequests.IsSet, params.SpecialRequests.Val)
	b.UpdatedAt = m.tick()
	return *b, nil
}

func (m *MemoryRepository) CountHotelOccupancy(ctx context.Context) (model.HotelOccupancy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.HotelOccupancy{}, m.Err
	}
	return m.occupancy(), nil
}

func (m *MemoryRepository) AddMailListEntry(ctx context.Context, email string) (model.MailListEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.MailListEntry{}, false, m.Err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range m.mailList {
		if e.Email == email {
			return e, false, nil
		}
	}
	entry := model.MailListEntry{ID: uuid.New(), Email: email, CreatedAt: m.tick()}
	m.mailList = append(m.mailList, entry)
	return entry, true, nil
}

func (m *MemoryRepository) ListMailList(ctx context.Context) ([]model.MailListEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return slices.Clone(m.mailList), nil
}

func (m *MemoryRepository) CreateAdminUser(ctx context.Context, params repository.CreateAdminUserParams) (model.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.AdminUser{}, m.Err
	}
	email := strings.ToLower(strings.TrimSpace(params.Email))
	for _, a := range m.admins {
		if a.Email == email {
			return model.AdminUser{}, repository.ErrDuplicateEmail
		}
	}
	user := model.AdminUser{
		ID:           uuid.New(),
		Name:         params.Name,
		Email:        email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    m.tick(),
	}
	m.admins = append(m.admins, user)
	return user, nil
}

func (m *MemoryRepository) GetAdminUserByEmail(ctx context.Context, email string) (model.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.AdminUser{}, m.Err
	}
	for _, a := range m.admins {
		if strings.EqualFold(a.Email, strings.TrimSpace(email)) {
			return a, nil
		}
	}
	return model.AdminUser{}, repository.ErrAdminNotFound
}

func (m *MemoryRepository) GrantAdmin(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.adminIDs[userID] = true
	return nil
}

func (m *MemoryRepository) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	return m.adminIDs[userID], nil
}
